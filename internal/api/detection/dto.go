package detection

import "TakaDetect/internal/entity"

type PredictRequest struct {
	FileName    string
	ContentType string
	ImageData   []byte
	Confidence  float64 `validate:"gte=0,lte=1"`
}

// DefaultConfidence is applied when the client omits the confidence field.
const DefaultConfidence = 0.25

type PredictionResponse struct {
	Success       bool               `json:"success"`
	NumDetections int                `json:"num_detections"`
	Detections    []entity.Detection `json:"detections"`
	Message       string             `json:"message,omitempty"`
}

type HistoryResponse struct {
	Predictions []entity.PredictionRecord `json:"predictions"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelStatus string `json:"model_status"`
}

type APIInfoResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Task      string            `json:"task"`
	Endpoints map[string]string `json:"endpoints"`
}
