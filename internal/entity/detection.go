package entity

import "time"

// BoundingBox holds xyxy pixel coordinates, x1<=x2 and y1<=y2.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Detection is a single detected note, immutable once produced.
type Detection struct {
	ClassName   string      `json:"class_name"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

type PredictionRecord struct {
	ID            string    `json:"id"`
	FileName      string    `json:"file_name"`
	Threshold     float64   `json:"threshold"`
	NumDetections int       `json:"num_detections"`
	Detections    string    `json:"detections"`
	CreatedAt     time.Time `json:"created_at"`
}
