package detectionService

import (
	"TakaDetect/internal/api/detection"
	"TakaDetect/internal/entity"
	"TakaDetect/pkg/log"
	"fmt"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
	"time"
)

const cacheTTL = 10 * time.Minute

// Predict runs the full pipeline for one upload: model readiness, input
// validation, decode, inference, response assembly. Every failure is
// terminal for the request; nothing is retried.
func (s *detectionService) Predict(c context.Context, req detection.PredictRequest) (*detection.PredictionResponse, error) {
	if !s.engine.Ready() {
		return nil, detection.ErrModelNotLoaded
	}

	if err := detection.ValidateRequest(req.ContentType, req.Confidence); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, detection.ErrConfidenceOutOfRange
	}

	cacheKey := s.cacheKey(req)
	if cached := s.cachedResponse(c, cacheKey); cached != nil {
		return cached, nil
	}

	img, err := s.utils.DecodeImage(req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrProcessing, err)
	}

	detections, err := s.adapter.Detect(c, img, req.Confidence)
	if err != nil {
		return nil, err
	}

	result := &detection.PredictionResponse{
		Success:       true,
		NumDetections: len(detections),
		Detections:    detections,
		Message:       "Detection completed successfully",
	}

	s.cacheResponse(c, cacheKey, result)
	s.recordPrediction(c, req, result)

	return result, nil
}

func (s *detectionService) cacheKey(req detection.PredictRequest) string {
	return fmt.Sprintf("prediction:%s:%g", s.utils.ImageDigest(req.ImageData), req.Confidence)
}

func (s *detectionService) cachedResponse(c context.Context, key string) *detection.PredictionResponse {
	if s.cache == nil {
		return nil
	}

	payload, ok, err := s.cache.GetPrediction(c, key)
	if err != nil || !ok {
		return nil
	}

	var result detection.PredictionResponse
	if err := jsoniter.UnmarshalFromString(payload, &result); err != nil {
		return nil
	}
	return &result
}

func (s *detectionService) cacheResponse(c context.Context, key string, result *detection.PredictionResponse) {
	if s.cache == nil {
		return
	}

	payload, err := jsoniter.MarshalToString(result)
	if err != nil {
		return
	}

	// Best effort, a cache write failure never fails the request.
	_ = s.cache.SetPrediction(c, key, payload, cacheTTL)
}

func (s *detectionService) recordPrediction(c context.Context, req detection.PredictRequest, result *detection.PredictionResponse) {
	if s.repo == nil {
		return
	}

	entry := log.WithRequestID(c)

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		entry.Warnf("Failed to generate prediction id: %v", err)
		return
	}

	detections, err := jsoniter.MarshalToString(result.Detections)
	if err != nil {
		entry.Warnf("Failed to serialize detections for history: %v", err)
		return
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		entry.Warnf("Failed to open repository client: %v", err)
		return
	}

	record := entity.PredictionRecord{
		ID:            id,
		FileName:      req.FileName,
		Threshold:     req.Confidence,
		NumDetections: result.NumDetections,
		Detections:    detections,
		CreatedAt:     time.Now(),
	}

	if err := client.Prediction.CreatePrediction(c, record); err != nil {
		entry.Warnf("Failed to record prediction: %v", err)
	}
}

func (s *detectionService) RecentPredictions(c context.Context, limit int) ([]entity.PredictionRecord, error) {
	if s.repo == nil {
		return nil, detection.ErrHistoryUnavailable
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return client.Prediction.GetRecentPredictions(c, limit)
}
