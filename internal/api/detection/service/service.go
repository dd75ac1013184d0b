package detectionService

import (
	"TakaDetect/internal/api/detection"
	detectionRepository "TakaDetect/internal/api/detection/repository"
	"TakaDetect/internal/entity"
	"TakaDetect/pkg/redis"
	"TakaDetect/pkg/utils"
	"TakaDetect/pkg/yolo"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IDetectionService interface {
	Predict(ctx context.Context, req detection.PredictRequest) (*detection.PredictionResponse, error)
	ModelStatus() string
	RecentPredictions(ctx context.Context, limit int) ([]entity.PredictionRecord, error)
}

type detectionService struct {
	log       *logrus.Logger
	validator *validator.Validate
	adapter   *detectorAdapter
	engine    yolo.IEngine
	repo      detectionRepository.Repository
	cache     redis.IRedis
	utils     utils.IUtils
}

// NewDetectionService wires the prediction pipeline. repo and cache may be
// nil; history and caching then degrade without affecting /predict.
func NewDetectionService(
	log *logrus.Logger,
	validator *validator.Validate,
	engine yolo.IEngine,
	labels detection.LabelSet,
	repo detectionRepository.Repository,
	cache redis.IRedis,
	utils utils.IUtils,
) IDetectionService {
	return &detectionService{
		log:       log,
		validator: validator,
		adapter:   newDetectorAdapter(engine, labels),
		engine:    engine,
		repo:      repo,
		cache:     cache,
		utils:     utils,
	}
}

func (s *detectionService) ModelStatus() string {
	if s.engine.Ready() {
		return "loaded"
	}
	return "not loaded"
}
