package detectionHandler

import (
	detectionService "TakaDetect/internal/api/detection/service"
	"TakaDetect/internal/middleware"
	"TakaDetect/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type DetectionHandler struct {
	log              *logrus.Logger
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
	utils utils.IUtils,
) *DetectionHandler {
	return &DetectionHandler{
		detectionService: ds,
		log:              log,
		middleware:       middleware,
		utils:            utils,
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/predict", h.Predict)
	srv.Get("/predictions", h.RecentPredictions)

	predict := srv.Group("/predict")
	predict.Use("/ws", wsMiddleware)
	predict.Get("/ws", websocket.New(h.handlePredictWebSocket))
}
