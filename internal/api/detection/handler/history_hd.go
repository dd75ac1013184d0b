package detectionHandler

import (
	"TakaDetect/internal/api/detection"
	contextPkg "TakaDetect/pkg/context"
	"TakaDetect/pkg/handlerUtil"
	"TakaDetect/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"time"
)

func (h *DetectionHandler) RecentPredictions(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	limit := ctx.QueryInt("limit", 20)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	records, err := h.detectionService.RecentPredictions(c, limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "recent_predictions")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"count":      len(records),
	}).Debug("Fetched prediction history")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, detection.HistoryResponse{
		Predictions: records,
	})
}
