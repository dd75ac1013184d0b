package detectionHandler

import (
	"TakaDetect/internal/api/detection"
	contextPkg "TakaDetect/pkg/context"
	"TakaDetect/pkg/handlerUtil"
	"TakaDetect/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"io"
	"strconv"
	"time"
)

func (h *DetectionHandler) Predict(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing prediction request")

	file, err := ctx.FormFile("file")
	if err != nil {
		return errHandler.Handle(ctx, requestID, detection.ErrInvalidFileType, ctx.Path(), "read_form_file")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing file upload")

	if err := h.utils.ValidateImageFile(file); err != nil {
		return errHandler.Handle(ctx, requestID, detection.ErrInvalidFileType, ctx.Path(), "validate_file")
	}

	confidence := float64(detection.DefaultConfidence)
	rawConfidence := ctx.FormValue("confidence")
	if rawConfidence == "" {
		rawConfidence = ctx.Query("confidence")
	}
	if rawConfidence != "" {
		confidence, err = strconv.ParseFloat(rawConfidence, 64)
		if err != nil {
			return errHandler.Handle(ctx, requestID, detection.ErrConfidenceOutOfRange, ctx.Path(), "parse_confidence")
		}
	}

	fileContent, err := file.Open()
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_file")
	}
	defer fileContent.Close()

	imageData, err := io.ReadAll(fileContent)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_file")
	}

	result, err := h.detectionService.Predict(c, detection.PredictRequest{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		ImageData:   imageData,
		Confidence:  confidence,
	})
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "predict")
	}

	h.log.WithFields(log.Fields{
		"request_id":     requestID,
		"path":           ctx.Path(),
		"num_detections": result.NumDetections,
	}).Info("Prediction successful")
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
}
