package detection

import (
	"TakaDetect/pkg/response"
	"net/http"
)

var (
	ErrModelNotLoaded       = response.NewError(http.StatusServiceUnavailable, "Model not loaded. Please ensure model weights are available.")
	ErrInvalidFileType      = response.NewError(http.StatusBadRequest, "Invalid file type. Please upload an image file (JPEG/PNG)")
	ErrConfidenceOutOfRange = response.NewError(http.StatusBadRequest, "Confidence threshold must be between 0.0 and 1.0")
	ErrProcessing           = response.NewError(http.StatusInternalServerError, "Error processing image")
	ErrClassOutOfRange      = response.NewError(http.StatusInternalServerError, "engine returned class id outside the known label set")
	ErrHistoryUnavailable   = response.NewError(http.StatusServiceUnavailable, "prediction history unavailable")
)
