package detectionHandler

import (
	"TakaDetect/internal/api/detection"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
	"strconv"
	"time"
)

// handlePredictWebSocket runs the prediction pipeline on every binary frame
// the client sends, one JSON result per frame. The confidence threshold is
// fixed per connection via the ?confidence query parameter.
func (h *DetectionHandler) handlePredictWebSocket(c *websocket.Conn) {
	h.log.Info("Prediction WebSocket client connected")
	defer h.log.Info("Prediction WebSocket client disconnected")

	confidence, err := streamConfidence(c.Query("confidence"))
	if err != nil {
		h.log.Warnf("Rejecting WebSocket session, invalid confidence %q", c.Query("confidence"))
		_ = c.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 60 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Prediction WebSocket error: %v", err)
			} else {
				h.log.Info("Prediction WebSocket connection closed")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		frameCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		result, err := h.detectionService.Predict(frameCtx, detection.PredictRequest{
			FileName:    "frame.jpg",
			ContentType: "image/jpeg",
			ImageData:   message,
			Confidence:  confidence,
		})
		cancel()

		if err != nil {
			h.log.Errorf("Error processing frame: %v", err)
			if writeErr := c.WriteJSON(map[string]string{"error": err.Error()}); writeErr != nil {
				h.log.Errorf("Error sending error response: %v", writeErr)
				break
			}
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(result); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}

// streamConfidence resolves the per-connection threshold. The range check
// mirrors the upload path, a session never starts with an unusable threshold.
func streamConfidence(raw string) (float64, error) {
	if raw == "" {
		return float64(detection.DefaultConfidence), nil
	}

	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return 0, detection.ErrConfidenceOutOfRange
	}

	return parsed, nil
}
