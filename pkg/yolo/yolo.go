package yolo

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// RawDetection is one row of the engine's native output: xyxy box,
// confidence score and integer class id.
type RawDetection struct {
	Box     [4]float64 `json:"box"`
	Score   float64    `json:"score"`
	ClassID int        `json:"class_id"`
}

type IEngine interface {
	Load(ctx context.Context) error
	Ready() bool
	Infer(ctx context.Context, img image.Image, threshold float64) ([]RawDetection, error)
	Close()
}

type ErrModelNotFound struct {
	Path string
}

func (e *ErrModelNotFound) Error() string {
	return fmt.Sprintf("model weights not found at %s", e.Path)
}

type engine struct {
	modelPath    string
	inferenceURL string
	client       *http.Client
	ready        atomic.Bool
}

// New builds a client for the YOLO inference sidecar. The model weights
// artifact lives on disk and is bound to the sidecar; the handle stays
// unloaded until Load succeeds.
func New() IEngine {
	modelPath := os.Getenv("MODEL_PATH")
	if modelPath == "" {
		modelPath = "./models/best.pt"
	}

	inferenceURL := os.Getenv("INFERENCE_URL")
	if inferenceURL == "" {
		inferenceURL = "http://localhost:5000/predict"
	}

	return &engine{
		modelPath:    modelPath,
		inferenceURL: inferenceURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (e *engine) Load(_ context.Context) error {
	if _, err := os.Stat(e.modelPath); err != nil {
		return &ErrModelNotFound{Path: e.modelPath}
	}

	logrus.Info(fmt.Sprintf("Loading model from %s...", e.modelPath))
	e.ready.Store(true)
	logrus.Info("Model loaded successfully")

	return nil
}

func (e *engine) Ready() bool {
	return e.ready.Load()
}

func (e *engine) Close() {
	e.ready.Store(false)
}

func (e *engine) Infer(ctx context.Context, img image.Image, threshold float64) ([]RawDetection, error) {
	if !e.ready.Load() {
		return nil, fmt.Errorf("model not loaded")
	}

	var frame bytes.Buffer
	if err := jpeg.Encode(&frame, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, &frame); err != nil {
		return nil, fmt.Errorf("copy frame data: %w", err)
	}
	if err := writer.WriteField("confidence", fmt.Sprintf("%g", threshold)); err != nil {
		return nil, fmt.Errorf("write confidence field: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []RawDetection `json:"detections"`
	}
	if err := jsoniter.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result.Detections, nil
}
