package detectionService

import (
	"TakaDetect/internal/api/detection"
	"TakaDetect/pkg/redis"
	"TakaDetect/pkg/utils"
	"TakaDetect/pkg/yolo"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type fakeEngine struct {
	ready bool
	raw   []yolo.RawDetection
	err   error
	calls int
}

func (f *fakeEngine) Load(_ context.Context) error {
	f.ready = true
	return nil
}

func (f *fakeEngine) Ready() bool {
	return f.ready
}

func (f *fakeEngine) Close() {
	f.ready = false
}

func (f *fakeEngine) Infer(_ context.Context, _ image.Image, _ float64) ([]yolo.RawDetection, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

type fakeCache struct {
	store map[string]string
	err   error
	sets  int
}

func (f *fakeCache) SetPrediction(_ context.Context, key string, payload string, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.store == nil {
		f.store = make(map[string]string)
	}
	f.store[key] = payload
	f.sets++
	return nil
}

func (f *fakeCache) GetPrediction(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	payload, ok := f.store[key]
	return payload, ok, nil
}

func newTestService(engine *fakeEngine) IDetectionService {
	return newCachedService(engine, nil)
}

func newCachedService(engine *fakeEngine, cache redis.IRedis) IDetectionService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewDetectionService(logger, validator.New(), engine, detection.DefaultLabels(), nil, cache, utils.New())
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func validRequest(t *testing.T, confidence float64) detection.PredictRequest {
	return detection.PredictRequest{
		FileName:    "note.png",
		ContentType: "image/png",
		ImageData:   pngBytes(t),
		Confidence:  confidence,
	}
}

func TestPredictModelNotLoaded(t *testing.T) {
	engine := &fakeEngine{ready: false}
	svc := newTestService(engine)

	_, err := svc.Predict(context.Background(), validRequest(t, 0.25))
	if !errors.Is(err, detection.ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
	if engine.calls != 0 {
		t.Errorf("engine invoked %d times, want 0", engine.calls)
	}
}

func TestPredictInvalidContentType(t *testing.T) {
	engine := &fakeEngine{ready: true}
	svc := newTestService(engine)

	req := validRequest(t, 0.25)
	req.ContentType = "text/plain"

	_, err := svc.Predict(context.Background(), req)
	if !errors.Is(err, detection.ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
	if engine.calls != 0 {
		t.Errorf("engine invoked %d times, want 0", engine.calls)
	}
}

func TestPredictConfidenceBoundaries(t *testing.T) {
	for _, confidence := range []float64{0.0, 1.0} {
		engine := &fakeEngine{ready: true}
		svc := newTestService(engine)

		if _, err := svc.Predict(context.Background(), validRequest(t, confidence)); err != nil {
			t.Errorf("confidence %v rejected: %v", confidence, err)
		}
	}

	for _, confidence := range []float64{-0.0001, 1.0001} {
		engine := &fakeEngine{ready: true}
		svc := newTestService(engine)

		_, err := svc.Predict(context.Background(), validRequest(t, confidence))
		if !errors.Is(err, detection.ErrConfidenceOutOfRange) {
			t.Errorf("confidence %v: expected ErrConfidenceOutOfRange, got %v", confidence, err)
		}
		if engine.calls != 0 {
			t.Errorf("confidence %v: engine invoked before validation", confidence)
		}
	}
}

func TestPredictSuccess(t *testing.T) {
	engine := &fakeEngine{
		ready: true,
		raw: []yolo.RawDetection{
			{Box: [4]float64{10, 20, 110, 220}, Score: 0.91, ClassID: 1},
			{Box: [4]float64{5, 5, 50, 60}, Score: 0.42, ClassID: 0},
		},
	}
	svc := newTestService(engine)

	result, err := svc.Predict(context.Background(), validRequest(t, 0.25))
	if err != nil {
		t.Fatal(err)
	}

	if !result.Success {
		t.Error("expected success=true")
	}
	if result.Message != "Detection completed successfully" {
		t.Errorf("unexpected message %q", result.Message)
	}
	if result.NumDetections != len(result.Detections) {
		t.Errorf("num_detections %d != len(detections) %d", result.NumDetections, len(result.Detections))
	}
	if result.NumDetections != 2 {
		t.Fatalf("expected 2 detections, got %d", result.NumDetections)
	}

	// Engine output order is canonical, no re-sorting by confidence.
	if result.Detections[0].ClassName != "1000 tk" || result.Detections[1].ClassName != "100 tk" {
		t.Errorf("engine order not preserved: %+v", result.Detections)
	}

	for _, d := range result.Detections {
		if d.Confidence < 0 || d.Confidence > 1 {
			t.Errorf("confidence %v out of [0,1]", d.Confidence)
		}
		if d.Confidence < 0.25 {
			t.Errorf("confidence %v below threshold", d.Confidence)
		}
		if d.BoundingBox.X1 > d.BoundingBox.X2 || d.BoundingBox.Y1 > d.BoundingBox.Y2 {
			t.Errorf("degenerate box %+v", d.BoundingBox)
		}
	}
}

func TestPredictZeroDetections(t *testing.T) {
	engine := &fakeEngine{ready: true, raw: nil}
	svc := newTestService(engine)

	result, err := svc.Predict(context.Background(), validRequest(t, 0.9))
	if err != nil {
		t.Fatal(err)
	}

	if !result.Success {
		t.Error("zero detections must still be success")
	}
	if result.NumDetections != 0 {
		t.Errorf("expected 0 detections, got %d", result.NumDetections)
	}
	if result.Detections == nil {
		t.Error("detections must serialize as [], not null")
	}
}

func TestPredictThresholdFiltersEngineRows(t *testing.T) {
	engine := &fakeEngine{
		ready: true,
		raw: []yolo.RawDetection{
			{Box: [4]float64{0, 0, 10, 10}, Score: 0.8, ClassID: 2},
			{Box: [4]float64{0, 0, 10, 10}, Score: 0.3, ClassID: 3},
		},
	}
	svc := newTestService(engine)

	result, err := svc.Predict(context.Background(), validRequest(t, 0.5))
	if err != nil {
		t.Fatal(err)
	}

	if result.NumDetections != 1 {
		t.Fatalf("expected row below threshold to be dropped, got %d detections", result.NumDetections)
	}
	if result.Detections[0].ClassName != "200 tk" {
		t.Errorf("wrong surviving detection: %+v", result.Detections[0])
	}
}

func TestPredictContractViolation(t *testing.T) {
	engine := &fakeEngine{
		ready: true,
		raw: []yolo.RawDetection{
			{Box: [4]float64{0, 0, 10, 10}, Score: 0.9, ClassID: 7},
		},
	}
	svc := newTestService(engine)

	_, err := svc.Predict(context.Background(), validRequest(t, 0.25))
	if !errors.Is(err, detection.ErrClassOutOfRange) {
		t.Fatalf("expected ErrClassOutOfRange, got %v", err)
	}
}

func TestPredictDecodeFailure(t *testing.T) {
	engine := &fakeEngine{ready: true}
	svc := newTestService(engine)

	req := detection.PredictRequest{
		FileName:    "broken.png",
		ContentType: "image/png",
		ImageData:   []byte("definitely not an image"),
		Confidence:  0.25,
	}

	_, err := svc.Predict(context.Background(), req)
	if !errors.Is(err, detection.ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
	if engine.calls != 0 {
		t.Errorf("engine invoked on undecodable image")
	}
}

func TestPredictInferenceFailure(t *testing.T) {
	engine := &fakeEngine{ready: true, err: errors.New("sidecar exploded")}
	svc := newTestService(engine)

	_, err := svc.Predict(context.Background(), validRequest(t, 0.25))
	if !errors.Is(err, detection.ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
}

func TestPredictIdempotent(t *testing.T) {
	engine := &fakeEngine{
		ready: true,
		raw: []yolo.RawDetection{
			{Box: [4]float64{1, 2, 3, 4}, Score: 0.77, ClassID: 4},
		},
	}
	svc := newTestService(engine)

	req := validRequest(t, 0.25)
	first, err := svc.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same image and threshold produced different results:\n%+v\n%+v", first, second)
	}
}

func TestPredictCacheHitSkipsInference(t *testing.T) {
	engine := &fakeEngine{
		ready: true,
		raw: []yolo.RawDetection{
			{Box: [4]float64{1, 2, 3, 4}, Score: 0.8, ClassID: 0},
		},
	}
	cache := &fakeCache{}
	svc := newCachedService(engine, cache)

	req := validRequest(t, 0.25)
	first, err := svc.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if engine.calls != 1 {
		t.Errorf("engine invoked %d times, want 1 (second request must be served from cache)", engine.calls)
	}
	if cache.sets != 1 {
		t.Errorf("cache written %d times, want 1", cache.sets)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached response differs from computed response:\n%+v\n%+v", first, second)
	}
}

func TestPredictCacheKeyIncludesThreshold(t *testing.T) {
	engine := &fakeEngine{
		ready: true,
		raw: []yolo.RawDetection{
			{Box: [4]float64{1, 2, 3, 4}, Score: 0.8, ClassID: 0},
		},
	}
	svc := newCachedService(engine, &fakeCache{})

	if _, err := svc.Predict(context.Background(), validRequest(t, 0.25)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Predict(context.Background(), validRequest(t, 0.5)); err != nil {
		t.Fatal(err)
	}

	if engine.calls != 2 {
		t.Errorf("engine invoked %d times, want 2 (different thresholds must not share a cache entry)", engine.calls)
	}
}

func TestPredictCacheFailureFallsThroughToInference(t *testing.T) {
	engine := &fakeEngine{
		ready: true,
		raw: []yolo.RawDetection{
			{Box: [4]float64{1, 2, 3, 4}, Score: 0.8, ClassID: 0},
		},
	}
	cache := &fakeCache{err: errors.New("connection refused")}
	svc := newCachedService(engine, cache)

	result, err := svc.Predict(context.Background(), validRequest(t, 0.25))
	if err != nil {
		t.Fatalf("cache failure must not fail the request: %v", err)
	}
	if engine.calls != 1 {
		t.Errorf("engine invoked %d times, want 1", engine.calls)
	}
	if result.NumDetections != 1 {
		t.Errorf("expected 1 detection, got %d", result.NumDetections)
	}
}

func TestModelStatus(t *testing.T) {
	engine := &fakeEngine{}
	svc := newTestService(engine)

	if got := svc.ModelStatus(); got != "not loaded" {
		t.Errorf("ModelStatus() = %q, want %q", got, "not loaded")
	}

	if err := engine.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := svc.ModelStatus(); got != "loaded" {
		t.Errorf("ModelStatus() = %q, want %q", got, "loaded")
	}
}

func TestRecentPredictionsWithoutDatabase(t *testing.T) {
	svc := newTestService(&fakeEngine{ready: true})

	_, err := svc.RecentPredictions(context.Background(), 10)
	if !errors.Is(err, detection.ErrHistoryUnavailable) {
		t.Fatalf("expected ErrHistoryUnavailable, got %v", err)
	}
}
