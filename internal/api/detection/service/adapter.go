package detectionService

import (
	"TakaDetect/internal/api/detection"
	"TakaDetect/internal/entity"
	"TakaDetect/pkg/yolo"
	"fmt"
	"golang.org/x/net/context"
	"image"
)

// detectorAdapter translates the engine's native output rows into domain
// detections via the label set. Stateless with respect to request data.
type detectorAdapter struct {
	engine yolo.IEngine
	labels detection.LabelSet
}

func newDetectorAdapter(engine yolo.IEngine, labels detection.LabelSet) *detectorAdapter {
	return &detectorAdapter{
		engine: engine,
		labels: labels,
	}
}

// Detect runs inference and maps the raw rows in engine output order.
// The threshold is a hard filter; rows below it never appear. A class id
// outside the label set means the engine broke its contract, so the whole
// call fails rather than dropping the row.
func (a *detectorAdapter) Detect(ctx context.Context, img image.Image, threshold float64) ([]entity.Detection, error) {
	raw, err := a.engine.Infer(ctx, img, threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrProcessing, err)
	}

	detections := make([]entity.Detection, 0, len(raw))
	for _, d := range raw {
		name, ok := a.labels.Name(d.ClassID)
		if !ok {
			return nil, fmt.Errorf("%w: class id %d", detection.ErrClassOutOfRange, d.ClassID)
		}

		if d.Score < threshold {
			continue
		}

		detections = append(detections, entity.Detection{
			ClassName:  name,
			Confidence: d.Score,
			BoundingBox: entity.BoundingBox{
				X1: d.Box[0],
				Y1: d.Box[1],
				X2: d.Box[2],
				Y2: d.Box[3],
			},
		})
	}

	return detections, nil
}
