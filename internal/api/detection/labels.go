package detection

import (
	"os"
	"strings"
)

// LabelSet is the fixed class-id to class-name vocabulary of the model.
// Built once at startup and shared read-only by every request.
type LabelSet struct {
	names []string
}

func NewLabelSet(names []string) LabelSet {
	return LabelSet{names: names}
}

// DefaultLabels returns the taka note vocabulary the model was trained on,
// four denominations plus a generic catch-all class.
func DefaultLabels() LabelSet {
	return NewLabelSet([]string{"100 tk", "1000 tk", "200 tk", "500 tk", "objects"})
}

// LabelsFromEnv reads MODEL_LABELS as a comma-separated list ordered by
// class id, falling back to the default vocabulary.
func LabelsFromEnv() LabelSet {
	raw := os.Getenv("MODEL_LABELS")
	if raw == "" {
		return DefaultLabels()
	}

	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, strings.TrimSpace(p))
	}
	return NewLabelSet(names)
}

func (l LabelSet) Name(classID int) (string, bool) {
	if classID < 0 || classID >= len(l.names) {
		return "", false
	}
	return l.names[classID], true
}

func (l LabelSet) Len() int {
	return len(l.names)
}
