package detection

import "testing"

func TestDefaultLabels(t *testing.T) {
	labels := DefaultLabels()

	if labels.Len() != 5 {
		t.Fatalf("expected 5 classes, got %d", labels.Len())
	}

	want := []string{"100 tk", "1000 tk", "200 tk", "500 tk", "objects"}
	for id, name := range want {
		got, ok := labels.Name(id)
		if !ok {
			t.Fatalf("class id %d not found", id)
		}
		if got != name {
			t.Errorf("class id %d = %q, want %q", id, got, name)
		}
	}
}

func TestLabelSetOutOfRange(t *testing.T) {
	labels := DefaultLabels()

	for _, id := range []int{-1, 5, 100} {
		if name, ok := labels.Name(id); ok {
			t.Errorf("class id %d resolved to %q, want miss", id, name)
		}
	}
}

func TestLabelsFromEnv(t *testing.T) {
	t.Setenv("MODEL_LABELS", "10 tk, 50 tk ,objects")

	labels := LabelsFromEnv()
	if labels.Len() != 3 {
		t.Fatalf("expected 3 classes, got %d", labels.Len())
	}

	if name, _ := labels.Name(1); name != "50 tk" {
		t.Errorf("class id 1 = %q, want %q", name, "50 tk")
	}
}

func TestLabelsFromEnvDefault(t *testing.T) {
	t.Setenv("MODEL_LABELS", "")

	labels := LabelsFromEnv()
	if labels.Len() != 5 {
		t.Fatalf("expected default vocabulary, got %d classes", labels.Len())
	}
}
