package detection

import "strings"

// ValidateRequest checks the upload's declared media type and the confidence
// threshold before any inference work happens. Pure, no I/O.
func ValidateRequest(contentType string, confidence float64) error {
	if !strings.HasPrefix(contentType, "image/") {
		return ErrInvalidFileType
	}

	if confidence < 0.0 || confidence > 1.0 {
		return ErrConfidenceOutOfRange
	}

	return nil
}
