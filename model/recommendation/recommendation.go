package recommendation

import (
	"fmt"
	"strings"
	"time"
)

// Confidence expresses how certain the generator is about a recommendation.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence normalises a free-form confidence label. Generators format
// the value inconsistently ("High", "MEDIUM"), so matching is case-insensitive.
func ParseConfidence(value string) (Confidence, error) {
	switch Confidence(strings.ToLower(strings.TrimSpace(value))) {
	case ConfidenceLow:
		return ConfidenceLow, nil
	case ConfidenceMedium:
		return ConfidenceMedium, nil
	case ConfidenceHigh:
		return ConfidenceHigh, nil
	}
	return "", fmt.Errorf("unknown confidence: %q", value)
}

// Alternative is a secondary action option the generator considered.
type Alternative struct {
	Action      string `json:"action,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	ExpectedROI string `json:"expectedRoi,omitempty"`
}

// Recommendation is a generated candidate business action awaiting human
// approval. It is immutable once created; a new generation cycle supersedes
// the previous recommendation rather than mutating it.
type Recommendation struct {
	Action          string        `json:"action"`
	Quantity        int           `json:"quantity"`
	ExpectedROI     string        `json:"expectedRoi"`
	PredictedProfit *float64      `json:"predictedProfit,omitempty"`
	Confidence      Confidence    `json:"confidence"`
	Reasoning       string        `json:"reasoning,omitempty"`
	Category        string        `json:"category,omitempty"`
	GeneratedAt     time.Time     `json:"generatedAt"`
	Alternatives    []Alternative `json:"alternativeActions,omitempty"`
}

// Validate checks structural constraints before a recommendation enters the
// approval pipeline.
func (r *Recommendation) Validate() error {
	if r == nil {
		return fmt.Errorf("recommendation cannot be nil")
	}
	if r.Action == "" {
		return fmt.Errorf("recommendation action cannot be empty")
	}
	if r.Quantity < 0 {
		return fmt.Errorf("recommendation quantity cannot be negative: %d", r.Quantity)
	}
	if _, err := ParseConfidence(string(r.Confidence)); err != nil {
		return err
	}
	return nil
}

// Summary renders a one-line human readable description, used in logs and
// notification fallback text.
func (r *Recommendation) Summary() string {
	return fmt.Sprintf("%s %d units (ROI %s, confidence %s)", r.Action, r.Quantity, r.ExpectedROI, r.Confidence)
}
