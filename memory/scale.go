package memory

import (
	"fmt"
	"math"
	"strings"
)

// Scale selects how a recall threshold is interpreted.
type Scale int

const (
	// ScaleSimilarity treats the threshold as a minimum cosine similarity in
	// [-1, 1]. Raising it never admits more memos.
	ScaleSimilarity Scale = iota

	// ScaleDistance treats the threshold as a maximum squared L2 distance
	// between unit vectors, in [0, 4]. Raising it admits more memos.
	ScaleDistance
)

func (s Scale) String() string {
	switch s {
	case ScaleSimilarity:
		return "similarity"
	case ScaleDistance:
		return "distance"
	default:
		return fmt.Sprintf("scale(%d)", int(s))
	}
}

// ParseScale parses "similarity" (or "cosine") and "distance" (or "l2").
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "similarity", "cosine":
		return ScaleSimilarity, nil
	case "distance", "l2":
		return ScaleDistance, nil
	default:
		return 0, &ConfigurationError{Field: "scale", Reason: fmt.Sprintf("unknown scale %q", s)}
	}
}

// Validate checks that threshold lies in the scale's range.
func (s Scale) Validate(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return &ConfigurationError{Field: "recall threshold", Reason: "must be a finite number"}
	}
	switch s {
	case ScaleSimilarity:
		if threshold < -1 || threshold > 1 {
			return &ConfigurationError{Field: "recall threshold", Reason: fmt.Sprintf("%g outside similarity range [-1, 1]", threshold)}
		}
	case ScaleDistance:
		if threshold < 0 || threshold > 4 {
			return &ConfigurationError{Field: "recall threshold", Reason: fmt.Sprintf("%g outside distance range [0, 4]", threshold)}
		}
	default:
		return &ConfigurationError{Field: "scale", Reason: s.String()}
	}
	return nil
}

// MinSimilarity converts threshold into the minimum cosine similarity a memo
// must reach. For unit vectors ||a-b||² = 2 - 2·cos(a, b).
func (s Scale) MinSimilarity(threshold float64) float64 {
	if s == ScaleDistance {
		return 1 - threshold/2
	}
	return threshold
}
