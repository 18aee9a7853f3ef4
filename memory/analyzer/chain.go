package analyzer

import (
	"context"

	"github.com/becomeliminal/teachable-go/core"
	"github.com/becomeliminal/teachable-go/memory"
)

// Chain tries each analyzer in order and returns the first candidate found.
type Chain []memory.Analyzer

// Analyze implements memory.Analyzer.
func (c Chain) Analyze(ctx context.Context, ex core.Exchange) (memory.Candidate, bool) {
	for _, a := range c {
		if cand, ok := a.Analyze(ctx, ex); ok {
			return cand, true
		}
	}
	return memory.Candidate{}, false
}
