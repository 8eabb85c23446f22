package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval matches the grading provider's request quota.
const DefaultMinInterval = time.Second

// IntervalPacer lets at most one call through per interval.
type IntervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer builds a pacer enforcing a minimum spacing between calls.
func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return &IntervalPacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call may proceed or ctx is done.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
