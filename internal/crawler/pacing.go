package crawler

import (
	"context"
	"time"
)

// Default multipliers applied to the base delay between sites and between queries.
const (
	DefaultSiteDelayFactor  = 2
	DefaultQueryDelayFactor = 3
)

// Pacing is the politeness schedule for a run: how long to wait after each page
// visit, between sites and between search queries.
type Pacing struct {
	Page  time.Duration
	Site  time.Duration
	Query time.Duration
}

// NewPacing derives a schedule from the per-page delay and the site/query factors.
func NewPacing(delay time.Duration, siteFactor, queryFactor float64) Pacing {
	if delay < 0 {
		delay = 0
	}
	return Pacing{
		Page:  delay,
		Site:  scale(delay, siteFactor),
		Query: scale(delay, queryFactor),
	}
}

func scale(d time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return 0
	}
	return time.Duration(float64(d) * factor)
}

// TimerPacer sleeps for the requested delay or until the context is done.
type TimerPacer struct{}

// Pause blocks for delay unless ctx finishes first.
func (TimerPacer) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// NoopPacer never waits.
type NoopPacer struct{}

// Pause returns immediately.
func (NoopPacer) Pause(context.Context, time.Duration) {}
