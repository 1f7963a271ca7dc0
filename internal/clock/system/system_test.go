package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestClockNowUTC ensures the clock returns UTC timestamps.
func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.After(before) && got.Before(after), "got %v", got)
}

func TestSteppingClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	clk := NewStepping(start, time.Second)
	assert.Equal(t, start, clk.Now())
	assert.Equal(t, start.Add(time.Second), clk.Now())
	assert.Equal(t, start.Add(2*time.Second), clk.Now())
}
