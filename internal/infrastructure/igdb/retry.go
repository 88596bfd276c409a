package igdb

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// BackoffConfig bounds how the client waits out 429 responses.
type BackoffConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
}

// DefaultBackoff returns the 429 policy used in production.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxAttempts:  5,
		InitialDelay: 400 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Factor:       2,
	}
}

func (b BackoffConfig) withDefaults() BackoffConfig {
	def := DefaultBackoff()
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = def.MaxAttempts
	}
	if b.InitialDelay <= 0 {
		b.InitialDelay = def.InitialDelay
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = def.MaxDelay
	}
	if b.MaxDelay < b.InitialDelay {
		b.MaxDelay = b.InitialDelay
	}
	if b.Factor < 1 {
		b.Factor = def.Factor
	}
	return b
}

// delay returns the wait before retry number attempt (1-based). A Retry-After
// header in seconds raises the delay but never past MaxDelay.
func (b BackoffConfig) delay(attempt int, retryAfter string) time.Duration {
	d := float64(b.InitialDelay) * math.Pow(b.Factor, float64(attempt-1))
	if d > float64(b.MaxDelay) {
		d = float64(b.MaxDelay)
	}
	delay := time.Duration(d)

	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs > 0 {
		if hinted := time.Duration(secs) * time.Second; hinted > delay {
			delay = hinted
		}
	}
	if delay > b.MaxDelay {
		delay = b.MaxDelay
	}
	return delay
}

func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
