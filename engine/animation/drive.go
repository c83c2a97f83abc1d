package animation

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// TickFunc is called once per tick. elapsed is measured on the clock from the start of driving,
// so a late tick sees the time that really passed. tick counts delivered ticks, starting at 0.
// Returning false ends driving.
type TickFunc func(elapsed time.Duration, tick int) bool

// Drive calls fn immediately and then once per interval until fn returns false or ctx is done.
// Ticks that arrive while fn is still running are coalesced, never queued, so a slow fn skips
// ahead in time instead of falling behind.
//
// Drive is the one periodic scheduler in the engine: the animation player runs on it, and so
// can a hand-written mutate-and-update loop.
//
// Parameters:
//   - ctx: stops driving when done
//   - clk: the time source, clock.New() for wall time
//   - interval: time between ticks
//   - fn: the tick callback
//
// Returns:
//   - error: ctx.Err() if the context ended driving, ErrInvalidInterval for a bad interval, otherwise nil
func Drive(ctx context.Context, clk clock.Clock, interval time.Duration, fn TickFunc) error {
	d, err := startDriver(clk, interval)
	if err != nil {
		return err
	}
	defer d.stop()
	if !fn(0, 0) {
		return nil
	}
	return d.run(ctx, fn)
}

// driver holds a started ticker. Starting is split from running so a caller can deliver
// the first tick synchronously and run the rest on another goroutine without losing time.
type driver struct {
	clk    clock.Clock
	ticker *clock.Ticker
	start  time.Time
}

func startDriver(clk clock.Clock, interval time.Duration) (*driver, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &driver{clk: clk, ticker: clk.Ticker(interval), start: clk.Now()}, nil
}

func (d *driver) run(ctx context.Context, fn TickFunc) error {
	tick := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.ticker.C:
			tick++
			if !fn(d.clk.Since(d.start), tick) {
				return nil
			}
		}
	}
}

func (d *driver) stop() {
	d.ticker.Stop()
}
