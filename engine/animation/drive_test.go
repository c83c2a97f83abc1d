package animation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrive_InvalidInterval(t *testing.T) {
	err := Drive(context.Background(), clock.NewMock(), 0, func(time.Duration, int) bool { return true })
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestDrive_StopsWhenFnReturnsFalse(t *testing.T) {
	calls := 0
	err := Drive(context.Background(), clock.NewMock(), interval, func(elapsed time.Duration, tick int) bool {
		calls++
		assert.Zero(t, elapsed)
		assert.Zero(t, tick)
		return false
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDrive_TicksUntilCancelled(t *testing.T) {
	mock := clock.NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int64
	var lastElapsed atomic.Int64

	errc := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		errc <- Drive(ctx, mock, interval, func(elapsed time.Duration, tick int) bool {
			if tick == 0 {
				close(started)
			}
			ticks.Store(int64(tick))
			lastElapsed.Store(int64(elapsed))
			return true
		})
	}()
	<-started

	for want := int64(1); want <= 3; want++ {
		mock.Add(interval)
		require.Eventually(t, func() bool { return ticks.Load() == want }, waitFor, poll)
	}
	assert.Equal(t, int64(3*interval), lastElapsed.Load())

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("drive did not return")
	}
}
