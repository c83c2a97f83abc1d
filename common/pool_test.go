package common

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParallelRange_CoversEveryIndex(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
	}{
		{"empty", 0, 4},
		{"serial", 10, 1},
		{"single element", 1, 8},
		{"uneven", 1001, 7},
		{"more parts than elements", 5, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]atomic.Int32, tt.n)
			ParallelRange(tt.n, tt.parts, func(from, to int) {
				for i := from; i < to; i++ {
					hits[i].Add(1)
				}
			})
			for i := range hits {
				assert.Equal(t, int32(1), hits[i].Load(), "index %d", i)
			}
		})
	}
}

func TestParallelRange_ReusesWorkers(t *testing.T) {
	ParallelRange(64, 8, func(int, int) {})
	before := runtime.NumGoroutine()

	for range 50 {
		ParallelRange(64, 8, func(int, int) {})
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
	assert.Same(t, WorkerPool(), WorkerPool())
}
