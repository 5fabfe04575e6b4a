package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor_ConditionMetByBackgroundWorker(t *testing.T) {
	var ticks int32

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				atomic.AddInt32(&ticks, 1)
			}
		}
	}()

	var polls int
	require.NoError(t, WaitFor(time.Second, 5*time.Millisecond, func() bool {
		polls++
		return atomic.LoadInt32(&ticks) >= 2
	}))
	assert.Greater(t, polls, 1)
}

func TestWaitFor_Timeout(t *testing.T) {
	start := time.Now()
	err := WaitFor(30*time.Millisecond, 5*time.Millisecond, func() bool {
		return false
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "30ms")
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWaitFor_IntervalLongerThanTimeout(t *testing.T) {
	var polled bool
	err := WaitFor(time.Millisecond, 5*time.Millisecond, func() bool {
		polled = true
		return true
	})
	require.Error(t, err)
	assert.False(t, polled)
}
