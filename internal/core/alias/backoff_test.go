package alias

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchedule 测试默认退避序列
func TestSchedule(t *testing.T) {
	ms := time.Millisecond
	waits := Schedule(32*ms, 8000*ms)
	assert.Equal(t, []time.Duration{32 * ms, 64 * ms, 128 * ms, 256 * ms, 512 * ms, 1024 * ms, 2048 * ms, 4096 * ms}, waits)

	var total time.Duration
	for _, d := range waits {
		total += d
	}
	assert.Equal(t, 8160*ms, total)

	assert.Nil(t, Schedule(0, time.Second))
	assert.Equal(t, []time.Duration{time.Second}, Schedule(time.Second, time.Second))
}

// TestPoll_ReadyAfterWaits 测试等待若干次后就绪
func TestPoll_ReadyAfterWaits(t *testing.T) {
	mock := clock.NewMock()
	checks := 0
	ready := func() bool {
		checks++
		return checks == 3
	}

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := poll(context.Background(), mock, Schedule(32*time.Millisecond, 8*time.Second), ready)
		done <- result{ok, err}
	}()

	var res result
loop:
	for {
		select {
		case res = <-done:
			break loop
		default:
			mock.Add(16 * time.Millisecond)
		}
	}
	require.NoError(t, res.err)
	assert.True(t, res.ok)
	assert.Equal(t, 3, checks)
}

// TestPoll_Cancelled 测试等待期间取消
func TestPoll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := poll(ctx, clock.NewMock(), []time.Duration{time.Hour}, func() bool { return false })
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
