package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobclip-engine/internal/logging"
)

func TestEveryRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		Every(ctx, time.Hour, "test", logging.NewNop(), func(context.Context) error {
			runs.Add(1)
			return errors.New("logged, not fatal")
		})
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on cancel")
	}
}

func TestEveryTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	go Every(ctx, 10*time.Millisecond, "test", logging.NewNop(), func(context.Context) error {
		runs.Add(1)
		return nil
	})

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}
