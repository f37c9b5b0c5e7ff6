package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every tick until ctx is done.
// Task errors are logged and the loop keeps going.
func Every(ctx context.Context, interval time.Duration, name string, log *zap.Logger, task Task) {
	if log == nil {
		log = zap.NewNop()
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		if err := task(ctx); err != nil {
			log.Error("scheduled task failed", zap.String("task", name), zap.Error(err))
		}
	}

	run()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
