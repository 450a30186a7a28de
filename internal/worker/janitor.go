// Package worker содержит фоновые задачи сервиса.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

// Janitor periodically removes idempotency keys older than ttl.
type Janitor struct {
	tasks    repo.TaskRepository
	logger   *zap.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time

	wg   sync.WaitGroup
	stop chan struct{}
}

func NewJanitor(tasks repo.TaskRepository, logger *zap.Logger, interval, ttl time.Duration) *Janitor {
	return &Janitor{
		tasks:    tasks,
		logger:   logger,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("Starting idempotency janitor",
		zap.Duration("interval", j.interval),
		zap.Duration("ttl", j.ttl),
	)

	j.wg.Add(1)
	go j.loop(ctx)
}

// Stop ждет завершения текущего прохода.
func (j *Janitor) Stop() {
	j.logger.Info("Stopping idempotency janitor...")
	close(j.stop)
	j.wg.Wait()
	j.logger.Info("Idempotency janitor stopped")
}

func (j *Janitor) loop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.logger.Error("janitor error", zap.Error(err))
			}
		}
	}
}

// RunOnce deletes expired keys and returns how many were removed.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	removed, err := j.tasks.PruneIdempotencyKeys(ctx, j.now().Add(-j.ttl))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		j.logger.Info("Pruned idempotency keys", zap.Int64("removed", removed))
	}
	return removed, nil
}
