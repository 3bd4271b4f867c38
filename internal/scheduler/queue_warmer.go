package scheduler

import (
	"context"
	"time"

	"github.com/tofixx/mymovieflip/internal/logger"
)

// Warmer tops the swipe buffer up.
type Warmer interface {
	WarmQueue(ctx context.Context) error
}

// QueueWarmer refills the swipe queue while the user is idle so the next
// card does not wait on the catalog.
type QueueWarmer struct {
	warmer   Warmer
	logger   logger.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
}

func NewQueueWarmer(w Warmer, log logger.Logger, interval, timeout time.Duration) *QueueWarmer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QueueWarmer{
		warmer:   w,
		logger:   log,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the warmer on a ticker. Failures are logged and retried on the next tick.
func (qw *QueueWarmer) Start(ctx context.Context) error {
	ticker := time.NewTicker(qw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				qw.Warm(ctx)
			case <-qw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the warmer.
func (qw *QueueWarmer) Stop() {
	close(qw.stopCh)
}

// Warm runs one pass.
func (qw *QueueWarmer) Warm(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, qw.timeout)
	defer cancel()

	started := time.Now()
	if err := qw.warmer.WarmQueue(ctx); err != nil {
		qw.logger.Warn("queue warm-up failed", logger.Error(err))
		return
	}
	qw.logger.Debug("queue warm-up done", logger.Duration("took", time.Since(started)))
}
