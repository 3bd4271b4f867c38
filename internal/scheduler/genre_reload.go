package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/session"
)

// GenreSource reloads the genre taxonomy for the current language.
type GenreSource interface {
	ReloadGenres(ctx context.Context) error
}

// GenreReloader keeps genre names fresh on a ticker and on demand.
type GenreReloader struct {
	source        GenreSource
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewGenreReloader creates a reloader. Sending on manualTrigger forces a reload.
func NewGenreReloader(
	source GenreSource,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *GenreReloader {
	return &GenreReloader{
		source:        source,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads genres once, then keeps reloading in the background. A failed
// first load is retried on the next tick; a missing catalog token is not an
// error since the session loads genres when one is set.
func (gr *GenreReloader) Start(ctx context.Context) error {
	if gr.interval <= 0 {
		return fmt.Errorf("invalid genre reload interval %s", gr.interval)
	}
	if err := gr.Reload(ctx); err != nil {
		gr.logger.Warn("initial genre reload failed", logger.Error(err))
	}

	ticker := time.NewTicker(gr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gr.Reload(ctx); err != nil {
					gr.logger.Error("failed to reload genres", logger.Error(err))
				}
			case <-gr.manualTrigger:
				gr.logger.Info("manual genre reload triggered")
				if err := gr.Reload(ctx); err != nil {
					gr.logger.Error("failed to reload genres", logger.Error(err))
				}
			case <-gr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader.
func (gr *GenreReloader) Stop() {
	close(gr.stopCh)
}

// Reload fetches genre names once.
func (gr *GenreReloader) Reload(ctx context.Context) error {
	err := gr.source.ReloadGenres(ctx)
	if errors.Is(err, session.ErrNotReady) {
		gr.logger.Debug("skipping genre reload, no catalog token")
		return nil
	}
	if err != nil {
		return err
	}
	gr.logger.Debug("genres reloaded")
	return nil
}
