package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/clubswap/clubswap-backend/pkg/logger"
)

const defaultWantedMaxAge = 60 * 24 * time.Hour

type wantedCloser interface {
	CloseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewWantedCleanupJob builds the cron job that closes stale wanted
// listings. A non-positive maxAge falls back to the default window.
func NewWantedCleanupJob(logg *logger.Logger, wanted wantedCloser, maxAge time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if wanted == nil {
		return nil, fmt.Errorf("wanted service required")
	}
	if maxAge <= 0 {
		maxAge = defaultWantedMaxAge
	}
	return &wantedCleanupJob{logg: logg, wanted: wanted, maxAge: maxAge}, nil
}

type wantedCleanupJob struct {
	logg   *logger.Logger
	wanted wantedCloser
	maxAge time.Duration
}

func (j *wantedCleanupJob) Name() string { return "wanted-cleanup" }

func (j *wantedCleanupJob) Run(ctx context.Context) error {
	closed, err := j.wanted.CloseStale(ctx, j.maxAge)
	if err != nil {
		return fmt.Errorf("close stale wanted listings: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "closed", closed)
	j.logg.Info(logCtx, "wanted cleanup complete")
	return nil
}
