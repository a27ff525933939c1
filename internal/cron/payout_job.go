package cron

import (
	"context"
	"fmt"

	"github.com/clubswap/clubswap-backend/internal/payouts"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type payoutProcessor interface {
	ProcessScheduledPayouts(ctx context.Context) (*payouts.Summary, error)
}

// NewPayoutJob builds the cron job that pays sellers for settled sales.
func NewPayoutJob(logg *logger.Logger, processor payoutProcessor) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if processor == nil {
		return nil, fmt.Errorf("payout processor required")
	}
	return &payoutJob{logg: logg, processor: processor}, nil
}

type payoutJob struct {
	logg      *logger.Logger
	processor payoutProcessor
}

func (j *payoutJob) Name() string { return "seller-payouts" }

func (j *payoutJob) Run(ctx context.Context) error {
	summary, err := j.processor.ProcessScheduledPayouts(ctx)
	if err != nil {
		return fmt.Errorf("process payouts: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"processed": summary.ProcessedCount,
		"failed":    len(summary.Failures),
		"total":     summary.TotalAmount.StringFixed(2),
	})
	j.logg.Info(logCtx, "payout run complete")
	return nil
}
