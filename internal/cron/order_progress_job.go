package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/feastlyapp/feastly-backend/pkg/logger"
)

const defaultProgressAfter = 2 * time.Minute

// orderAdvancer moves stale in-flight orders one step along the lifecycle.
type orderAdvancer interface {
	AdvanceStale(ctx context.Context, cutoff time.Time) (int, error)
}

// OrderProgressJobParams configure the order progress job.
type OrderProgressJobParams struct {
	Logger *logger.Logger
	Orders orderAdvancer
	After  time.Duration
}

// NewOrderProgressJob builds the job that simulates the kitchen and courier:
// any order sitting in a non-terminal status longer than After moves to the
// next status.
func NewOrderProgressJob(params OrderProgressJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	after := params.After
	if after <= 0 {
		after = defaultProgressAfter
	}
	return &orderProgressJob{
		logg:   params.Logger,
		orders: params.Orders,
		after:  after,
		now:    time.Now,
	}, nil
}

type orderProgressJob struct {
	logg   *logger.Logger
	orders orderAdvancer
	after  time.Duration
	now    func() time.Time
}

func (j *orderProgressJob) Name() string { return "order-progress" }

func (j *orderProgressJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.after)
	advanced, err := j.orders.AdvanceStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("order progress: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"orders_advanced": advanced,
	})
	j.logg.Info(logCtx, "order progress complete")
	return nil
}
