package cron

import (
	"context"
	"fmt"

	"github.com/roomradar/roomradar-backend/pkg/logger"
)

type requeuer interface {
	RequeueFailed(ctx context.Context) (int64, error)
}

// RequeueJobParams configure the requeue job.
type RequeueJobParams struct {
	Logger     *logger.Logger
	Dispatcher requeuer
}

// NewRequeueJob returns the job that moves retryable failed notifications
// back to pending. It runs after dispatch so a failure waits one full
// interval before the next attempt.
func NewRequeueJob(params RequeueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatch service required")
	}
	return &requeueJob{
		logg:       params.Logger,
		dispatcher: params.Dispatcher,
	}, nil
}

type requeueJob struct {
	logg       *logger.Logger
	dispatcher requeuer
}

func (j *requeueJob) Name() string { return "notification-requeue" }

func (j *requeueJob) Run(ctx context.Context) error {
	requeued, err := j.dispatcher.RequeueFailed(ctx)
	if err != nil {
		return fmt.Errorf("requeue run: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "requeued", requeued)
	j.logg.Info(logCtx, "requeue run complete")
	return nil
}
