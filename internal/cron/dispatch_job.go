package cron

import (
	"context"
	"fmt"

	"github.com/roomradar/roomradar-backend/internal/dispatch"
	"github.com/roomradar/roomradar-backend/pkg/logger"
)

type dispatchRunner interface {
	RunDispatch(ctx context.Context) (dispatch.Result, error)
}

// DispatchJobParams configure the dispatch job.
type DispatchJobParams struct {
	Logger     *logger.Logger
	Dispatcher dispatchRunner
}

// NewDispatchJob wraps the dispatch service as a scheduled job.
func NewDispatchJob(params DispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatch service required")
	}
	return &dispatchJob{
		logg:       params.Logger,
		dispatcher: params.Dispatcher,
	}, nil
}

type dispatchJob struct {
	logg       *logger.Logger
	dispatcher dispatchRunner
}

func (j *dispatchJob) Name() string { return "notification-dispatch" }

func (j *dispatchJob) Run(ctx context.Context) error {
	result, err := j.dispatcher.RunDispatch(ctx)
	if err != nil {
		return fmt.Errorf("dispatch run: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"batched": result.Batched,
		"users":   result.Users,
		"sent":    result.Sent,
		"failed":  result.Failed,
	})
	j.logg.Info(logCtx, "dispatch run complete")
	return nil
}
