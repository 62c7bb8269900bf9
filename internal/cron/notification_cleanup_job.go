package cron

import (
	"context"
	"fmt"

	"github.com/roomradar/roomradar-backend/pkg/logger"
)

type sentCleaner interface {
	CleanupSent(ctx context.Context) (int64, error)
}

// NotificationCleanupJobParams configure the retention job.
type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Dispatcher sentCleaner
}

// NewNotificationCleanupJob returns the job that prunes sent notifications
// past the retention window. Pending and failed rows are never touched.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatch service required")
	}
	return &notificationCleanupJob{
		logg:       params.Logger,
		dispatcher: params.Dispatcher,
	}, nil
}

type notificationCleanupJob struct {
	logg       *logger.Logger
	dispatcher sentCleaner
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.dispatcher.CleanupSent(ctx)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_deleted", deleted)
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}
