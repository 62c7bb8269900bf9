package cron

import (
	"context"
	"fmt"

	"github.com/roomradar/roomradar-backend/internal/matching"
	"github.com/roomradar/roomradar-backend/pkg/logger"
)

type matchingRunner interface {
	RunMatching(ctx context.Context) (matching.Result, error)
}

// MatchingJobParams configure the matching job.
type MatchingJobParams struct {
	Logger  *logger.Logger
	Matcher matchingRunner
}

// NewMatchingJob wraps the matching service as a scheduled job.
func NewMatchingJob(params MatchingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Matcher == nil {
		return nil, fmt.Errorf("matching service required")
	}
	return &matchingJob{
		logg:    params.Logger,
		matcher: params.Matcher,
	}, nil
}

type matchingJob struct {
	logg    *logger.Logger
	matcher matchingRunner
}

func (j *matchingJob) Name() string { return "preference-matching" }

func (j *matchingJob) Run(ctx context.Context) error {
	result, err := j.matcher.RunMatching(ctx)
	if err != nil {
		return fmt.Errorf("matching run: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"preferences": result.Preferences,
		"matched":     result.Matched,
		"notified":    result.Notified,
		"deduped":     result.Deduped,
	})
	j.logg.Info(logCtx, "matching run complete")
	return nil
}
