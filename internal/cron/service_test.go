package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/roomradar/roomradar-backend/pkg/logger"
)

type fakeLock struct {
	locked   bool
	acquires int
	releases int
	err      error
}

func (l *fakeLock) Acquire(ctx context.Context) (bool, error) {
	l.acquires++
	if l.err != nil {
		return false, l.err
	}
	return l.locked, nil
}

func (l *fakeLock) Release(ctx context.Context) error {
	l.releases++
	return nil
}

func newCronLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunsJobsWhenLocked(t *testing.T) {
	job := &namedJob{name: "a"}
	lock := &fakeLock{locked: true}
	svc, err := NewService(ServiceParams{
		Logger:   newCronLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected 1 run, got %d", job.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestServiceSkipsCycleWhenLockHeldElsewhere(t *testing.T) {
	job := &namedJob{name: "a"}
	lock := &fakeLock{locked: false}
	svc, err := NewService(ServiceParams{
		Logger:   newCronLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs, got %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("lock released without being held")
	}
}

func TestServiceContinuesPastFailingJob(t *testing.T) {
	failing := &namedJob{name: "failing", err: errors.New("boom")}
	next := &namedJob{name: "next"}
	svc, err := NewService(ServiceParams{
		Logger:   newCronLogger(),
		Registry: NewRegistry(failing, next),
		Lock:     &fakeLock{locked: true},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if next.runs != 1 {
		t.Fatalf("expected subsequent job to run, got %d runs", next.runs)
	}
}

func TestServicePropagatesLockErrors(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Logger: newCronLogger(),
		Lock:   &fakeLock{err: errors.New("redis down")},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
