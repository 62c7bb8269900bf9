package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
	runs int
	err  error
}

func (j *namedJob) Name() string { return j.name }

func (j *namedJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &namedJob{name: "a"}, nil)
	registry.Register(nil)
	registry.Register(&namedJob{name: "b"})

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Name() != "a" || jobs[1].Name() != "b" {
		t.Fatalf("unexpected job order: %s, %s", jobs[0].Name(), jobs[1].Name())
	}
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(&namedJob{name: "a"})
	jobs := registry.Jobs()
	jobs[0] = &namedJob{name: "mutated"}

	if registry.Jobs()[0].Name() != "a" {
		t.Fatal("registry slice was mutated through the returned copy")
	}
}
