package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	registry, err := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &fakeLock{},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx := context.Background()
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if success, ok := jobs[0].(*testJob); ok {
		if success.runs != 1 {
			t.Fatalf("expected success job to run once, ran %d", success.runs)
		}
	} else {
		t.Fatalf("first job type mismatch")
	}
	if failure, ok := jobs[1].(*testJob); ok {
		if failure.runs != 1 {
			t.Fatalf("expected failure job to run once, ran %d", failure.runs)
		}
	} else {
		t.Fatalf("second job type mismatch")
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "sync-test"})
	job := &testJob{name: "warm"}
	registry, err := NewRegistry(job)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &fakeLock{acquired: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "sync-test"})}); err == nil {
		t.Fatal("expected missing lock error")
	}
}

type dependentJob struct {
	testJob
	after []string
}

func (d *dependentJob) After() []string { return d.after }

func TestServiceRunCycleSkipsJobsBehindFailedPrerequisite(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "sync-test"})
	stores := &testJob{name: "stores", err: errors.New("remote down")}
	products := &dependentJob{testJob: testJob{name: "products"}, after: []string{"stores"}}
	registry, err := NewRegistry(stores, products)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{Logger: logg, Registry: registry, Lock: &fakeLock{}})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if stores.runs != 1 {
		t.Fatalf("expected stores job to run once, ran %d", stores.runs)
	}
	if products.runs != 0 {
		t.Fatalf("expected products job to be skipped, ran %d", products.runs)
	}
}
