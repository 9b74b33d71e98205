package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one cache warm step run by the sync worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Dependent is implemented by jobs that only make sense after other jobs
// succeeded in the same cycle.
type Dependent interface {
	After() []string
}

// Registry holds warm jobs in run order.
type Registry struct {
	jobs   []Job
	byName map[string]Job
}

// NewRegistry registers jobs in order; prerequisites must come first.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register appends a job. Nil jobs are ignored.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if r.byName == nil {
		r.byName = make(map[string]Job)
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("job %q registered twice", name)
	}
	for _, dep := range prerequisites(job) {
		if _, ok := r.byName[dep]; !ok {
			return fmt.Errorf("job %q requires %q to be registered first", name, dep)
		}
	}
	r.byName[name] = job
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs in run order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}

func prerequisites(job Job) []string {
	if dep, ok := job.(Dependent); ok {
		return dep.After()
	}
	return nil
}
