package cron

import (
	"context"
	"time"
)

// Job is one scheduled unit of background work. Due gates execution on the
// shared worker tick so each job keeps its own cadence.
type Job interface {
	Name() string
	Due(now, last time.Time) bool
	Run(ctx context.Context, now time.Time) error
}

// Registry holds the jobs a worker executes, in registration order.
type Registry struct {
	jobs []Job
}

// NewRegistry returns an empty job registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a job. Nil jobs are ignored.
func (r *Registry) Register(jobs ...Job) {
	for _, job := range jobs {
		if job != nil {
			r.jobs = append(r.jobs, job)
		}
	}
}

// Jobs returns the registered jobs.
func (r *Registry) Jobs() []Job {
	return r.jobs
}
