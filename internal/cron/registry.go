package cron

import "context"

// Job is one unit of canteen maintenance work, such as the stock
// reconciliation pass. Run must be safe to call repeatedly.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the worker's job set in registration order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the provided jobs.
// Nil jobs are dropped so optional wiring can pass them unconditionally.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds a job; nil is ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
