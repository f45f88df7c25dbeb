package cron

import "context"

// Job is a unit of scheduled work. The worker runs every registered job once
// per cycle, in registration order, while it holds the shared Redis lock.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs the worker executes each cycle.
type Registry struct {
	entries []Job
}

// NewRegistry builds a registry from the provided jobs, skipping nil entries.
func NewRegistry(jobs ...Job) *Registry {
	reg := &Registry{}
	for _, job := range jobs {
		reg.Register(job)
	}
	return reg
}

// Register appends a job. Nil jobs are ignored so jobs that depend on
// optional infrastructure can be wired conditionally.
func (reg *Registry) Register(job Job) {
	if job == nil {
		return
	}
	reg.entries = append(reg.entries, job)
}

// Jobs returns a copy of the registered jobs in registration order.
func (reg *Registry) Jobs() []Job {
	out := make([]Job, len(reg.entries))
	copy(out, reg.entries)
	return out
}
