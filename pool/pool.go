// Package pool runs a flat set of independent jobs with a bounded number of
// workers and keeps a per-job terminal state, so one job's failure never
// touches the others.
package pool

import (
	"context"
	"sync"
)

type jobState int

const (
	pending jobState = iota
	running
	succeeded
	failed
)

// Job is one unit of work, identified so its outcome can be reported.
type Job interface {
	ID() string
	Run(ctx context.Context) error
}

type Engine struct {
	jobs  []Job
	state map[string]jobState
	errs  map[string]error
	mu    sync.Mutex
	wg    sync.WaitGroup
}

func NewEngine(jobs []Job) *Engine {
	state := make(map[string]jobState, len(jobs))
	for _, j := range jobs {
		state[j.ID()] = pending
	}
	return &Engine{
		jobs:  jobs,
		state: state,
		errs:  make(map[string]error, len(jobs)),
	}
}

// Run executes every job, at most workers at a time, and blocks until all
// have finished. The returned map holds an entry per failed job. Once ctx is
// cancelled no further job is dispatched; the undispatched ones are recorded
// as failed with the context error. Jobs are expected to honor ctx
// themselves; Run does not abandon a job that ignores cancellation.
func (e *Engine) Run(ctx context.Context, workers int) map[string]error {
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	for _, job := range e.jobs {
		sem <- struct{}{}
		// Checked after acquiring a slot: when the pool is saturated, a
		// cancellation from a running job is seen before the next dispatch.
		if err := ctx.Err(); err != nil {
			<-sem
			e.setError(job.ID(), err)
			e.setState(job.ID(), failed)
			continue
		}
		e.wg.Add(1)
		go func(j Job) {
			defer func() { <-sem; e.wg.Done() }()

			e.setState(j.ID(), running)
			if err := j.Run(ctx); err != nil {
				e.setError(j.ID(), err)
				e.setState(j.ID(), failed)
				return
			}
			e.setState(j.ID(), succeeded)
		}(job)
	}

	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]error, len(e.errs))
	for id, err := range e.errs {
		out[id] = err
	}
	return out
}

func (e *Engine) setState(id string, s jobState) {
	e.mu.Lock()
	e.state[id] = s
	e.mu.Unlock()
}

func (e *Engine) setError(id string, err error) {
	e.mu.Lock()
	e.errs[id] = err
	e.mu.Unlock()
}
