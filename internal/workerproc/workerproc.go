// Package workerproc runs generation jobs one at a time on a background
// goroutine and tracks their status in memory.
package workerproc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/service"
)

// Job statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	defaultQueueSize = 8
	defaultKeepJobs  = 100
)

var (
	// ErrQueueFull indicates the job buffer has no free slot.
	ErrQueueFull = errors.New("generation queue is full")
	// ErrJobNotFound indicates an unknown job id.
	ErrJobNotFound = errors.New("job not found")
	// ErrStopped indicates the worker no longer accepts jobs.
	ErrStopped = errors.New("worker stopped")
)

// ErrProcess wraps a generation failure with its job id.
type ErrProcess struct {
	JobID string
	Err   error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process job " + e.JobID
	}
	return "process job " + e.JobID + ": " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Generator is the pipeline a job runs.
type Generator interface {
	Generate(ctx context.Context, in service.GenerateInput) (service.Result, error)
}

// Job is a snapshot of one generation request.
type Job struct {
	ID         string                `json:"id"`
	Status     string                `json:"status"`
	Input      service.GenerateInput `json:"input"`
	Result     *service.Result       `json:"result,omitempty"`
	Error      string                `json:"error,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	StartedAt  *time.Time            `json:"startedAt,omitempty"`
	FinishedAt *time.Time            `json:"finishedAt,omitempty"`
}

// Finished reports whether the job reached a terminal status.
func (j Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Worker owns the job queue.
type Worker struct {
	gen     Generator
	queue   chan string
	timeout time.Duration
	keep    int

	mu       sync.Mutex
	jobs     map[string]*Job
	order    []string
	watchers map[string][]chan Job
	stopped  bool
}

// Option tunes a Worker.
type Option func(*Worker)

// WithQueueSize sets how many jobs may wait behind the running one.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.queue = make(chan string, n)
		}
	}
}

// WithJobTimeout bounds each generation.
func WithJobTimeout(d time.Duration) Option {
	return func(w *Worker) { w.timeout = d }
}

// WithKeepJobs sets how many finished jobs stay queryable.
func WithKeepJobs(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.keep = n
		}
	}
}

// New constructs a Worker. Call Run to start processing.
func New(gen Generator, opts ...Option) *Worker {
	w := &Worker{
		gen:   gen,
		queue: make(chan string, defaultQueueSize),
		keep:  defaultKeepJobs,
		jobs:  make(map[string]*Job),

		watchers: make(map[string][]chan Job),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit queues a generation and returns its initial snapshot.
func (w *Worker) Submit(in service.GenerateInput) (Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return Job{}, ErrStopped
	}

	job := &Job{ID: uuid.NewString(), Status: StatusQueued, Input: in, CreatedAt: time.Now().UTC()}
	select {
	case w.queue <- job.ID:
	default:
		return Job{}, ErrQueueFull
	}
	w.jobs[job.ID] = job
	w.order = append(w.order, job.ID)
	w.prune()
	telemetry.Info("worker.job_queued", map[string]any{"job_id": job.ID, "company": in.Company})
	return *job, nil
}

// Get returns a snapshot of a job.
func (w *Worker) Get(id string) (Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job, ok := w.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// Watch returns a channel that receives the job's current snapshot and then
// one snapshot per status change. The channel is closed once the job
// finishes; cancel releases the subscription early.
func (w *Worker) Watch(id string) (<-chan Job, func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job, ok := w.jobs[id]
	if !ok {
		return nil, nil, ErrJobNotFound
	}
	ch := make(chan Job, 4)
	ch <- *job
	if job.Finished() {
		close(ch)
		return ch, func() {}, nil
	}
	w.watchers[id] = append(w.watchers[id], ch)
	return ch, func() { w.unwatch(id, ch) }, nil
}

func (w *Worker) unwatch(id string, ch chan Job) {
	w.mu.Lock()
	defer w.mu.Unlock()
	list := w.watchers[id]
	for i, candidate := range list {
		if candidate != ch {
			continue
		}
		close(ch)
		list = append(list[:i], list[i+1:]...)
		if len(list) == 0 {
			delete(w.watchers, id)
		} else {
			w.watchers[id] = list
		}
		return
	}
}

// notify pushes a snapshot to watchers without blocking. Callers hold w.mu.
func (w *Worker) notify(job *Job) {
	for _, ch := range w.watchers[job.ID] {
		select {
		case ch <- *job:
		default:
		}
		if job.Finished() {
			close(ch)
		}
	}
	if job.Finished() {
		delete(w.watchers, job.ID)
	}
}

// Run processes jobs until ctx is cancelled. Jobs still queued at that point
// are marked failed.
func (w *Worker) Run(ctx context.Context) {
	telemetry.Info("worker.started", map[string]any{"queue_size": cap(w.queue)})
	for {
		select {
		case <-ctx.Done():
			w.drain(ctx.Err())
			telemetry.Info("worker.stopped", nil)
			return
		case id := <-w.queue:
			w.process(ctx, id)
		}
	}
}

func (w *Worker) process(ctx context.Context, id string) {
	job, ok := w.start(id)
	if !ok {
		return
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	result, err := w.gen.Generate(ctx, job.Input)
	if err != nil {
		err = ErrProcess{JobID: id, Err: err}
		telemetry.Error("worker.job_failed", map[string]any{"job_id": id, "err": err})
	} else {
		telemetry.Info("worker.job_completed", map[string]any{"job_id": id, "record_id": result.ID})
	}
	w.finish(id, result, err)
}

func (w *Worker) start(id string) (Job, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job, ok := w.jobs[id]
	if !ok {
		return Job{}, false
	}
	now := time.Now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &now
	w.notify(job)
	return *job, true
}

func (w *Worker) finish(id string, result service.Result, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job, ok := w.jobs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusCompleted
		job.Result = &result
	}
	w.notify(job)
}

func (w *Worker) drain(cause error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for {
		select {
		case id := <-w.queue:
			if job, ok := w.jobs[id]; ok {
				now := time.Now().UTC()
				job.Status = StatusFailed
				job.Error = cause.Error()
				job.FinishedAt = &now
				w.notify(job)
			}
		default:
			return
		}
	}
}

// prune drops the oldest finished jobs beyond the retention limit. Callers
// hold w.mu.
func (w *Worker) prune() {
	excess := len(w.order) - w.keep
	if excess <= 0 {
		return
	}
	kept := w.order[:0]
	for _, id := range w.order {
		job := w.jobs[id]
		if excess > 0 && job.Finished() {
			delete(w.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	w.order = kept
}
