package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
)

var (
	ErrQueueFull  = errors.New("ingest queue is full")
	ErrPoolClosed = errors.New("ingest pool is shut down")
)

// Job is one unit of work for the pool.
type Job struct {
	ID  string
	Run func(ctx context.Context)
}

type queuedJob struct {
	Job
	ctx context.Context
}

// Pool runs jobs on a fixed number of workers fed by a bounded queue. Each job
// gets its own cancelable context, registered with the JobManager until it ends.
type Pool struct {
	jobs   *JobManager
	queue  chan queuedJob
	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	log    *logger.Logger
}

// NewPool starts workerCount workers. Job contexts derive from ctx.
func NewPool(ctx context.Context, workerCount, queueSize int, jobs *JobManager, log *logger.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if jobs == nil {
		jobs = NewJobManager()
	}
	if log == nil {
		log = logger.Nop()
	}
	base, stop := context.WithCancel(ctx)
	p := &Pool{
		jobs:  jobs,
		queue: make(chan queuedJob, queueSize),
		base:  base,
		stop:  stop,
		log:   log.With("component", "IngestPool"),
	}
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		p.run(job)
	}
}

func (p *Pool) run(job queuedJob) {
	defer p.jobs.Unregister(job.ID)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("ingest job panicked", "uploadId", job.ID, "panic", r)
		}
	}()
	job.Run(job.ctx)
}

// Submit enqueues job without blocking. The job can be cancelled through the
// JobManager from the moment Submit returns.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	ctx, cancel := context.WithCancel(p.base)
	p.jobs.Register(job.ID, cancel)
	select {
	case p.queue <- queuedJob{Job: job, ctx: ctx}:
		return nil
	default:
		p.jobs.Unregister(job.ID)
		cancel()
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued and running jobs to
// finish. If ctx expires first, the remaining jobs are cancelled and Shutdown
// waits for them to observe it.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.stop()
		return nil
	case <-ctx.Done():
		n := p.jobs.CancelAll()
		p.stop()
		p.log.Warn("ingest shutdown deadline reached, cancelled jobs", "count", n)
		<-done
		return ctx.Err()
	}
}
