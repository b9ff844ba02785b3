// Package concurrency runs background jobs on a fixed set of workers.
package concurrency

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Job is a named unit of background work. Its error is logged, never returned
// to the submitter.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool is a bounded worker pool: Submit blocks once the queue is full.
type Pool struct {
	jobs    chan Job
	timeout time.Duration
	logger  log.FieldLogger

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewPool(workers, queue int, timeout time.Duration, logger log.FieldLogger) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs:    make(chan Job, queue),
		timeout: timeout,
		logger:  logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func(idx int) {
			defer p.wg.Done()
			p.work(idx)
		}(i)
	}
	return p
}

func (p *Pool) work(idx int) {
	for job := range p.jobs {
		p.run(idx, job)
	}
}

func (p *Pool) run(idx int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	entry := p.logger.WithFields(log.Fields{"job": job.Name, "worker": idx})
	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", r).Error("job panicked")
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		entry.WithError(err).Warn("job failed")
		return
	}
	entry.WithField("duration", time.Since(start)).Debug("job done")
}

// Submit queues job. It returns ErrPoolClosed after Shutdown and ctx.Err()
// if ctx ends while waiting for queue space.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
