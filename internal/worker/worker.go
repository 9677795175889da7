package worker

import (
	"context"
	"log/slog"
	"sync"
)

// ProcessFunc handles one job. A returned error is reported to the pool's
// error handler and never stops the worker.
type ProcessFunc[J any] func(ctx context.Context, job J) error

type ErrorFunc[J any] func(job J, err error)

type Pool[J any] struct {
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	onError    ErrorFunc[J]
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

func NewPool[J any](numWorkers, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Pool[J]{
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
		onError: func(job J, err error) {
			slog.Warn("worker job failed", "error", err)
		},
	}
}

// OnError replaces the default handler, which logs at warn. Call before Start.
func (p *Pool[J]) OnError(fn ErrorFunc[J]) {
	p.onError = fn
}

func (p *Pool[J]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool[J]) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil && p.onError != nil {
				p.onError(job, err)
			}
		}
	}
}

// Submit queues job, blocking while the buffer is full. It returns the
// context error if ctx ends first.
func (p *Pool[J]) Submit(ctx context.Context, job J) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (p *Pool[J]) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
