// Package worker runs blocking calls on a fixed set of goroutines that are each pinned to
// their own OS thread, so slow engine I/O never runs on a caller's goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	// ErrStopped is returned for jobs submitted after, or still queued at, Stop.
	ErrStopped = errors.New("worker pool stopped")
	// ErrNotAccepted is returned when ctx ends before any worker accepted the job.
	ErrNotAccepted = errors.New("job not accepted by worker pool")
)

// PanicError carries a panic recovered from a job.
type PanicError struct {
	Value any
	Stack []byte
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("panic in worker: %v", pe.Value)
}

type job struct {
	fn   func() error
	done chan error
}

// Pool is a fixed size pool of OS thread bound workers.
type Pool struct {
	jobs chan job
	quit chan struct{}
	size int

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	once    sync.Once
}

// New starts a pool with size workers and room for queue pending jobs.
func New(size, queue int) *Pool {
	if size < 1 {
		size = 1
	}
	if queue < 0 {
		queue = 0
	}
	p := &Pool{
		jobs: make(chan job, queue),
		quit: make(chan struct{}),
		size: size,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) work() {
	defer p.wg.Done()
	// never unlocked: the thread exits with the goroutine
	runtime.LockOSThread()
	for {
		// quit wins over queued jobs, those are failed by Stop
		select {
		case <-p.quit:
			return
		default:
		}
		select {
		case <-p.quit:
			return
		case j := <-p.jobs:
			j.done <- run(j.fn)
		}
	}
}

func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Do queues fn and waits for its result.
//
// ctx only bounds the wait for a free slot. Once a worker has accepted fn, Do waits for it
// to finish no matter what happens to ctx.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	j := job{fn: fn, done: make(chan error, 1)}

	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return ErrStopped
	}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return fmt.Errorf("%w: %w", ErrNotAccepted, ctx.Err())
	}

	return <-j.done
}

// Go queues fn without waiting for it. If the pool is stopped fn runs on a new goroutine,
// so fn is never dropped.
func (p *Pool) Go(fn func()) {
	wrapped := func() error {
		fn()
		return nil
	}
	go func() {
		if err := p.Do(context.Background(), wrapped); errors.Is(err, ErrStopped) {
			_ = run(wrapped)
		}
	}()
}

// Stop waits for running jobs, fails every job still queued with [ErrStopped], and
// releases the workers. Stop is safe to call more than once.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		close(p.quit)
		p.wg.Wait()
		for {
			select {
			case j := <-p.jobs:
				j.done <- ErrStopped
			default:
				return
			}
		}
	})
}
