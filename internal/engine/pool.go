package engine

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrPoolFull   = errors.New("worker pool queue is full")
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// Executor runs submitted tasks asynchronously.
type Executor interface {
	// Submit enqueues task without blocking.
	Submit(task func()) error
	// QueueLen is the number of tasks waiting for a worker.
	QueueLen() int
	// ShutdownNow rejects further tasks and returns those never started.
	ShutdownNow() []func()
	// Wait blocks until every started task has returned or ctx is done.
	Wait(ctx context.Context) error
}

// Pool is a bounded worker pool. min workers stay resident; up to max run
// while a backlog exists. Submissions beyond capacity are rejected.
type Pool struct {
	tasks chan func()
	quit  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	max     int
	workers int
	closed  bool
}

func NewPool(min, max, capacity int) *Pool {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	if capacity < 0 {
		capacity = 0
	}
	p := &Pool{
		tasks: make(chan func(), capacity),
		quit:  make(chan struct{}),
		max:   max,
	}
	p.workers = min
	p.wg.Add(min)
	for i := 0; i < min; i++ {
		go p.resident()
	}
	return p
}

func (p *Pool) resident() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			task()
		}
	}
}

// surge exits as soon as the backlog is gone.
func (p *Pool) surge() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			p.retire()
			return
		case task := <-p.tasks:
			task()
		default:
			p.retire()
			return
		}
	}
}

func (p *Pool) retire() {
	p.mu.Lock()
	p.workers--
	p.mu.Unlock()
}

func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
	default:
		return ErrPoolFull
	}
	if len(p.tasks) > 0 && p.workers < p.max {
		p.workers++
		p.wg.Add(1)
		go p.surge()
	}
	return nil
}

func (p *Pool) QueueLen() int { return len(p.tasks) }

func (p *Pool) ShutdownNow() []func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.quit)
	var pending []func()
	for {
		select {
		case task := <-p.tasks:
			pending = append(pending, task)
		default:
			return pending
		}
	}
}

func (p *Pool) Wait(ctx context.Context) error {
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
