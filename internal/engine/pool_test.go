package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsTasks(t *testing.T) {
	p := NewPool(2, 4, 100)
	var n atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		if err := p.Submit(func() { n.Add(1); wg.Done() }); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wg.Wait()
	if n.Load() != 50 {
		t.Errorf("expected 50 tasks run, got %d", n.Load())
	}
	p.ShutdownNow()
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("wait: %v", err)
	}
}

func TestPoolRejectsWhenFull(t *testing.T) {
	p := NewPool(1, 1, 1)
	block := make(chan struct{})
	started := make(chan struct{})
	if err := p.Submit(func() { close(started); <-block }); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := p.Submit(func() {}); err != nil {
		t.Fatalf("buffered submit: %v", err)
	}
	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolFull) {
		t.Errorf("expected ErrPoolFull, got %v", err)
	}
	if p.QueueLen() != 1 {
		t.Errorf("expected queue length 1, got %d", p.QueueLen())
	}
	close(block)
	p.ShutdownNow()
	p.Wait(context.Background())
}

func TestPoolShutdownReturnsPending(t *testing.T) {
	p := NewPool(1, 1, 10)
	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func() { close(started); <-block })
	<-started
	for i := 0; i < 3; i++ {
		p.Submit(func() {})
	}

	pending := p.ShutdownNow()
	if len(pending) != 3 {
		t.Errorf("expected 3 pending tasks, got %d", len(pending))
	}
	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline while a task is blocked, got %v", err)
	}
	close(block)
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("wait: %v", err)
	}
}
