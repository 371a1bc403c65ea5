package quadray

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestRunPhaseCompletesAllWork(t *testing.T) {
	p := newWorkerPool(4)
	defer p.close()

	var n atomic.Int32
	work := make([]func() error, 100)
	for i := range work {
		work[i] = func() error {
			n.Add(1)
			return nil
		}
	}
	if err := p.runPhase(work); err != nil {
		t.Fatalf("runPhase: %v", err)
	}
	if n.Load() != 100 {
		t.Errorf("completed %d items, want 100", n.Load())
	}
}

func TestRunPhaseSurfacesFirstError(t *testing.T) {
	p := newWorkerPool(2)
	defer p.close()

	err := p.runPhase([]func() error{
		func() error { return nil },
		func() error { return errors.New("tile 7 exploded") },
	})
	if !errors.Is(err, ErrWorkerFailure) {
		t.Fatalf("err = %v, want ErrWorkerFailure", err)
	}
	if !strings.Contains(err.Error(), "tile 7 exploded") {
		t.Errorf("err %q does not carry the worker message", err)
	}
}

func TestRunPhaseRecoversPanic(t *testing.T) {
	p := newWorkerPool(2)
	defer p.close()

	err := p.runPhase([]func() error{
		func() error { panic("lane mask corrupted") },
	})
	if !errors.Is(err, ErrWorkerFailure) {
		t.Fatalf("err = %v, want ErrWorkerFailure", err)
	}
	if !strings.Contains(err.Error(), "lane mask corrupted") {
		t.Errorf("err %q does not carry the panic message", err)
	}

	// The pool survives the panic for the next phase.
	if err := p.runPhase([]func() error{func() error { return nil }}); err != nil {
		t.Errorf("phase after panic: %v", err)
	}
}

func TestPoolCloseTwice(t *testing.T) {
	p := newWorkerPool(2)
	p.close()
	p.close()
}

func TestPoolDefaultWorkers(t *testing.T) {
	p := newWorkerPool(0)
	defer p.close()
	if p.workers < 1 {
		t.Errorf("workers = %d, want >= 1", p.workers)
	}
}
