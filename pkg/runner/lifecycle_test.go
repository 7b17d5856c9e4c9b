package runner

import (
	"context"
	"testing"
	"time"
)

type fnDrainer func() error

func (f fnDrainer) Drain() error { return f() }

func TestLifecycleRunsHooksAndDrains(t *testing.T) {
	drained := make(chan struct{})
	var started, stopped bool
	r := NewLifecycleRunner(fnDrainer(func() error {
		close(drained)
		return nil
	}), Hooks{
		OnStart: func() { started = true },
		OnStop:  func() { stopped = true },
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for r.State() != StateRunning && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.State() != StateRunning {
		t.Fatal("runner never reached running state")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
	select {
	case <-drained:
	default:
		t.Fatal("drainer not invoked")
	}
	if !started || !stopped {
		t.Fatalf("hooks not invoked, started=%v stopped=%v", started, stopped)
	}
	if r.State() != StateStopped {
		t.Fatalf("expected stopped state, got %d", r.State())
	}
}

func TestLifecycleDrainTimeout(t *testing.T) {
	r := NewLifecycleRunner(fnDrainer(func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	}), Hooks{}, 10*time.Millisecond)
	if err := r.Stop(); err == nil || err.Error() != "drain timeout" {
		t.Fatalf("expected drain timeout, got %v", err)
	}
}

func TestLifecycleDoubleRunRejected(t *testing.T) {
	r := NewLifecycleRunner(nil, Hooks{}, time.Second)
	go func() { _ = r.Run(context.Background()) }()
	deadline := time.Now().Add(time.Second)
	for r.State() != StateRunning && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("second run must be rejected")
	}
	_ = r.Stop()
}
