package core

import (
	"context"
	"errors"
	"testing"

	"github.com/grand-thief-cash/ignite/hooks"
)

func TestStartEntriesStartsTopLevelAndDeps(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &ComponentFunc{ComponentName: "logging"})
	mustRegister(t, r, &ComponentFunc{ComponentName: "http", Deps: []string{"logging"}})
	mustRegister(t, r, &ComponentFunc{ComponentName: "metrics"})

	lm := NewLifecycleManager(r, NewCoordinator(r))
	entries := []StartEntry{
		{Name: "http", Mode: Permanent},
		{Name: "metrics", Mode: Temporary},
	}
	if err := lm.StartEntries(context.Background(), entries); err != nil {
		t.Fatalf("start entries failed: %v", err)
	}
	order := r.ListRunning()
	if len(order) != 3 || order[0] != "logging" || order[1] != "http" || order[2] != "metrics" {
		t.Fatalf("unexpected start order: %v", order)
	}
}

func TestStartEntriesCleansUpOnFailure(t *testing.T) {
	var stopped []string
	r := NewRegistry()
	mustRegister(t, r, &ComponentFunc{
		ComponentName: "good",
		StopFn: func(ctx context.Context, state any) error {
			stopped = append(stopped, "good")
			return nil
		},
	})
	boom := errors.New("bad start")
	mustRegister(t, r, &ComponentFunc{
		ComponentName: "bad",
		StartFn: func(ctx context.Context, mode StartMode, args any) Outcome {
			return Failed(boom)
		},
	})

	lm := NewLifecycleManager(r, NewCoordinator(r))
	err := lm.StartEntries(context.Background(), []StartEntry{
		{Name: "good"},
		{Name: "bad"},
	})
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("expected bad start error, got %v", err)
	}
	if len(stopped) != 1 || stopped[0] != "good" {
		t.Fatalf("previously started components must be stopped on failure: %v", stopped)
	}
	if len(r.ListRunning()) != 0 {
		t.Fatalf("nothing should be left running: %v", r.ListRunning())
	}
}

func TestStartEntriesRunsHooks(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &ComponentFunc{ComponentName: "svc"})

	lm := NewLifecycleManager(r, NewCoordinator(r))
	var phases []hooks.Phase
	for _, p := range []hooks.Phase{hooks.BeforeStart, hooks.AfterStart} {
		p := p
		if err := lm.AddHook(string(p), p, func(ctx context.Context) error {
			phases = append(phases, p)
			return nil
		}, 50); err != nil {
			t.Fatalf("add hook failed: %v", err)
		}
	}
	if err := lm.StartEntries(context.Background(), []StartEntry{{Name: "svc"}}); err != nil {
		t.Fatalf("start entries failed: %v", err)
	}
	if len(phases) != 2 || phases[0] != hooks.BeforeStart || phases[1] != hooks.AfterStart {
		t.Fatalf("hook phases wrong: %v", phases)
	}
}

func TestEscalationSignalsShutdown(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &ComponentFunc{ComponentName: "worker"})

	lm := NewLifecycleManager(r, NewCoordinator(r))
	if err := lm.StartEntries(context.Background(), []StartEntry{{Name: "worker", Mode: Permanent}}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	r.ComponentExited(context.Background(), "worker", nil)

	select {
	case <-lm.stopEvent:
	default:
		t.Fatalf("permanent exit must signal shutdown")
	}
}
