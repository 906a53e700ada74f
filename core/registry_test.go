package core

import (
	"context"
	"errors"
	"testing"
)

func mustRegister(t *testing.T, r *Registry, c Component) {
	t.Helper()
	if err := r.Register(c); err != nil {
		t.Fatalf("register %s failed: %v", c.Name(), err)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); err == nil {
		t.Fatalf("nil component must be rejected")
	}
	if err := r.Register(&ComponentFunc{ComponentName: ""}); err == nil {
		t.Fatalf("empty name must be rejected")
	}
	mustRegister(t, r, &ComponentFunc{ComponentName: "a"})
	if err := r.Register(&ComponentFunc{ComponentName: "a"}); err == nil {
		t.Fatalf("duplicate name must be rejected")
	}
}

func TestStartComponentClassification(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	out := r.StartComponent(ctx, "ghost", Temporary, nil)
	if out.Kind != KindFailed || !errors.Is(out.Reason, ErrUnknownComponent) {
		t.Fatalf("unknown component: got %s (%v)", out.Kind, out.Reason)
	}

	mustRegister(t, r, &ComponentFunc{ComponentName: "logger"})
	mustRegister(t, r, &ComponentFunc{ComponentName: "server", Deps: []string{"logger"}})

	out = r.StartComponent(ctx, "server", Permanent, nil)
	if out.Kind != KindMissingDependency || out.Missing != "logger" {
		t.Fatalf("expected missing logger, got %s (missing=%q)", out.Kind, out.Missing)
	}

	out = r.StartComponent(ctx, "logger", Temporary, nil)
	if out.Kind != KindStarted {
		t.Fatalf("expected started, got %s", out.Kind)
	}
	out = r.StartComponent(ctx, "logger", Temporary, nil)
	if out.Kind != KindAlreadyRunning {
		t.Fatalf("second start must report already_running, got %s", out.Kind)
	}

	out = r.StartComponent(ctx, "server", Permanent, nil)
	if out.Kind != KindStarted {
		t.Fatalf("server with running dep must start, got %s (%v)", out.Kind, out.Err())
	}
	if got := r.ListRunning(); len(got) != 2 || got[0] != "logger" || got[1] != "server" {
		t.Fatalf("start order wrong: %v", got)
	}
}

func TestStartComponentRejectsBadOutcomeKinds(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &ComponentFunc{
		ComponentName: "weird",
		StartFn: func(ctx context.Context, mode StartMode, args any) Outcome {
			return AlreadyRunning() // components must not self-report this
		},
	})
	out := r.StartComponent(context.Background(), "weird", Temporary, nil)
	if out.Kind != KindFailed || !errors.Is(out.Reason, ErrBadStartOutcome) {
		t.Fatalf("expected ErrBadStartOutcome, got %s (%v)", out.Kind, out.Reason)
	}
	if r.Running("weird") {
		t.Fatalf("component with bad outcome must not be recorded as running")
	}
}

func TestStateRetainedAndHandedBackOnStop(t *testing.T) {
	type conn struct{ closed bool }
	c := &conn{}
	var gotState any

	r := NewRegistry()
	mustRegister(t, r, &ComponentFunc{
		ComponentName: "db",
		StartFn: func(ctx context.Context, mode StartMode, args any) Outcome {
			return StartedWithState(nil, c)
		},
		StopFn: func(ctx context.Context, state any) error {
			gotState = state
			state.(*conn).closed = true
			return nil
		},
	})

	ctx := context.Background()
	if out := r.StartComponent(ctx, "db", Temporary, nil); out.Kind != KindStartedWithState {
		t.Fatalf("expected started_with_state, got %s", out.Kind)
	}
	if st, ok := r.RunningState("db"); !ok || st != any(c) {
		t.Fatalf("registry must retain start state")
	}
	if err := r.StopComponent(ctx, "db"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if gotState != any(c) || !c.closed {
		t.Fatalf("retained state must be handed back to Stop")
	}
	if r.Running("db") {
		t.Fatalf("stopped component still marked running")
	}
}

// stopless has no Stop method; registry must bind a no-op default.
type stopless struct{ *BaseComponent }

func (s *stopless) Start(ctx context.Context, mode StartMode, args any) Outcome {
	return Started(nil)
}

func TestDefaultStopIsNoop(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &stopless{BaseComponent: NewBaseComponent("plain")})

	ctx := context.Background()
	if out := r.StartComponent(ctx, "plain", Temporary, nil); !out.Success() {
		t.Fatalf("start failed: %v", out.Err())
	}
	if err := r.StopComponent(ctx, "plain"); err != nil {
		t.Fatalf("default stop must succeed: %v", err)
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	var stopped []string
	r := NewRegistry()
	for _, name := range []string{"one", "two", "three"} {
		name := name
		mustRegister(t, r, &ComponentFunc{
			ComponentName: name,
			StopFn: func(ctx context.Context, state any) error {
				stopped = append(stopped, name)
				return nil
			},
		})
	}
	ctx := context.Background()
	for _, name := range []string{"one", "two", "three"} {
		if out := r.StartComponent(ctx, name, Temporary, nil); !out.Success() {
			t.Fatalf("start %s failed: %v", name, out.Err())
		}
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("stop all failed: %v", err)
	}
	if len(stopped) != 3 || stopped[0] != "three" || stopped[2] != "one" {
		t.Fatalf("stop order must reverse start order: %v", stopped)
	}
}

func TestDependenciesReadLive(t *testing.T) {
	r := NewRegistry()
	base := NewBaseComponent("svc")
	mustRegister(t, r, &stopless{BaseComponent: base})
	mustRegister(t, r, &ComponentFunc{ComponentName: "late"})

	// dependency added after registration (autowire does this)
	base.AddDependencies("late")

	out := r.StartComponent(context.Background(), "svc", Temporary, nil)
	if out.Kind != KindMissingDependency || out.Missing != "late" {
		t.Fatalf("post-registration deps must be honored, got %s (missing=%q)", out.Kind, out.Missing)
	}
}

func TestComponentExitedEscalation(t *testing.T) {
	cases := []struct {
		mode     StartMode
		cause    error
		escalate bool
	}{
		{Temporary, errors.New("crash"), false},
		{Transient, nil, false},
		{Transient, errors.New("crash"), true},
		{Permanent, nil, true},
		{Permanent, errors.New("crash"), true},
	}
	for _, tc := range cases {
		r := NewRegistry()
		mustRegister(t, r, &ComponentFunc{ComponentName: "worker"})

		var exited, escalated bool
		r.SetExitHandlers(
			func(ctx context.Context, name string, mode StartMode, cause error) { exited = true },
			func(ctx context.Context, name string, mode StartMode, cause error) { escalated = true },
		)

		ctx := context.Background()
		if out := r.StartComponent(ctx, "worker", tc.mode, nil); !out.Success() {
			t.Fatalf("start failed: %v", out.Err())
		}
		r.ComponentExited(ctx, "worker", tc.cause)

		if !exited {
			t.Fatalf("mode=%s cause=%v: exit must always be reported", tc.mode, tc.cause)
		}
		if escalated != tc.escalate {
			t.Fatalf("mode=%s cause=%v: escalate=%v, want %v", tc.mode, tc.cause, escalated, tc.escalate)
		}
		if r.Running("worker") {
			t.Fatalf("exited component still marked running")
		}
	}
}

func TestComponentExitedUnknownIsIgnored(t *testing.T) {
	r := NewRegistry()
	var called bool
	r.SetExitHandlers(
		func(ctx context.Context, name string, mode StartMode, cause error) { called = true },
		nil,
	)
	r.ComponentExited(context.Background(), "never-started", errors.New("x"))
	if called {
		t.Fatalf("exit of a non-running component must be a no-op")
	}
}

func TestCoordinatorAgainstRealRegistry(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &ComponentFunc{ComponentName: "logging"})
	mustRegister(t, r, &ComponentFunc{ComponentName: "db", Deps: []string{"logging"}})
	mustRegister(t, r, &ComponentFunc{ComponentName: "api", Deps: []string{"db", "logging"}})

	c := NewCoordinator(r)
	out := c.Start(context.Background(), "api", Permanent)
	if !out.Success() {
		t.Fatalf("expected success, got %s (%v)", out.Kind, out.Err())
	}
	order := r.ListRunning()
	if len(order) != 3 || order[0] != "logging" || order[1] != "db" || order[2] != "api" {
		t.Fatalf("transitive start order wrong: %v", order)
	}
}
