package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type startCall struct {
	name string
	mode StartMode
}

// graphStarter mimics registry classification over a static dependency graph.
type graphStarter struct {
	deps     map[string][]string
	failures map[string]error
	running  map[string]bool
	calls    []startCall
	started  []string
}

func newGraphStarter(deps map[string][]string) *graphStarter {
	return &graphStarter{
		deps:     deps,
		failures: map[string]error{},
		running:  map[string]bool{},
	}
}

func (g *graphStarter) StartComponent(ctx context.Context, name string, mode StartMode, args any) Outcome {
	g.calls = append(g.calls, startCall{name: name, mode: mode})
	if g.running[name] {
		return AlreadyRunning()
	}
	if err, ok := g.failures[name]; ok {
		return Failed(err)
	}
	for _, d := range g.deps[name] {
		if !g.running[d] {
			return MissingDependency(d)
		}
	}
	g.running[name] = true
	g.started = append(g.started, name)
	return Started(nil)
}

func TestStartNoDependencies(t *testing.T) {
	g := newGraphStarter(map[string][]string{"a": nil})
	c := NewCoordinator(g)

	out := c.Start(context.Background(), "a", Permanent)
	if !out.Success() {
		t.Fatalf("expected success, got %s (%v)", out.Kind, out.Err())
	}
	if len(g.calls) != 1 {
		t.Fatalf("expected 1 primitive attempt, got %d", len(g.calls))
	}
	if g.calls[0].mode != Permanent {
		t.Fatalf("mode not forwarded: got %s", g.calls[0].mode)
	}
}

func TestStartAlreadyRunningIsSuccess(t *testing.T) {
	g := newGraphStarter(map[string][]string{"a": nil})
	g.running["a"] = true
	c := NewCoordinator(g)

	out := c.Start(context.Background(), "a", Temporary)
	if out.Kind != KindAlreadyRunning {
		t.Fatalf("expected already_running, got %s", out.Kind)
	}
	if !out.Success() {
		t.Fatalf("already_running must count as success")
	}
}

func TestFailedPassthroughNoRetry(t *testing.T) {
	boom := errors.New("boom")
	g := newGraphStarter(map[string][]string{"a": nil})
	g.failures["a"] = boom
	c := NewCoordinator(g)

	out := c.Start(context.Background(), "a", Transient)
	if out.Kind != KindFailed {
		t.Fatalf("expected failed, got %s", out.Kind)
	}
	if !errors.Is(out.Reason, boom) {
		t.Fatalf("failure reason not passed through unchanged: %v", out.Reason)
	}
	if len(g.calls) != 1 {
		t.Fatalf("failure must not trigger retries, got %d attempts", len(g.calls))
	}
}

func TestSingleDependencyResolvedThenRetried(t *testing.T) {
	g := newGraphStarter(map[string][]string{
		"server": {"logger"},
		"logger": nil,
	})
	c := NewCoordinator(g)

	out := c.Start(context.Background(), "server", Permanent)
	if !out.Success() {
		t.Fatalf("expected success, got %s (%v)", out.Kind, out.Err())
	}

	want := []startCall{
		{"server", Permanent}, // probe fails with missing logger
		{"logger", Temporary}, // dependency always started temporary
		{"server", Permanent}, // retry with dependency satisfied
	}
	if len(g.calls) != len(want) {
		t.Fatalf("expected %d attempts, got %d: %v", len(want), len(g.calls), g.calls)
	}
	for i, w := range want {
		if g.calls[i] != w {
			t.Fatalf("attempt %d: want %v, got %v", i, w, g.calls[i])
		}
	}
	if g.started[0] != "logger" || g.started[1] != "server" {
		t.Fatalf("dependency must start before dependent: %v", g.started)
	}
}

func TestDependencyFailurePropagatesUnchanged(t *testing.T) {
	boom := errors.New("logger exploded")
	g := newGraphStarter(map[string][]string{
		"server": {"logger"},
		"logger": nil,
	})
	g.failures["logger"] = boom
	c := NewCoordinator(g)

	out := c.Start(context.Background(), "server", Permanent)
	if out.Kind != KindFailed || !errors.Is(out.Reason, boom) {
		t.Fatalf("dependency failure must propagate unchanged, got %s (%v)", out.Kind, out.Reason)
	}
	// probe + failed dep attempt, no retry of server
	if len(g.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d: %v", len(g.calls), g.calls)
	}
}

func TestDependencyChainInnermostFirst(t *testing.T) {
	const n = 7 // chain length below the top component
	deps := map[string][]string{}
	names := make([]string, n+1)
	for i := 0; i <= n; i++ {
		names[i] = fmt.Sprintf("c%d", i)
	}
	for i := 0; i < n; i++ {
		deps[names[i]] = []string{names[i+1]}
	}
	deps[names[n]] = nil

	g := newGraphStarter(deps)
	c := NewCoordinator(g)

	out := c.Start(context.Background(), names[0], Permanent)
	if !out.Success() {
		t.Fatalf("expected success, got %s (%v)", out.Kind, out.Err())
	}

	// n failed probes + n+1 effective starts
	if got, want := len(g.calls), 2*n+1; got != want {
		t.Fatalf("expected %d primitive attempts, got %d", want, got)
	}
	// innermost dependency starts first, then unwinds outward
	for i := 0; i <= n; i++ {
		if g.started[i] != names[n-i] {
			t.Fatalf("start order wrong at %d: %v", i, g.started)
		}
	}
	// only the original request keeps its mode; every dependency is temporary
	for _, call := range g.calls {
		if call.name == names[0] {
			if call.mode != Permanent {
				t.Fatalf("top-level mode changed: %v", call)
			}
		} else if call.mode != Temporary {
			t.Fatalf("dependency started with mode %s: %v", call.mode, call)
		}
	}
}

func TestMultipleDependenciesDrainedOneAtATime(t *testing.T) {
	g := newGraphStarter(map[string][]string{
		"app":   {"db", "cache"},
		"db":    nil,
		"cache": nil,
	})
	c := NewCoordinator(g)

	out := c.Start(context.Background(), "app", Transient)
	if !out.Success() {
		t.Fatalf("expected success, got %s (%v)", out.Kind, out.Err())
	}
	// app(miss db), db, app(miss cache), cache, app
	if len(g.calls) != 5 {
		t.Fatalf("expected 5 attempts, got %d: %v", len(g.calls), g.calls)
	}
	if g.started[len(g.started)-1] != "app" {
		t.Fatalf("app must start last: %v", g.started)
	}
}

// pingPongStarter reports two components as each other's missing dependency
// forever, bailing out with a sentinel failure after maxCalls attempts so the
// test can observe unbounded mutual recursion without overflowing the stack.
type pingPongStarter struct {
	calls    int
	maxCalls int
	bailErr  error
}

func (p *pingPongStarter) StartComponent(ctx context.Context, name string, mode StartMode, args any) Outcome {
	p.calls++
	if p.calls >= p.maxCalls {
		return Failed(p.bailErr)
	}
	if name == "x" {
		return MissingDependency("y")
	}
	return MissingDependency("x")
}

func TestDependencyCycleRecursesUnbounded(t *testing.T) {
	bail := errors.New("bail")
	p := &pingPongStarter{maxCalls: 10000, bailErr: bail}
	c := NewCoordinator(p)

	out := c.Start(context.Background(), "x", Temporary)
	if out.Kind != KindFailed || !errors.Is(out.Reason, bail) {
		t.Fatalf("expected sentinel bail-out, got %s (%v)", out.Kind, out.Reason)
	}
	if p.calls < 10000 {
		t.Fatalf("cycle must keep recursing without a guard, got %d calls", p.calls)
	}
}

func TestMaxDepthGuardBreaksCycle(t *testing.T) {
	p := &pingPongStarter{maxCalls: 1 << 30, bailErr: errors.New("unreachable")}
	c := NewCoordinator(p, WithMaxDepth(50))

	out := c.Start(context.Background(), "x", Temporary)
	if out.Kind != KindFailed || !errors.Is(out.Reason, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %s (%v)", out.Kind, out.Reason)
	}
	if p.calls > 52 {
		t.Fatalf("depth guard did not bound attempts: %d", p.calls)
	}
}
