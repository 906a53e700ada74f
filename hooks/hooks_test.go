package hooks

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterValidation(t *testing.T) {
	m := NewManager()
	if err := m.Register(nil); err == nil {
		t.Fatal("nil hook should be rejected")
	}
	if err := m.Register(&Hook{Name: "x", Phase: BeforeStart}); err == nil {
		t.Fatal("nil function should be rejected")
	}
	if err := m.Register(&Hook{Name: "x", Phase: Phase("bogus"), Function: func(ctx context.Context) error { return nil }}); err == nil {
		t.Fatal("invalid phase should be rejected")
	}
}

func TestExecuteRunsByPriority(t *testing.T) {
	m := NewManager()
	var order []string
	add := func(name string, prio int) {
		err := m.Register(&Hook{
			Name:     name,
			Phase:    BeforeStart,
			Priority: prio,
			Function: func(ctx context.Context) error {
				order = append(order, name)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	add("last", 30)
	add("first", 1)
	add("middle", 10)

	if err := m.Execute(context.Background(), BeforeStart); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"first", "middle", "last"}
	if len(order) != len(want) {
		t.Fatalf("expected %d hooks run, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", order, want)
		}
	}
}

func TestExecuteStopsOnFirstFailure(t *testing.T) {
	m := NewManager()
	boom := errors.New("boom")
	ran := false
	m.Register(&Hook{Name: "bad", Phase: AfterStart, Priority: 1, Function: func(ctx context.Context) error { return boom }})
	m.Register(&Hook{Name: "never", Phase: AfterStart, Priority: 2, Function: func(ctx context.Context) error { ran = true; return nil }})

	err := m.Execute(context.Background(), AfterStart)
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped hook error, got: %v", err)
	}
	if ran {
		t.Fatal("later hook must not run after a failure")
	}
}

func TestExecutePhaseIsolation(t *testing.T) {
	m := NewManager()
	count := 0
	m.Register(&Hook{Name: "shutdown-only", Phase: BeforeShutdown, Function: func(ctx context.Context) error { count++; return nil }})

	if err := m.Execute(context.Background(), BeforeStart); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if count != 0 {
		t.Fatal("hook ran in the wrong phase")
	}
	if err := m.Execute(context.Background(), BeforeShutdown); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one run, got %d", count)
	}
}
