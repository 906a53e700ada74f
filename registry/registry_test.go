package registry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/grand-thief-cash/ignite/config"
	"github.com/grand-thief-cash/ignite/core"
)

// withCleanBuilders swaps out the builders registered by the component init()
// files so each test works against an isolated builder set.
func withCleanBuilders(t *testing.T) {
	t.Helper()
	saved := builders
	builders = nil
	t.Cleanup(func() { builders = saved })
}

type storeComponent struct {
	*core.BaseComponent
}

func (c *storeComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(c)
}

type gatewayComponent struct {
	*core.BaseComponent
	Store *storeComponent `infra:"dep:store"`
}

func (c *gatewayComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(c)
}

func staticBuilder(c core.Component) BuilderFunc {
	return func(cfg *config.AppConfig, reg *core.Registry) (bool, core.Component, error) {
		return true, c, nil
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	withCleanBuilders(t)
	Register("store", staticBuilder(&storeComponent{BaseComponent: core.NewBaseComponent("store")}))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate builder name")
		}
	}()
	Register("store", staticBuilder(&storeComponent{BaseComponent: core.NewBaseComponent("store")}))
}

func TestBuildAndRegisterAllSkipsDisabled(t *testing.T) {
	withCleanBuilders(t)
	Register("store", staticBuilder(&storeComponent{BaseComponent: core.NewBaseComponent("store")}))
	Register("disabled", func(cfg *config.AppConfig, reg *core.Registry) (bool, core.Component, error) {
		return false, nil, nil
	})

	reg := core.NewRegistry()
	if err := BuildAndRegisterAll(&config.AppConfig{}, reg); err != nil {
		t.Fatalf("BuildAndRegisterAll: %v", err)
	}
	if _, err := reg.Resolve("store"); err != nil {
		t.Fatalf("store should be registered: %v", err)
	}
	if _, err := reg.Resolve("disabled"); err == nil {
		t.Fatal("disabled builder must not register a component")
	}
}

func TestAutoBuilderInfersNameAndDeps(t *testing.T) {
	withCleanBuilders(t)
	Register("store", staticBuilder(&storeComponent{BaseComponent: core.NewBaseComponent("store")}))
	gw := &gatewayComponent{BaseComponent: core.NewBaseComponent("gateway")}
	RegisterAuto(staticBuilder(gw))

	reg := core.NewRegistry()
	if err := BuildAndRegisterAll(&config.AppConfig{}, reg); err != nil {
		t.Fatalf("BuildAndRegisterAll: %v", err)
	}

	b := findBuilder("gateway")
	if b == nil {
		t.Fatal("auto builder name was not inferred")
	}
	if len(b.Deps) != 1 || b.Deps[0] != "store" {
		t.Fatalf("expected inferred build dep [store], got %v", b.Deps)
	}
	if _, err := reg.Resolve("gateway"); err != nil {
		t.Fatalf("gateway should be registered: %v", err)
	}
}

func TestBuilderNameMismatchFails(t *testing.T) {
	withCleanBuilders(t)
	Register("declared", staticBuilder(&storeComponent{BaseComponent: core.NewBaseComponent("actual")}))

	err := BuildAndRegisterAll(&config.AppConfig{}, core.NewRegistry())
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if !strings.Contains(err.Error(), "declared") || !strings.Contains(err.Error(), "actual") {
		t.Fatalf("error should name both builder and component, got: %v", err)
	}
}

func TestBuildErrorPropagates(t *testing.T) {
	withCleanBuilders(t)
	boom := errors.New("boom")
	Register("broken", func(cfg *config.AppConfig, reg *core.Registry) (bool, core.Component, error) {
		return false, nil, boom
	})

	err := BuildAndRegisterAll(&config.AppConfig{}, core.NewRegistry())
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped build error, got: %v", err)
	}
}

func TestTopoSortOrdersByDeps(t *testing.T) {
	a := &Builder{Name: "a"}
	b := &Builder{Name: "b", Deps: []string{"a"}}
	c := &Builder{Name: "c", Deps: []string{"b"}}

	ordered, err := topoSortBuilders([]*Builder{c, b, a})
	if err != nil {
		t.Fatalf("topoSortBuilders: %v", err)
	}
	got := make([]string, 0, len(ordered))
	for _, x := range ordered {
		got = append(got, x.Name)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", got, want)
		}
	}
}

func TestTopoSortDetectsCycle(t *testing.T) {
	a := &Builder{Name: "a", Deps: []string{"b"}}
	b := &Builder{Name: "b", Deps: []string{"a"}}

	if _, err := topoSortBuilders([]*Builder{a, b}); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestRuntimeDependencyExtensionApplied(t *testing.T) {
	withCleanBuilders(t)
	store := &storeComponent{BaseComponent: core.NewBaseComponent("store")}
	gw := &gatewayComponent{BaseComponent: core.NewBaseComponent("gateway")}
	Register("store", staticBuilder(store))
	Register("gateway", staticBuilder(gw))

	ExtendRuntimeDependencies("gateway", "store")
	ExtendRuntimeDependencies("ghost", "store") // unknown target is logged and skipped

	reg := core.NewRegistry()
	if err := BuildAndRegisterAll(&config.AppConfig{}, reg); err != nil {
		t.Fatalf("BuildAndRegisterAll: %v", err)
	}

	deps := gw.Dependencies()
	found := false
	for _, d := range deps {
		if d == "store" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected runtime dep extension to add store, got %v", deps)
	}

	// Extensions are consumed on apply; a rebuild must not duplicate them.
	before := len(gw.Dependencies())
	if err := BuildAndRegisterAll(&config.AppConfig{}, core.NewRegistry()); err != nil {
		t.Fatalf("second BuildAndRegisterAll: %v", err)
	}
	if len(gw.Dependencies()) != before {
		t.Fatal("extension applied twice")
	}
}
