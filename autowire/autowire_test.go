package autowire

import (
	"context"
	"strings"
	"testing"

	"github.com/grand-thief-cash/ignite/core"
)

type cacheComponent struct {
	*core.BaseComponent
}

func (c *cacheComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(c)
}

type apiComponent struct {
	*core.BaseComponent
	Cache   *cacheComponent `infra:"dep:cache"`
	Metrics core.Component  `infra:"dep:metrics?"`
}

func (c *apiComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(c)
}

// storeComponent takes its dependency through an interface-typed field.
type storeComponent struct {
	*core.BaseComponent
	Backend core.Component `infra:"dep:cache"`
}

func (c *storeComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(c)
}

// needyComponent requires a dependency that is never registered.
type needyComponent struct {
	*core.BaseComponent
	DB core.Component `infra:"dep:absent"`
}

func (c *needyComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(c)
}

// wrongComponent declares a field whose type the resolved component cannot satisfy.
type wrongComponent struct {
	*core.BaseComponent
	Cache *apiComponent `infra:"dep:cache"`
}

func (c *wrongComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(c)
}

// mixedComponent mixes untagged and unexported tagged fields.
type mixedComponent struct {
	*core.BaseComponent
	Plain string
	cache *cacheComponent `infra:"dep:cache"` //nolint:unused
}

func (c *mixedComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(c)
}

type valueComponent struct{}

func (valueComponent) Name() string           { return "value" }
func (valueComponent) Dependencies() []string { return nil }
func (valueComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	return core.Started(nil)
}

func newCache() *cacheComponent {
	return &cacheComponent{BaseComponent: core.NewBaseComponent("cache")}
}

func newAPI() *apiComponent {
	return &apiComponent{BaseComponent: core.NewBaseComponent("api")}
}

func mustRegister(t *testing.T, r *core.Registry, c core.Component) {
	t.Helper()
	if err := r.Register(c); err != nil {
		t.Fatalf("register %s: %v", c.Name(), err)
	}
}

func TestInjectAssignsTaggedField(t *testing.T) {
	r := core.NewRegistry()
	cache := newCache()
	api := newAPI()
	mustRegister(t, r, cache)
	mustRegister(t, r, api)

	if err := InjectAll(r); err != nil {
		t.Fatalf("InjectAll: %v", err)
	}
	if api.Cache != cache {
		t.Fatalf("expected Cache field to hold registered cache instance, got %v", api.Cache)
	}
}

func TestInjectInterfaceField(t *testing.T) {
	r := core.NewRegistry()
	cache := newCache()
	store := &storeComponent{BaseComponent: core.NewBaseComponent("store")}
	mustRegister(t, r, cache)
	mustRegister(t, r, store)

	if err := Inject(r, store); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if store.Backend == nil || store.Backend.Name() != "cache" {
		t.Fatalf("expected interface field assigned to cache, got %v", store.Backend)
	}
}

func TestOptionalMissingDependencySkipped(t *testing.T) {
	r := core.NewRegistry()
	cache := newCache()
	api := newAPI()
	mustRegister(t, r, cache)
	mustRegister(t, r, api)

	// "metrics" is never registered; the trailing '?' makes it optional.
	if err := InjectAll(r); err != nil {
		t.Fatalf("InjectAll: %v", err)
	}
	if api.Metrics != nil {
		t.Fatalf("expected optional missing dep to stay nil, got %v", api.Metrics)
	}
}

func TestRequiredMissingDependencyFails(t *testing.T) {
	r := core.NewRegistry()
	n := &needyComponent{BaseComponent: core.NewBaseComponent("needy")}

	err := Inject(r, n)
	if err == nil {
		t.Fatal("expected error for missing required dependency")
	}
	if !strings.Contains(err.Error(), "absent") {
		t.Fatalf("error should name the missing dependency, got: %v", err)
	}
}

func TestInjectAllCollectsPerComponentErrors(t *testing.T) {
	r := core.NewRegistry()
	mustRegister(t, r, newCache())
	mustRegister(t, r, &needyComponent{BaseComponent: core.NewBaseComponent("needy")})

	err := InjectAll(r)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !strings.Contains(err.Error(), "needy") || !strings.Contains(err.Error(), "absent") {
		t.Fatalf("aggregated error should name component and dep, got: %v", err)
	}
}

func TestInjectAppendsRuntimeDependency(t *testing.T) {
	r := core.NewRegistry()
	cache := newCache()
	api := newAPI()
	mustRegister(t, r, cache)
	mustRegister(t, r, api)

	if err := InjectAll(r); err != nil {
		t.Fatalf("InjectAll: %v", err)
	}

	// Injection records cache as a runtime dependency of api, so the registry
	// must refuse to start api before cache is running.
	out := r.StartComponent(context.Background(), "api", core.Temporary, nil)
	if out.Kind != core.KindMissingDependency || out.Missing != "cache" {
		t.Fatalf("expected missing dependency cache, got kind=%v dep=%q", out.Kind, out.Missing)
	}

	if out := r.StartComponent(context.Background(), "cache", core.Temporary, nil); !out.Success() {
		t.Fatalf("start cache: %v", out.Err())
	}
	if out := r.StartComponent(context.Background(), "api", core.Temporary, nil); !out.Success() {
		t.Fatalf("start api after dep running: %v", out.Err())
	}
}

func TestInjectIncompatibleTypeFails(t *testing.T) {
	r := core.NewRegistry()
	mustRegister(t, r, newCache())
	w := &wrongComponent{BaseComponent: core.NewBaseComponent("wrong")}

	err := Inject(r, w)
	if err == nil {
		t.Fatal("expected incompatible type error")
	}
	if !strings.Contains(err.Error(), "Cache") {
		t.Fatalf("error should name the field, got: %v", err)
	}
}

func TestInjectIgnoresUntaggedAndUnexportedFields(t *testing.T) {
	r := core.NewRegistry()
	mustRegister(t, r, newCache())
	m := &mixedComponent{BaseComponent: core.NewBaseComponent("mixed")}

	if err := Inject(r, m); err != nil {
		t.Fatalf("Inject should skip unexported tagged fields: %v", err)
	}
	if m.cache != nil {
		t.Fatal("unexported field must not be assigned")
	}
}

func TestInjectNonStructComponentIsNoop(t *testing.T) {
	r := core.NewRegistry()
	if err := Inject(r, valueComponent{}); err != nil {
		t.Fatalf("non-pointer components are skipped, got: %v", err)
	}
	if err := Inject(r, nil); err != nil {
		t.Fatalf("nil component is skipped, got: %v", err)
	}
}
