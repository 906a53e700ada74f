package ignite

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/grand-thief-cash/ignite/autowire"
	"github.com/grand-thief-cash/ignite/config"
	"github.com/grand-thief-cash/ignite/core"
	"github.com/grand-thief-cash/ignite/hooks"
	"github.com/grand-thief-cash/ignite/registry"
)

type App struct {
	registry         *core.Registry
	coordinator      *core.Coordinator
	lifecycleManager *core.LifecycleManager
	configManager    *config.ConfigManager

	bootOnce sync.Once
	bootErr  error
	booted   bool

	shutdownTimeout time.Duration
}

func NewApp(env string, configPath string) *App {
	abs := configPath
	if p, err := filepath.Abs(configPath); err == nil {
		abs = p
	}
	return &App{
		configManager:   config.NewConfigManager(env, abs),
		registry:        core.NewRegistry(),
		shutdownTimeout: 30 * time.Second,
	}
}

// SetShutdownTimeout allows customizing graceful shutdown timeout.
func (app *App) SetShutdownTimeout(d time.Duration) { app.shutdownTimeout = d }

func (app *App) boot() error {
	app.bootOnce.Do(func() {
		if err := app.configManager.LoadConfig(); err != nil {
			app.bootErr = fmt.Errorf("load config failed: %w", err)
			return
		}
		cfg := app.configManager.GetConfig()

		var opts []core.CoordinatorOption
		if cfg.Coordinator != nil && cfg.Coordinator.MaxDepth > 0 {
			opts = append(opts, core.WithMaxDepth(cfg.Coordinator.MaxDepth))
		}
		app.coordinator = core.NewCoordinator(app.registry, opts...)
		// Use global hook manager so default hooks (registered in hooks/default.go) are effective.
		app.lifecycleManager = core.NewLifecycleManagerWithManager(app.registry, app.coordinator, hooks.GetGlobalHookManager())

		if err := app.registerComponents(cfg); err != nil {
			app.bootErr = fmt.Errorf("register components failed: %w", err)
			return
		}
		app.booted = true
	})
	return app.bootErr
}

func (app *App) registerComponents(cfg *config.AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config not loaded")
	}

	// Unified registration via registry. Each component self-registers its builder in its registry/*.go init().
	if err := registry.BuildAndRegisterAll(cfg, app.registry); err != nil {
		return err
	}
	// Wire infra:"dep:" tagged fields and patch in tag-declared runtime deps.
	if err := autowire.InjectAll(app.registry); err != nil {
		return err
	}
	return nil
}

func (app *App) GetComponent(name string) (core.Component, error) {
	return app.registry.Resolve(name)
}

func (app *App) Registry() *core.Registry { return app.registry }

// Coordinator is only non-nil after boot (first Run/RunWithContext/Start call).
func (app *App) Coordinator() *core.Coordinator { return app.coordinator }

func (app *App) GetConfig() *config.AppConfig {
	if app.configManager == nil {
		return nil
	}
	return app.configManager.GetConfig()
}

func (app *App) AddHook(name string, phase hooks.Phase, fn hooks.HookFunc, priority int) error {
	if app.lifecycleManager == nil {
		// lifecycle not built yet; register on the shared global manager directly
		return hooks.GetGlobalHookManager().Register(&hooks.Hook{Name: name, Phase: phase, Function: fn, Priority: priority})
	}
	return app.lifecycleManager.AddHook(name, phase, fn, priority)
}

// Start boots the app and starts every configured top-level entry (config `start` list).
// Transitive dependencies are resolved by the coordinator.
func (app *App) Start(ctx context.Context) error {
	if err := app.boot(); err != nil {
		return err
	}
	entries, err := app.GetConfig().StartEntries()
	if err != nil {
		return fmt.Errorf("invalid start entries: %w", err)
	}
	return app.lifecycleManager.StartEntries(ctx, entries)
}

// StartComponent starts a single component (and its transitive dependencies) on demand.
func (app *App) StartComponent(ctx context.Context, name string, mode core.StartMode) core.Outcome {
	if err := app.boot(); err != nil {
		return core.Failed(err)
	}
	return app.coordinator.Start(ctx, name, mode)
}

// Run starts the configured entries and blocks until SIGINT/SIGTERM.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.RunWithContext(ctx)
}

// RunWithContext starts components and blocks until context done,
// then performs graceful shutdown.
func (app *App) RunWithContext(ctx context.Context) error {
	if err := app.Start(ctx); err != nil {
		return err
	}

	// Block until context canceled or a component exit escalates,
	// then WaitForShutdown performs the graceful stop itself.
	app.lifecycleManager.WaitForShutdown(ctx)
	return nil
}

func (app *App) Shutdown(ctx context.Context) {
	if app.lifecycleManager != nil {
		app.lifecycleManager.StopAll(ctx)
	}
}
