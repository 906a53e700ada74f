// core/lifecycle.go
package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grand-thief-cash/ignite/hooks"
)

// StartEntry 配置声明的顶层启动项。Mode 只作用于该组件本身。
type StartEntry struct {
	Name string
	Mode StartMode
	Args any
}

// LifecycleManager 生命周期管理器: 用 coordinator 启动配置的顶层组件,
// 逆启动顺序停止, 并处理退出升级与信号。
type LifecycleManager struct {
	registry       *Registry
	coordinator    *Coordinator
	hookManager    *hooks.Manager
	shutdownChan   chan os.Signal
	stopEvent      chan struct{}
	stopOnce       sync.Once
	mutex          sync.RWMutex
	shutdownCalled bool
	timeout        time.Duration
}

// NewLifecycleManager 创建新的生命周期管理器
func NewLifecycleManager(registry *Registry, coordinator *Coordinator) *LifecycleManager {
	return NewLifecycleManagerWithManager(registry, coordinator, hooks.NewManager())
}

// NewLifecycleManagerWithManager 使用指定钩子管理器创建 (App 传入全局管理器)
func NewLifecycleManagerWithManager(registry *Registry, coordinator *Coordinator, hm *hooks.Manager) *LifecycleManager {
	lm := &LifecycleManager{
		registry:     registry,
		coordinator:  coordinator,
		hookManager:  hm,
		shutdownChan: make(chan os.Signal, 1),
		stopEvent:    make(chan struct{}),
		timeout:      30 * time.Second,
	}
	// 退出升级策略属于 registry; 升级动作 (整体关停) 由 lifecycle 执行。
	registry.SetExitHandlers(
		func(ctx context.Context, name string, mode StartMode, cause error) {
			log.Printf("Component %s (%s) exited: %v", name, mode, cause)
		},
		func(ctx context.Context, name string, mode StartMode, cause error) {
			log.Printf("Component %s (%s) exit escalated, shutting down runtime", name, mode)
			lm.signalStop()
		},
	)
	return lm
}

// SetTimeout 设置组件启动/停止超时时间
func (lm *LifecycleManager) SetTimeout(timeout time.Duration) {
	lm.timeout = timeout
}

// AddHook 添加生命周期钩子
func (lm *LifecycleManager) AddHook(name string, phase hooks.Phase, function hooks.HookFunc, priority int) error {
	hook := &hooks.Hook{
		Name:     name,
		Phase:    phase,
		Function: function,
		Priority: priority,
	}
	return lm.hookManager.Register(hook)
}

// StartEntries 依次启动配置的顶层组件, coordinator 负责各自的传递依赖。
// 任一项失败时逆序停掉已启动的组件并返回错误。
func (lm *LifecycleManager) StartEntries(ctx context.Context, entries []StartEntry) error {
	if err := lm.hookManager.Execute(ctx, hooks.BeforeStart); err != nil {
		return fmt.Errorf("before_start hooks failed: %w", err)
	}

	for _, entry := range entries {
		startCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		out := lm.coordinator.StartWithArgs(startCtx, entry.Name, entry.Mode, entry.Args)
		cancel()

		if !out.Success() {
			err := out.Err()
			log.Printf("Failed to start component %s: %v", entry.Name, err)
			if stopErr := lm.registry.StopAll(context.Background()); stopErr != nil {
				log.Printf("Error during cleanup after failed start: %v", stopErr)
			}
			return fmt.Errorf("failed to start component %s: %w", entry.Name, err)
		}

		log.Printf("Component %s started successfully (mode=%s)", entry.Name, entry.Mode)
	}

	if err := lm.hookManager.Execute(ctx, hooks.AfterStart); err != nil {
		log.Printf("after_start hooks failed: %v", err)
	}

	return nil
}

// StopAll 停止所有运行中的组件
func (lm *LifecycleManager) StopAll(ctx context.Context) {
	lm.mutex.Lock()
	if lm.shutdownCalled {
		lm.mutex.Unlock()
		return
	}
	lm.shutdownCalled = true
	lm.mutex.Unlock()

	log.Println("Initiating shutdown sequence...")

	if err := lm.hookManager.Execute(ctx, hooks.BeforeShutdown); err != nil {
		log.Printf("before_shutdown hooks failed: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, lm.timeout)
	defer cancel()
	if err := lm.registry.StopAll(stopCtx); err != nil {
		log.Printf("Error stopping components: %v", err)
	}

	if err := lm.hookManager.Execute(ctx, hooks.AfterShutdown); err != nil {
		log.Printf("after_shutdown hooks failed: %v", err)
	}

	log.Println("Shutdown sequence completed")
}

func (lm *LifecycleManager) signalStop() {
	lm.stopOnce.Do(func() { close(lm.stopEvent) })
}

func (lm *LifecycleManager) setupSignalHandlers() {
	signal.Notify(lm.shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-lm.shutdownChan
		log.Printf("Received signal %v, shutting down...", sig)
		lm.signalStop()
	}()
}

// WaitForShutdown 阻塞直到信号、退出升级或 ctx 取消, 然后执行优雅关停
func (lm *LifecycleManager) WaitForShutdown(ctx context.Context) {
	lm.setupSignalHandlers()

	log.Println("Application running, waiting for shutdown signal...")

	select {
	case <-lm.stopEvent:
		log.Println("Shutdown signal received")
	case <-ctx.Done():
		log.Println("Context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), lm.timeout)
	defer cancel()

	lm.StopAll(shutdownCtx)
}
