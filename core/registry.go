// core/registry.go
package core

import (
	"context"
	"fmt"
	"sync"
)

// StopFunc 注册期解析出的停止回调
type StopFunc func(ctx context.Context, state any) error

// EscalateFunc 在 Permanent / 异常 Transient 组件退出时被调用, 负责整体关停
type EscalateFunc func(ctx context.Context, name string, mode StartMode, cause error)

// spec 组件的注册记录。依赖在每次启动尝试时从组件现读
// (autowire 注入后可能追加运行期依赖)。
type spec struct {
	component Component
	stop      StopFunc
}

// running 运行中组件的记录
type running struct {
	handle any
	state  any
	mode   StartMode
}

// Registry 组件注册表: 哪些组件存在、哪些正在运行的唯一权威。
// 每次 StartComponent 调用都以当前运行集为准, 不做任何跨调用缓存。
type Registry struct {
	mu         sync.RWMutex
	specs      map[string]*spec
	runningSet map[string]*running
	startOrder []string // 启动顺序, StopAll 逆序使用
	configs    map[string]any

	onExit     func(ctx context.Context, name string, mode StartMode, cause error)
	onEscalate EscalateFunc
}

// NewRegistry 创建新的注册表实例
func NewRegistry() *Registry {
	return &Registry{
		specs:      make(map[string]*spec),
		runningSet: make(map[string]*running),
		configs:    make(map[string]any),
	}
}

// Register 注册组件。未实现 Stopper 的组件在此绑定 no-op 停止回调
// (默认实现在注册期解析, 实现 Stopper 即完全替换)。
func (r *Registry) Register(component Component) error {
	if component == nil {
		return fmt.Errorf("component cannot be nil")
	}
	name := component.Name()
	if name == "" {
		return fmt.Errorf("component name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	stop := noopStop
	if s, ok := component.(Stopper); ok {
		stop = s.Stop
	}
	r.specs[name] = &spec{component: component, stop: stop}
	return nil
}

func noopStop(ctx context.Context, state any) error { return nil }

// Resolve 从注册表中获取组件
func (r *Registry) Resolve(name string) (Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.specs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, name)
	}
	return s.component, nil
}

// ListRegistered 列出所有已注册的组件
func (r *Registry) ListRegistered() map[string]Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Component, len(r.specs))
	for name, s := range r.specs {
		result[name] = s.component
	}
	return result
}

// Running 查询组件是否在运行
func (r *Registry) Running(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, up := r.runningSet[name]
	return up
}

// ListRunning 按启动顺序返回运行中的组件名
func (r *Registry) ListRunning() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.startOrder...)
}

// RunningState 返回运行中组件保留的状态 (StartedWithState 保存的值)
func (r *Registry) RunningState(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, up := r.runningSet[name]
	if !up {
		return nil, false
	}
	return rec.state, true
}

// SetConfig 设置组件配置
func (r *Registry) SetConfig(name string, config any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[name] = config
}

// GetConfig 获取组件配置
func (r *Registry) GetConfig(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	config, exists := r.configs[name]
	return config, exists
}

// SetExitHandlers 由 lifecycle 注入: onExit 记录所有退出, onEscalate 执行整体关停
func (r *Registry) SetExitHandlers(onExit func(ctx context.Context, name string, mode StartMode, cause error), onEscalate EscalateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExit = onExit
	r.onEscalate = onEscalate
}

// StartComponent 原语启动: 对 name 做一次分类启动尝试。
// 分类规则:
//   - 未注册           -> Failed(ErrUnknownComponent)
//   - 已运行           -> AlreadyRunning
//   - 首个未运行的依赖 -> MissingDependency(dep)
//   - 其余             -> 调用组件 Start, 成功则记录运行状态
//
// 组件回调期间不持锁, 保证可重入 (组件 Start 内允许再调用 registry)。
// 并发去重依赖调用方与组件自身幂等; 回调返回后再次核对运行集。
func (r *Registry) StartComponent(ctx context.Context, name string, mode StartMode, args any) Outcome {
	r.mu.RLock()
	s, exists := r.specs[name]
	if !exists {
		r.mu.RUnlock()
		return Failed(fmt.Errorf("%w: %s", ErrUnknownComponent, name))
	}
	if _, up := r.runningSet[name]; up {
		r.mu.RUnlock()
		return AlreadyRunning()
	}
	for _, dep := range s.component.Dependencies() {
		if _, up := r.runningSet[dep]; !up {
			r.mu.RUnlock()
			return MissingDependency(dep)
		}
	}
	component := s.component
	r.mu.RUnlock()

	out := component.Start(ctx, mode, args)
	switch out.Kind {
	case KindStarted, KindStartedWithState:
		r.mu.Lock()
		if _, up := r.runningSet[name]; up {
			r.mu.Unlock()
			return AlreadyRunning()
		}
		r.runningSet[name] = &running{handle: out.Handle, state: out.State, mode: mode}
		r.startOrder = append(r.startOrder, name)
		r.mu.Unlock()
		return out
	case KindFailed:
		return out
	default:
		// 组件作者返回了 AlreadyRunning / MissingDependency 等非法种类
		return Failed(fmt.Errorf("%w: %s returned %s", ErrBadStartOutcome, name, out.Kind))
	}
}

// StopComponent 停止单个组件: 调用注册期绑定的停止回调并交还保留状态
func (r *Registry) StopComponent(ctx context.Context, name string) error {
	r.mu.Lock()
	s, exists := r.specs[name]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownComponent, name)
	}
	rec, up := r.runningSet[name]
	if !up {
		r.mu.Unlock()
		return nil
	}
	delete(r.runningSet, name)
	for i, n := range r.startOrder {
		if n == name {
			r.startOrder = append(r.startOrder[:i], r.startOrder[i+1:]...)
			break
		}
	}
	stop := s.stop
	state := rec.state
	r.mu.Unlock()

	return stop(ctx, state)
}

// StopAll 按启动顺序的逆序停止所有运行中的组件, 返回首个停止错误
func (r *Registry) StopAll(ctx context.Context) error {
	order := r.ListRunning()
	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		if err := r.StopComponent(ctx, order[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ComponentExited 组件运行期退出上报。按启动时记录的模式执行升级策略:
// Permanent 一律升级; Transient 仅异常退出升级; Temporary 只记录。
func (r *Registry) ComponentExited(ctx context.Context, name string, cause error) {
	r.mu.Lock()
	rec, up := r.runningSet[name]
	if !up {
		r.mu.Unlock()
		return
	}
	delete(r.runningSet, name)
	for i, n := range r.startOrder {
		if n == name {
			r.startOrder = append(r.startOrder[:i], r.startOrder[i+1:]...)
			break
		}
	}
	mode := rec.mode
	onExit := r.onExit
	onEscalate := r.onEscalate
	r.mu.Unlock()

	if onExit != nil {
		onExit(ctx, name, mode, cause)
	}
	escalate := mode == Permanent || (mode == Transient && cause != nil)
	if escalate && onEscalate != nil {
		onEscalate(ctx, name, mode, cause)
	}
}

// HealthCheckAll 对实现 HealthChecker 的运行中组件执行健康检查
func (r *Registry) HealthCheckAll() map[string]error {
	r.mu.RLock()
	checks := make(map[string]HealthChecker)
	for _, name := range r.startOrder {
		if hc, ok := r.specs[name].component.(HealthChecker); ok {
			checks[name] = hc
		}
	}
	r.mu.RUnlock()

	result := make(map[string]error, len(checks))
	for name, hc := range checks {
		result[name] = hc.HealthCheck()
	}
	return result
}
