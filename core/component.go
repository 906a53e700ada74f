// core/component.go
package core

import "context"

// Component 定义可启动组件的基本接口。Start 为必选能力, 由接口静态约束;
// 可选的 Stop 见 Stopper, 未实现时 registry 在注册期绑定 no-op 默认实现。
type Component interface {
	Name() string
	Dependencies() []string
	// Start 必须返回 Started / StartedWithState / Failed 之一,
	// 其他种类在 registry 侧视为契约违反。
	Start(ctx context.Context, mode StartMode, args any) Outcome
}

// Stopper 可选的清理能力。state 为 StartedWithState 时保留的状态, 否则为 nil。
// 实现该接口即完全替换默认 no-op, 不做组合。
type Stopper interface {
	Stop(ctx context.Context, state any) error
}

// HealthChecker 可选的健康检查能力
type HealthChecker interface {
	HealthCheck() error
}

// BaseComponent 提供组件的名称与依赖声明
type BaseComponent struct {
	name string
	deps []string
}

// NewBaseComponent 创建基础组件
func NewBaseComponent(name string, deps ...string) *BaseComponent {
	return &BaseComponent{name: name, deps: deps}
}

func (c *BaseComponent) Name() string {
	return c.name
}

func (c *BaseComponent) Dependencies() []string {
	return c.deps
}

// AddDependencies 允许在组件注册后、启动前动态扩展其依赖
// (autowire 注入成功后用它追加运行期依赖, 保证启动顺序约束)。
func (c *BaseComponent) AddDependencies(deps ...string) {
	if len(deps) == 0 {
		return
	}
	c.deps = append(c.deps, deps...)
}

// ComponentFunc 用回调组装组件, 便于测试与内联小组件。
// StartFn 为 nil 时 Start 直接返回 Started(nil)。
type ComponentFunc struct {
	ComponentName string
	Deps          []string
	StartFn       func(ctx context.Context, mode StartMode, args any) Outcome
	StopFn        func(ctx context.Context, state any) error
}

func (c *ComponentFunc) Name() string { return c.ComponentName }

func (c *ComponentFunc) Dependencies() []string { return c.Deps }

func (c *ComponentFunc) Start(ctx context.Context, mode StartMode, args any) Outcome {
	if c.StartFn == nil {
		return Started(nil)
	}
	return c.StartFn(ctx, mode, args)
}

func (c *ComponentFunc) Stop(ctx context.Context, state any) error {
	if c.StopFn == nil {
		return nil
	}
	return c.StopFn(ctx, state)
}
