// core/coordinator.go
package core

import "context"

// Starter 是 coordinator 对 registry 的最小依赖面, 测试可用脚本化假实现替换
type Starter interface {
	StartComponent(ctx context.Context, name string, mode StartMode, args any) Outcome
}

// Coordinator 递归解决依赖的启动协调器。
// 对单个组件的启动请求, 沿 registry 报告的缺失依赖深度优先下钻,
// 依赖满足后重试原请求; registry 的错误通道即工作队列。
type Coordinator struct {
	starter  Starter
	maxDepth int // 0 表示不设上限 (忠实于来源行为, 依赖环会无限递归)
}

// CoordinatorOption 协调器可选项
type CoordinatorOption func(*Coordinator)

// WithMaxDepth 启用递归深度上限, 超限返回 Failed(ErrDepthExceeded)。
// 默认不启用: 依赖环导致的无限递归是已知且保留的行为。
func WithMaxDepth(n int) CoordinatorOption {
	return func(c *Coordinator) { c.maxDepth = n }
}

// NewCoordinator 创建启动协调器
func NewCoordinator(starter Starter, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{starter: starter}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start 启动 name 及其全部传递依赖。mode 只作用于 name 本身,
// 依赖一律以 Temporary 启动。AlreadyRunning 归一化为成功。
func (c *Coordinator) Start(ctx context.Context, name string, mode StartMode) Outcome {
	return c.start(ctx, name, mode, nil, 0)
}

// StartWithArgs 同 Start, 附带透传给组件 Start 的参数
func (c *Coordinator) StartWithArgs(ctx context.Context, name string, mode StartMode, args any) Outcome {
	return c.start(ctx, name, mode, args, 0)
}

func (c *Coordinator) start(ctx context.Context, name string, mode StartMode, args any, depth int) Outcome {
	if c.maxDepth > 0 && depth > c.maxDepth {
		return Failed(ErrDepthExceeded)
	}

	out := c.starter.StartComponent(ctx, name, mode, args)
	if out.Kind != KindMissingDependency {
		// Started / StartedWithState / AlreadyRunning / Failed 原样返回,
		// 缺依赖之外的失败不重试。
		return out
	}

	dep := c.start(ctx, out.Missing, Temporary, nil, depth+1)
	if !dep.Success() {
		// 依赖解决失败原样上抛, 不重试原组件
		return dep
	}
	// 依赖满足后重回第一步; 组件声明多个未启动依赖时逐个排空
	return c.start(ctx, name, mode, args, depth+1)
}
