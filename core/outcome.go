// core/outcome.go
package core

import (
	"errors"
	"fmt"
)

// StartMode 组件启动模式: 决定组件退出时 registry 的升级策略
type StartMode int

const (
	// Temporary 退出仅记录, 不升级 (依赖组件一律使用该模式)
	Temporary StartMode = iota
	// Transient 异常退出触发整体关停, 正常退出仅记录
	Transient
	// Permanent 任何退出都触发整体关停
	Permanent
)

func (m StartMode) String() string {
	switch m {
	case Temporary:
		return "temporary"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseStartMode 解析配置中的模式字符串, 空串回退 Temporary
func ParseStartMode(s string) (StartMode, error) {
	switch s {
	case "", "temporary":
		return Temporary, nil
	case "transient":
		return Transient, nil
	case "permanent":
		return Permanent, nil
	default:
		return Temporary, fmt.Errorf("unknown start mode: %q", s)
	}
}

// OutcomeKind 启动结果分类
type OutcomeKind int

const (
	KindStarted OutcomeKind = iota
	KindStartedWithState
	KindAlreadyRunning
	KindMissingDependency
	KindFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindStartedWithState:
		return "started_with_state"
	case KindAlreadyRunning:
		return "already_running"
	case KindMissingDependency:
		return "missing_dependency"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrUnknownComponent = errors.New("component not registered")
	ErrBadStartOutcome  = errors.New("component Start returned an invalid outcome kind")
	ErrDepthExceeded    = errors.New("dependency resolution depth exceeded")
)

// Outcome 组件启动的带标签结果。Handle/State 对框架透明, State 会在 Stop 时原样交还组件。
type Outcome struct {
	Kind    OutcomeKind
	Handle  any
	State   any
	Missing string // KindMissingDependency: 未运行的依赖名
	Reason  error  // KindFailed: 原始失败原因, 不做包装
}

// Started 启动成功, 无附加状态
func Started(handle any) Outcome {
	return Outcome{Kind: KindStarted, Handle: handle}
}

// StartedWithState 启动成功并附带状态, registry 保留该状态直到 Stop
func StartedWithState(handle, state any) Outcome {
	return Outcome{Kind: KindStartedWithState, Handle: handle, State: state}
}

// AlreadyRunning 组件已在运行, 等同成功
func AlreadyRunning() Outcome {
	return Outcome{Kind: KindAlreadyRunning}
}

// MissingDependency 依赖 name 未运行, 由 coordinator 递归解决
func MissingDependency(name string) Outcome {
	return Outcome{Kind: KindMissingDependency, Missing: name}
}

// Failed 其他失败, Reason 原样透传给调用方
func Failed(reason error) Outcome {
	return Outcome{Kind: KindFailed, Reason: reason}
}

// Success 判定结果是否算作成功 (AlreadyRunning 归一化为成功)
func (o Outcome) Success() bool {
	switch o.Kind {
	case KindStarted, KindStartedWithState, KindAlreadyRunning:
		return true
	default:
		return false
	}
}

// Err 将失败结果转换为 error, 成功返回 nil
func (o Outcome) Err() error {
	switch o.Kind {
	case KindFailed:
		return o.Reason
	case KindMissingDependency:
		return fmt.Errorf("dependency %s not running", o.Missing)
	default:
		return nil
	}
}
