// components/logging/factory.go
package logging

import (
	"fmt"

	"github.com/grand-thief-cash/ignite/core"
)

// Factory 日志组件工厂
type Factory struct{}

// NewFactory 创建日志组件工厂
func NewFactory() *Factory {
	return &Factory{}
}

// Create 创建日志组件实例
func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	loggingConfig, ok := cfg.(*LoggingConfig)
	if !ok {
		return nil, fmt.Errorf("invalid config type for logging component, expected *LoggingConfig")
	}
	if !loggingConfig.Enabled {
		return nil, fmt.Errorf("logging component is disabled")
	}

	f.setDefaults(loggingConfig)
	if err := f.validate(loggingConfig); err != nil {
		return nil, err
	}

	return NewLoggerComponent(loggingConfig), nil
}

// setDefaults 设置默认配置值
func (f *Factory) setDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
	if cfg.Output == "file" && cfg.FileConfig == nil {
		cfg.FileConfig = &FileConfig{Dir: "./logs", Filename: "app"}
	}
}

func (f *Factory) validate(cfg *LoggingConfig) error {
	if cfg.Rotate != nil && cfg.Rotate.Enabled {
		if cfg.Rotate.MaxSizeMB < 0 {
			return fmt.Errorf("logging.rotate_config.max_size_mb cannot be negative")
		}
		if cfg.Rotate.MaxAgeDays < 0 {
			return fmt.Errorf("logging.rotate_config.max_age_days cannot be negative")
		}
	}
	return nil
}
