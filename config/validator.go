// config/validator.go
package config

import (
	"fmt"
)

// Validator 配置验证器
type Validator struct{}

// NewValidator 创建配置验证器
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAppConfig 验证配置
func (v *Validator) ValidateAppConfig(config *AppConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	seen := make(map[string]struct{}, len(config.Start))
	for _, e := range config.Start {
		if e == nil || e.Component == "" {
			return fmt.Errorf("start entry missing component name")
		}
		if _, dup := seen[e.Component]; dup {
			return fmt.Errorf("duplicate start entry: %s", e.Component)
		}
		seen[e.Component] = struct{}{}
	}
	if config.Coordinator != nil && config.Coordinator.MaxDepth < 0 {
		return fmt.Errorf("coordinator max_depth cannot be negative")
	}
	return nil
}

func (v *Validator) validateConfigFilePath(env string, path string) error {
	if path == "" {
		return fmt.Errorf("config file path cannot be empty")
	}
	if len(path) > 255 {
		return fmt.Errorf("config file path is too long")
	}
	if !fileExists(path) {
		return fmt.Errorf("config file does not exist: %s", path)
	}
	return nil
}
