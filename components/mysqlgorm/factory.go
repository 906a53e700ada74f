package mysqlgorm

import (
	"fmt"

	"github.com/grand-thief-cash/ignite/core"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	gormCfg, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type for mysql_gorm component (need *Config)")
	}
	if !gormCfg.Enabled {
		return nil, fmt.Errorf("mysql_gorm component disabled")
	}
	if len(gormCfg.DataSources) == 0 {
		return nil, fmt.Errorf("mysql_gorm component has no data_sources")
	}
	return NewGormComponent(gormCfg), nil
}
