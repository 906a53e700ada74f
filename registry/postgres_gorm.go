package registry

import (
	"github.com/grand-thief-cash/ignite/components/postgresgorm"
	"github.com/grand-thief-cash/ignite/config"
	"github.com/grand-thief-cash/ignite/consts"
	"github.com/grand-thief-cash/ignite/core"
)

func init() {
	Register(consts.COMPONENT_POSTGRES_GORM, func(cfg *config.AppConfig, reg *core.Registry) (bool, core.Component, error) {
		if cfg.PGGorm == nil || !cfg.PGGorm.Enabled {
			return false, nil, nil
		}
		factory := postgresgorm.NewFactory()
		comp, err := factory.Create(cfg.PGGorm)
		if err != nil {
			return true, nil, err
		}
		return true, comp, nil
	})
}
