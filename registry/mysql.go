package registry

import (
	"github.com/grand-thief-cash/ignite/components/mysql"
	"github.com/grand-thief-cash/ignite/config"
	"github.com/grand-thief-cash/ignite/consts"
	"github.com/grand-thief-cash/ignite/core"
)

func init() {
	Register(consts.COMPONENT_MYSQL, func(cfg *config.AppConfig, reg *core.Registry) (bool, core.Component, error) {
		if cfg.MySQL == nil || !cfg.MySQL.Enabled {
			return false, nil, nil
		}
		factory := mysql.NewFactory()
		comp, err := factory.Create(cfg.MySQL)
		if err != nil {
			return true, nil, err
		}
		return true, comp, nil
	})
}
