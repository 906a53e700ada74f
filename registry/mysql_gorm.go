package registry

import (
	"github.com/grand-thief-cash/ignite/components/mysqlgorm"
	"github.com/grand-thief-cash/ignite/config"
	"github.com/grand-thief-cash/ignite/consts"
	"github.com/grand-thief-cash/ignite/core"
)

func init() {
	Register(consts.COMPONENT_MYSQL_GORM, func(cfg *config.AppConfig, reg *core.Registry) (bool, core.Component, error) {
		if cfg.MySQLGorm == nil || !cfg.MySQLGorm.Enabled {
			return false, nil, nil
		}
		factory := mysqlgorm.NewFactory()
		comp, err := factory.Create(cfg.MySQLGorm)
		if err != nil {
			return true, nil, err
		}
		return true, comp, nil
	})
}
