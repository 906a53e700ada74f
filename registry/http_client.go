package registry

import (
	"github.com/grand-thief-cash/ignite/components/http_client"
	"github.com/grand-thief-cash/ignite/config"
	"github.com/grand-thief-cash/ignite/consts"
	"github.com/grand-thief-cash/ignite/core"
)

func init() {
	Register(consts.COMPONENT_HTTP_CLIENTS, func(cfg *config.AppConfig, reg *core.Registry) (bool, core.Component, error) {
		if cfg.HTTPClients == nil || !cfg.HTTPClients.Enabled {
			return false, nil, nil
		}
		factory := http_client.NewFactory()
		comp, err := factory.Create(cfg.HTTPClients)
		if err != nil {
			return true, nil, err
		}
		return true, comp, nil
	})
}
