package registry

import (
	"github.com/grand-thief-cash/ignite/components/grpc_server"
	"github.com/grand-thief-cash/ignite/config"
	"github.com/grand-thief-cash/ignite/consts"
	"github.com/grand-thief-cash/ignite/core"
)

func init() {
	Register(consts.COMPONENT_GRPC_SERVER, func(cfg *config.AppConfig, reg *core.Registry) (bool, core.Component, error) {
		if cfg.GRPCServer == nil || !cfg.GRPCServer.Enabled {
			return false, nil, nil
		}
		factory := grpc_server.NewFactory(reg)
		comp, err := factory.Create(cfg.GRPCServer)
		if err != nil {
			return true, nil, err
		}
		return true, comp, nil
	})
}
