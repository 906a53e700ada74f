package grpc_server

import (
	"fmt"
	"time"

	"github.com/grand-thief-cash/ignite/core"
)

type Factory struct {
	registry *core.Registry
}

func NewFactory(reg *core.Registry) *Factory { return &Factory{registry: reg} }

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	c, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type for grpc_server component (*Config required)")
	}
	if c == nil || !c.Enabled {
		return nil, fmt.Errorf("grpc_server component disabled")
	}
	setDefaults(c)
	return NewGRPCServerComponent(c, f.registry), nil
}

func setDefaults(c *Config) {
	if c.Address == "" {
		c.Address = ":50051"
	}
	if c.MaxRecvMsgSize == 0 {
		c.MaxRecvMsgSize = 4 << 20 // 4MB
	}
	if c.MaxSendMsgSize == 0 {
		c.MaxSendMsgSize = 4 << 20
	}
	if c.GracefulTimeout == 0 {
		c.GracefulTimeout = 10 * time.Second
	}
}
