package http_server

import (
	"fmt"

	"github.com/grand-thief-cash/ignite/core"
)

type Factory struct {
	registry *core.Registry
}

func NewFactory(reg *core.Registry) *Factory { return &Factory{registry: reg} }

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	httpCfg, ok := cfg.(*HTTPServerConfig)
	if !ok {
		return nil, fmt.Errorf("invalid config type for http_server component (need *HTTPServerConfig)")
	}
	if !httpCfg.Enabled {
		return nil, fmt.Errorf("http_server component disabled")
	}
	return NewHTTPServerComponent(httpCfg, f.registry), nil
}
