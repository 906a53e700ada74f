// config/schema.go
package config

import (
	"fmt"

	"github.com/grand-thief-cash/ignite/components/grpc_server"
	"github.com/grand-thief-cash/ignite/components/http_client"
	"github.com/grand-thief-cash/ignite/components/http_server"
	"github.com/grand-thief-cash/ignite/components/logging"
	"github.com/grand-thief-cash/ignite/components/mysql"
	"github.com/grand-thief-cash/ignite/components/mysqlgorm"
	"github.com/grand-thief-cash/ignite/components/postgresgorm"
	"github.com/grand-thief-cash/ignite/components/prometheus"
	"github.com/grand-thief-cash/ignite/components/redis"
	"github.com/grand-thief-cash/ignite/components/telemetry"
	"github.com/grand-thief-cash/ignite/core"
)

// AppConfig 应用程序配置结构
type AppConfig struct {
	APPInfo     *APPInfo                       `yaml:"app_info" json:"app_info"`
	Logging     *logging.LoggingConfig         `yaml:"logging" json:"logging"`
	MySQL       *mysql.Config                  `yaml:"mysql" json:"mysql"`
	MySQLGorm   *mysqlgorm.Config              `yaml:"mysql_gorm" json:"mysql_gorm"`
	PGGorm      *postgresgorm.Config           `yaml:"postgres_gorm" json:"postgres_gorm"`
	Redis       *redis.Config                  `yaml:"redis" json:"redis"`
	HTTPServer  *http_server.HTTPServerConfig  `yaml:"http_server" json:"http_server"`
	HTTPClients *http_client.HTTPClientsConfig `yaml:"http_clients" json:"http_clients"`
	GRPCServer  *grpc_server.Config            `yaml:"grpc_server" json:"grpc_server"`
	Prometheus  *prometheus.Config             `yaml:"prometheus" json:"prometheus"`
	Telemetry   *telemetry.Config              `yaml:"telemetry" json:"telemetry"`

	// Start 顶层启动项, coordinator 从这里出发递归解决依赖
	Start []*StartEntryConfig `yaml:"start" json:"start"`
	// Coordinator 协调器选项
	Coordinator *CoordinatorConfig `yaml:"coordinator" json:"coordinator"`

	// BizConfig 业务方自定义配置子树
	BizConfig any `yaml:"biz_config" json:"biz_config"`
}

type APPInfo struct {
	APPName string `yaml:"app_name" json:"app_name"`
	ENV     string `yaml:"env" json:"env"`
}

// StartEntryConfig 单个顶层启动项。Mode 为空时默认 temporary。
type StartEntryConfig struct {
	Component string `yaml:"component" json:"component"`
	Mode      string `yaml:"mode" json:"mode"`
}

// CoordinatorConfig 协调器配置。MaxDepth=0 表示不限制递归深度。
type CoordinatorConfig struct {
	MaxDepth int `yaml:"max_depth" json:"max_depth"`
}

// StartEntries 将配置项转换为 core.StartEntry, 校验模式字符串
func (c *AppConfig) StartEntries() ([]core.StartEntry, error) {
	entries := make([]core.StartEntry, 0, len(c.Start))
	for _, e := range c.Start {
		if e == nil || e.Component == "" {
			return nil, fmt.Errorf("start entry missing component name")
		}
		mode, err := core.ParseStartMode(e.Mode)
		if err != nil {
			return nil, fmt.Errorf("start entry %s: %w", e.Component, err)
		}
		entries = append(entries, core.StartEntry{Name: e.Component, Mode: mode})
	}
	return entries, nil
}
