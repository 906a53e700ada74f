// components/redis/redis_component.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/ignite/components/logging"
	"github.com/grand-thief-cash/ignite/consts"
	"github.com/grand-thief-cash/ignite/core"
)

type RedisComponent struct {
	*core.BaseComponent
	cfg    *Config
	client redis.UniversalClient
}

func NewRedisComponent(cfg *Config) *RedisComponent {
	return &RedisComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_REDIS, consts.COMPONENT_LOGGING),
		cfg:           cfg,
	}
}

// Start 建立 universal client。保留状态为 client 本身, Stop 时交还并关闭。
func (rc *RedisComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	if rc.cfg == nil {
		return core.Failed(errors.New("redis config nil"))
	}
	if len(rc.cfg.Addresses) == 0 {
		return core.Failed(fmt.Errorf("redis addresses empty"))
	}

	switch strings.ToLower(rc.cfg.Mode) {
	case "single", "cluster", "sentinel":
		if rc.cfg.Mode == "sentinel" && rc.cfg.SentinelMaster == "" {
			return core.Failed(fmt.Errorf("sentinel mode requires sentinel_master"))
		}
	default:
		return core.Failed(fmt.Errorf("unknown redis mode: %s", rc.cfg.Mode))
	}

	opts := &redis.UniversalOptions{
		Addrs:        rc.cfg.Addresses,
		DB:           rc.cfg.DB,
		Username:     rc.cfg.Username,
		Password:     rc.cfg.Password,
		MasterName:   rc.cfg.SentinelMaster,
		PoolSize:     rc.cfg.PoolSize,
		MinIdleConns: rc.cfg.MinIdleConns,

		DialTimeout:  rc.cfg.DialTimeout,
		ReadTimeout:  rc.cfg.ReadTimeout,
		WriteTimeout: rc.cfg.WriteTimeout,

		ConnMaxLifetime: rc.cfg.ConnMaxLifetime,
		ConnMaxIdleTime: rc.cfg.ConnMaxIdleTime,
	}

	client := redis.NewUniversalClient(opts)

	if rc.cfg.PingOnStart {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := client.Ping(pingCtx).Result(); err != nil {
			_ = client.Close()
			return core.Failed(fmt.Errorf("redis ping failed: %w", err))
		}
	}

	rc.client = client
	logging.Info(ctx, "redis component started",
		zap.String("mode", rc.cfg.Mode),
		zap.Strings("addrs", rc.cfg.Addresses),
	)
	return core.StartedWithState(rc, client)
}

// Stop 关闭保留的 client
func (rc *RedisComponent) Stop(ctx context.Context, state any) error {
	client, ok := state.(redis.UniversalClient)
	if !ok || client == nil {
		client = rc.client
	}
	if client != nil {
		_ = client.Close()
		logging.Info(ctx, "redis component stopped")
	}
	rc.client = nil
	return nil
}

func (rc *RedisComponent) HealthCheck() error {
	if rc.client == nil {
		return fmt.Errorf("redis client nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := rc.client.Ping(ctx).Result()
	return err
}

func (rc *RedisComponent) Client() redis.UniversalClient {
	return rc.client
}
