// components/mysql/mysql_component.go
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/grand-thief-cash/ignite/components/logging"
	"github.com/grand-thief-cash/ignite/consts"
	"github.com/grand-thief-cash/ignite/core"
)

type MysqlComponent struct {
	*core.BaseComponent
	cfg       *Config
	databases map[string]*sql.DB
	mutex     sync.RWMutex
}

func NewMySQLComponent(cfg *Config) *MysqlComponent {
	return &MysqlComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_MYSQL, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		databases:     make(map[string]*sql.DB),
	}
}

// Start opens every configured datasource. The opened pool map is retained as
// start state and handed back on Stop.
func (c *MysqlComponent) Start(ctx context.Context, mode core.StartMode, args any) core.Outcome {
	if c.cfg == nil || !c.cfg.Enabled {
		return core.Failed(fmt.Errorf("mysql component enabled flag mismatch"))
	}
	if len(c.cfg.DataSources) == 0 {
		return core.Failed(fmt.Errorf("no mysql data_sources configured"))
	}

	opened := make(map[string]*sql.DB, len(c.cfg.DataSources))
	closeOpened := func() {
		for _, db := range opened {
			_ = db.Close()
		}
	}

	for name, ds := range c.cfg.DataSources {
		if ds == nil {
			closeOpened()
			return core.Failed(fmt.Errorf("datasource %s config is nil", name))
		}
		dsn, err := c.buildDSN(ds)
		if err != nil {
			closeOpened()
			return core.Failed(fmt.Errorf("build dsn for %s failed: %w", name, err))
		}

		db, err := sql.Open("mysql", dsn)
		if err != nil {
			closeOpened()
			return core.Failed(fmt.Errorf("open db %s failed: %w", name, err))
		}

		// Pool settings with sane defaults
		if ds.MaxOpenConns > 0 {
			db.SetMaxOpenConns(ds.MaxOpenConns)
		} else {
			db.SetMaxOpenConns(50)
		}
		if ds.MaxIdleConns > 0 {
			db.SetMaxIdleConns(ds.MaxIdleConns)
		} else {
			db.SetMaxIdleConns(10)
		}
		if ds.ConnMaxLife > 0 {
			db.SetConnMaxLifetime(ds.ConnMaxLife)
		} else {
			db.SetConnMaxLifetime(60 * time.Minute)
		}
		if ds.ConnMaxIdle > 0 {
			db.SetConnMaxIdleTime(ds.ConnMaxIdle)
		}

		if ds.PingOnStart {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := db.PingContext(pingCtx); err != nil {
				cancel()
				_ = db.Close()
				closeOpened()
				return core.Failed(fmt.Errorf("ping db %s failed: %w", name, err))
			}
			cancel()
		}

		opened[name] = db
		logging.Infof(ctx, "[mysql] datasource %s initialized", name)
	}

	c.mutex.Lock()
	c.databases = opened
	c.mutex.Unlock()

	logging.Infof(ctx, "[mysql] component started. data sources=%v", c.listNames())
	return core.StartedWithState(c, opened)
}

// Stop closes the retained pools.
func (c *MysqlComponent) Stop(ctx context.Context, state any) error {
	pools, ok := state.(map[string]*sql.DB)
	if !ok {
		c.mutex.RLock()
		pools = c.databases
		c.mutex.RUnlock()
	}
	for name, db := range pools {
		if db != nil {
			_ = db.Close()
			logging.Infof(ctx, "[mysql] datasource %s closed", name)
		}
	}
	c.mutex.Lock()
	c.databases = make(map[string]*sql.DB)
	c.mutex.Unlock()
	return nil
}

func (c *MysqlComponent) HealthCheck() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if len(c.databases) == 0 {
		return fmt.Errorf("mysql component not started")
	}
	for name, db := range c.databases {
		if db == nil {
			return fmt.Errorf("datasource %s not initialized", name)
		}
		if err := db.Ping(); err != nil {
			return fmt.Errorf("datasource %s ping failed: %w", name, err)
		}
	}
	return nil
}

// GetDB returns *sql.DB by datasource name.
func (c *MysqlComponent) GetDB(name string) (*sql.DB, error) {
	c.mutex.RLock()
	db, ok := c.databases[name]
	c.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mysql datasource %s not found", name)
	}
	return db, nil
}

func (c *MysqlComponent) buildDSN(ds *DataSourceConfig) (string, error) {
	if strings.TrimSpace(ds.DSN) != "" {
		return ds.DSN, nil
	}
	if ds.Host == "" || ds.User == "" || ds.Database == "" {
		return "", fmt.Errorf("host, user, database required when dsn not provided")
	}
	port := ds.Port
	if port == 0 {
		port = 3306
	}

	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("charset", "utf8mb4")
	params.Set("loc", "Local")

	for k, v := range ds.Params {
		params.Set(k, v)
	}

	// DSN format: user:password@tcp(host:port)/dbname?param=val
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		ds.User, ds.Password, ds.Host, port, ds.Database, params.Encode()), nil
}

func (c *MysqlComponent) listNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	names := make([]string, 0, len(c.databases))
	for k := range c.databases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
