package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/angelmondragon/nearbuy-backend/pkg/config"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	connectTimeout = 5 * time.Second

	// sqliteBusyTimeoutMs lets the sync worker and the API share one cache file.
	sqliteBusyTimeoutMs = 5000
)

// Client wraps a GORM connection to either the remote Postgres database or
// the embedded sqlite cache.
type Client struct {
	conn *gorm.DB
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New connects to the remote Postgres database and verifies it answers.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	client, err := open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), func(pool poolSetter) {
		if cfg.MaxOpenConns > 0 {
			pool.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			pool.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
		if cfg.ConnMaxIdleTime > 0 {
			pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "database connection established")
	}
	return client, nil
}

// OpenSQLite opens the embedded database that backs the local cache.
func OpenSQLite(ctx context.Context, path string, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	client, err := open(sqlite.Open(sqliteDSN(path)), func(pool poolSetter) {
		pool.SetMaxOpenConns(1)
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "path", path), "local cache opened")
	}
	return client, nil
}

type poolSetter interface {
	SetMaxOpenConns(int)
	SetMaxIdleConns(int)
	SetConnMaxLifetime(time.Duration)
	SetConnMaxIdleTime(time.Duration)
}

func open(dialector gorm.Dialector, tune func(poolSetter)) (*Client, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	if tune != nil {
		tune(sqlDB)
	}
	return &Client{conn: conn}, nil
}

// sqliteDSN appends a busy timeout unless the caller already chose one.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", path, sep, sqliteBusyTimeoutMs)
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn inside a transaction; any error or panic rolls it back.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}
