package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Username        string
	Password        string
	Database        string
}

type Database struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

// Addr extracts host:port from a DSN. Both "clickhouse://host:9000?x=y" and a bare
// "host:9000" are accepted.
func Addr(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("empty clickhouse dsn")
	}
	u, err := url.Parse(dsn)
	if err == nil && u.Host != "" {
		return u.Host, nil
	}
	u, err = url.Parse("clickhouse://" + dsn)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid clickhouse dsn %q", dsn)
	}
	return u.Host, nil
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*Database, error) {
	host, err := Addr(opts.DSN)
	if err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     []string{host},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout:     time.Second * 30,
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.Info("connected to clickhouse", zap.String("addr", host), zap.String("database", opts.Database))
	return &Database{
		conn:   conn,
		logger: logger,
	}, nil
}

func (db *Database) Close() error {
	return db.conn.Close()
}

func (db *Database) Conn() clickhouse.Conn {
	return db.conn
}
