package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	_ "github.com/lib/pq"
)

// PoolSettings sizes the connection pool. A transfer holds one connection for
// its whole unit of work, so MaxOpen caps how many commits run at once.
type PoolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		MaxOpen:     30,
		MaxIdle:     20,
		MaxIdleTime: 5 * time.Minute,
		MaxLifetime: 15 * time.Minute,
	}
}

type openOptions struct {
	pool          PoolSettings
	retryInterval time.Duration
}

type OpenOption func(*openOptions)

// WithPool overrides the pool sizing. Zero fields keep their defaults.
func WithPool(settings PoolSettings) OpenOption {
	return func(o *openOptions) {
		if settings.MaxOpen > 0 {
			o.pool.MaxOpen = settings.MaxOpen
		}
		if settings.MaxIdle > 0 {
			o.pool.MaxIdle = settings.MaxIdle
		}
		if settings.MaxIdleTime > 0 {
			o.pool.MaxIdleTime = settings.MaxIdleTime
		}
		if settings.MaxLifetime > 0 {
			o.pool.MaxLifetime = settings.MaxLifetime
		}
	}
}

func WithPingRetryInterval(interval time.Duration) OpenOption {
	return func(o *openOptions) {
		if interval > 0 {
			o.retryInterval = interval
		}
	}
}

// Open connects to the ledger database and keeps pinging until it answers or
// ctx is done.
func Open(ctx context.Context, dsn string, opts ...OpenOption) (*sql.DB, error) {
	o := openOptions{pool: DefaultPoolSettings(), retryInterval: time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pool.MaxIdle > o.pool.MaxOpen {
		o.pool.MaxIdle = o.pool.MaxOpen
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(o.pool.MaxOpen)
	db.SetMaxIdleConns(o.pool.MaxIdle)
	db.SetConnMaxIdleTime(o.pool.MaxIdleTime)
	db.SetConnMaxLifetime(o.pool.MaxLifetime)

	if err := waitForPing(ctx, db, o.retryInterval); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func waitForPing(ctx context.Context, db *sql.DB, interval time.Duration) error {
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}

		logger.Warn("postgres not ready", logger.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		})

		select {
		case <-ctx.Done():
			return fmt.Errorf("ping postgres after %d attempts: %w", attempt, err)
		case <-time.After(interval):
		}
	}
}
