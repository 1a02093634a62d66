// Package postgres opens the server database used by the postgres store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Pool sizes the connection pool and bounds the initial ping.
type Pool struct {
	MaxConns       int
	ConnectTimeout time.Duration
}

// Connect opens databaseURL and waits for the server to answer.
func Connect(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if pool.MaxConns > 0 {
		db.SetMaxOpenConns(pool.MaxConns)
		db.SetMaxIdleConns(max(1, pool.MaxConns/4))
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pool.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}
