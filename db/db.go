package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	_ "github.com/lib/pq"

	"github.com/envelope-app/segora-backend/config"
	"github.com/envelope-app/segora-backend/log"
)

// DB bundles the relational store and the Redis client used for carts,
// token revocation and pub/sub.
type DB struct {
	Db    *sql.DB
	Redis *redis.Client

	cartTTL time.Duration
}

// Init opens and pings Postgres and Redis.
func Init(ctx context.Context, cfg *config.Config) (*DB, error) {
	pg, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pg.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	pg.SetConnMaxIdleTime(20 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pg.PingContext(pingCtx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Info.Printf("Connected to Postgres\n")

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping().Err(); err != nil {
		pg.Close()
		rc.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info.Printf("Connected to Redis at %s\n", opts.Addr)

	cartTTL, err := cfg.CartTTL()
	if err != nil {
		pg.Close()
		rc.Close()
		return nil, err
	}

	return New(pg, rc, cartTTL), nil
}

// New wraps already opened clients.
func New(pg *sql.DB, rc *redis.Client, cartTTL time.Duration) *DB {
	return &DB{Db: pg, Redis: rc, cartTTL: cartTTL}
}

// Ping checks both backends.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := d.Redis.Ping().Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	rerr := d.Redis.Close()
	if err := d.Db.Close(); err != nil {
		return err
	}
	return rerr
}

// withTx runs fn inside a transaction, rolling back on error.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			log.Warn.Printf("rollback: %v\n", rerr)
		}
		return err
	}
	return tx.Commit()
}
