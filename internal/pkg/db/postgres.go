// Package db owns the PostgreSQL pool backing credits, history and host stats.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"room-game-bot/internal/config"
)

const (
	defaultConnectTimeout  = 10 * time.Second
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = 30 * time.Minute
	healthCheckPeriod      = 30 * time.Second
)

// Pool is the shared connection pool handed to every repository.
type Pool struct {
	*pgxpool.Pool
}

// PoolConfig turns the database section of the bot config into pgxpool
// settings. Zero durations fall back to the package defaults.
func PoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pc.MaxConns = int32(cfg.PoolSize)
	pc.MinConns = max(int32(cfg.PoolSize/4), 1)
	pc.ConnConfig.ConnectTimeout = orDefault(cfg.ConnectTimeout, defaultConnectTimeout)
	pc.MaxConnLifetime = orDefault(cfg.MaxConnLifetime, defaultMaxConnLifetime)
	pc.MaxConnIdleTime = orDefault(cfg.MaxConnIdleTime, defaultMaxConnIdleTime)
	pc.HealthCheckPeriod = healthCheckPeriod
	return pc, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int32("max_conns", pc.MaxConns).
		Int32("min_conns", pc.MinConns).
		Msg("Connecting to PostgreSQL")

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	p := &Pool{Pool: pool}
	if err := p.HealthCheck(ctx, pc.ConnConfig.ConnectTimeout); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Msg("Connected to PostgreSQL")
	return p, nil
}

// HealthCheck pings the database, giving up after timeout.
func (p *Pool) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// LogStats writes the pool counters to the log.
func (p *Pool) LogStats() {
	s := p.Stat()
	log.Info().
		Int32("total_conns", s.TotalConns()).
		Int32("idle_conns", s.IdleConns()).
		Int32("acquired_conns", s.AcquiredConns()).
		Int64("acquire_count", s.AcquireCount()).
		Dur("acquire_duration", s.AcquireDuration()).
		Int64("canceled_acquires", s.CanceledAcquireCount()).
		Msg("PostgreSQL pool stats")
}

// Close logs the final pool stats and closes every connection.
func (p *Pool) Close() {
	if p.Pool == nil {
		return
	}
	p.LogStats()
	p.Pool.Close()
	log.Info().Msg("PostgreSQL connection pool closed")
}
