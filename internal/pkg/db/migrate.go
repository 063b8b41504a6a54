package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "users table",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				telegram_id BIGINT PRIMARY KEY,
				username VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_users_username ON users(LOWER(username));
		`,
	},
	{
		name: "credits table",
		sql: `
			CREATE TABLE IF NOT EXISTS credits (
				chat_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				leaderboard VARCHAR(50) NOT NULL,
				balance BIGINT NOT NULL DEFAULT 0,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (chat_id, user_id, leaderboard)
			);
			CREATE INDEX IF NOT EXISTS idx_credits_board ON credits(chat_id, leaderboard, balance DESC);
		`,
	},
	{
		name: "transactions table",
		sql: `
			CREATE TABLE IF NOT EXISTS transactions (
				id BIGSERIAL PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				leaderboard VARCHAR(50) NOT NULL,
				amount BIGINT NOT NULL,
				category VARCHAR(100) NOT NULL,
				description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(chat_id, user_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_transactions_chat_time ON transactions(chat_id, created_at DESC);
		`,
	},
	{
		name: "game_history table",
		sql: `
			CREATE TABLE IF NOT EXISTS game_history (
				id UUID PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				kind VARCHAR(20) NOT NULL,
				format_id VARCHAR(100) NOT NULL,
				name VARCHAR(255) NOT NULL,
				input_target TEXT NOT NULL DEFAULT '',
				started_at TIMESTAMPTZ NOT NULL,
				ended_at TIMESTAMPTZ NOT NULL,
				players TEXT[] NOT NULL DEFAULT '{}',
				winners TEXT[] NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_game_history_chat ON game_history(chat_id, kind, ended_at DESC);
		`,
	},
	{
		name: "host_stats table",
		sql: `
			CREATE TABLE IF NOT EXISTS host_stats (
				id BIGSERIAL PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				host_id BIGINT NOT NULL,
				format VARCHAR(255) NOT NULL,
				input_target TEXT NOT NULL DEFAULT '',
				starting_player_count INT NOT NULL,
				ending_player_count INT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ NOT NULL,
				winners BIGINT[] NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_host_stats_host ON host_stats(chat_id, host_id, end_time DESC);
		`,
	},
}

// Migrate applies the database schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
