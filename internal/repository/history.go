package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"room-game-bot/internal/model"
)

// HistoryRepository stores the recent games of each chat.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository instance.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Append stores rec and evicts the oldest records of the same chat and kind
// beyond max.
func (r *HistoryRepository) Append(ctx context.Context, rec *model.GameRecord, max int) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Players == nil {
		rec.Players = []string{}
	}
	if rec.Winners == nil {
		rec.Winners = []string{}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO game_history (id, chat_id, kind, format_id, name, input_target, started_at, ended_at, players, winners)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, insert,
		rec.ID, rec.ChatID, rec.Kind, rec.FormatID, rec.Name, rec.InputTarget,
		rec.StartedAt, rec.EndedAt, rec.Players, rec.Winners,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game record: %w", err)
	}

	const evict = `
		DELETE FROM game_history
		WHERE chat_id = $1 AND kind = $2 AND id NOT IN (
			SELECT id FROM game_history
			WHERE chat_id = $1 AND kind = $2
			ORDER BY ended_at DESC
			LIMIT $3
		)
	`
	if _, err := tx.Exec(ctx, evict, rec.ChatID, rec.Kind, max); err != nil {
		return fmt.Errorf("failed to evict game records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// List returns the records of a chat, newest first. An empty kind lists all.
func (r *HistoryRepository) List(ctx context.Context, chatID int64, kind string) ([]*model.GameRecord, error) {
	const query = `
		SELECT id, chat_id, kind, format_id, name, input_target, started_at, ended_at, players, winners
		FROM game_history
		WHERE chat_id = $1 AND ($2::TEXT = '' OR kind = $2::TEXT)
		ORDER BY ended_at DESC
	`

	rows, err := r.pool.Query(ctx, query, chatID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list game history: %w", err)
	}
	defer rows.Close()

	var records []*model.GameRecord
	for rows.Next() {
		var rec model.GameRecord
		err := rows.Scan(
			&rec.ID,
			&rec.ChatID,
			&rec.Kind,
			&rec.FormatID,
			&rec.Name,
			&rec.InputTarget,
			&rec.StartedAt,
			&rec.EndedAt,
			&rec.Players,
			&rec.Winners,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game record: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game history: %w", err)
	}

	return records, nil
}
