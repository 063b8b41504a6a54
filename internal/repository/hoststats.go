package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"room-game-bot/internal/model"
)

// HostStatRepository stores the games each host finished.
type HostStatRepository struct {
	pool *pgxpool.Pool
}

// NewHostStatRepository creates a new HostStatRepository instance.
func NewHostStatRepository(pool *pgxpool.Pool) *HostStatRepository {
	return &HostStatRepository{pool: pool}
}

// Append stores a host stat.
func (r *HostStatRepository) Append(ctx context.Context, stat *model.HostStat) error {
	winners := stat.Winners
	if winners == nil {
		winners = []int64{}
	}

	const query = `
		INSERT INTO host_stats (chat_id, host_id, format, input_target, starting_player_count,
			ending_player_count, start_time, end_time, winners)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		stat.ChatID, stat.HostID, stat.Format, stat.InputTarget, stat.StartingPlayerCount,
		stat.EndingPlayerCount, stat.StartTime, stat.EndTime, winners,
	).Scan(&stat.ID)
	if err != nil {
		return fmt.Errorf("failed to append host stat: %w", err)
	}

	return nil
}

// ListByHost returns a host's stats in a chat, newest first.
func (r *HostStatRepository) ListByHost(ctx context.Context, chatID, hostID int64, limit int) ([]*model.HostStat, error) {
	const query = `
		SELECT id, chat_id, host_id, format, input_target, starting_player_count,
			ending_player_count, start_time, end_time, winners
		FROM host_stats
		WHERE chat_id = $1 AND host_id = $2
		ORDER BY end_time DESC, id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, chatID, hostID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list host stats: %w", err)
	}
	defer rows.Close()

	var stats []*model.HostStat
	for rows.Next() {
		var stat model.HostStat
		err := rows.Scan(
			&stat.ID,
			&stat.ChatID,
			&stat.HostID,
			&stat.Format,
			&stat.InputTarget,
			&stat.StartingPlayerCount,
			&stat.EndingPlayerCount,
			&stat.StartTime,
			&stat.EndTime,
			&stat.Winners,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan host stat: %w", err)
		}
		stats = append(stats, &stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating host stats: %w", err)
	}

	return stats, nil
}

// CountByHost returns how many games a host finished in a chat.
func (r *HostStatRepository) CountByHost(ctx context.Context, chatID, hostID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM host_stats WHERE chat_id = $1 AND host_id = $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, chatID, hostID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count host stats: %w", err)
	}

	return count, nil
}
