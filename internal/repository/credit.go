package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"room-game-bot/internal/model"
)

// ErrInsufficientCredits is returned when a deduction would make a balance negative.
var ErrInsufficientCredits = errors.New("insufficient credits")

// CreditRepository stores per-chat leaderboard balances.
type CreditRepository struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new CreditRepository instance.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{pool: pool}
}

// Add adds amount (possibly negative) to a balance, creating it at zero first,
// and records the movement. Balances never go below zero: a deduction larger
// than the balance is clamped. Returns the new balance.
func (r *CreditRepository) Add(ctx context.Context, chatID, userID int64, board string, amount int64, category string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsert = `
		INSERT INTO credits (chat_id, user_id, leaderboard, balance, updated_at)
		VALUES ($1, $2, $3, GREATEST($4::BIGINT, 0), NOW())
		ON CONFLICT (chat_id, user_id, leaderboard)
		DO UPDATE SET balance = GREATEST(credits.balance + $4::BIGINT, 0), updated_at = NOW()
		RETURNING balance
	`

	var balance int64
	if err := tx.QueryRow(ctx, upsert, chatID, userID, board, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to update credits: %w", err)
	}

	const record = `
		INSERT INTO transactions (chat_id, user_id, leaderboard, amount, category, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	if _, err := tx.Exec(ctx, record, chatID, userID, board, amount, category); err != nil {
		return 0, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return balance, nil
}

// Get returns a balance, zero when the user has none on that board.
func (r *CreditRepository) Get(ctx context.Context, chatID, userID int64, board string) (int64, error) {
	const query = `
		SELECT balance FROM credits
		WHERE chat_id = $1 AND user_id = $2 AND leaderboard = $3
	`

	var balance int64
	err := r.pool.QueryRow(ctx, query, chatID, userID, board).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get credits: %w", err)
	}

	return balance, nil
}

// Set overwrites a balance and records the difference.
func (r *CreditRepository) Set(ctx context.Context, chatID, userID int64, board string, balance int64) error {
	if balance < 0 {
		return ErrInsufficientCredits
	}

	current, err := r.Get(ctx, chatID, userID, board)
	if err != nil {
		return err
	}

	_, err = r.Add(ctx, chatID, userID, board, balance-current, model.CategoryAdminSet)
	return err
}

// Top returns the highest balances on a board of a chat.
func (r *CreditRepository) Top(ctx context.Context, chatID int64, board string, limit int) ([]*model.CreditRank, error) {
	const query = `
		SELECT c.user_id, u.username, c.balance
		FROM credits c
		JOIN users u ON c.user_id = u.telegram_id
		WHERE c.chat_id = $1 AND c.leaderboard = $2 AND c.balance > 0
		ORDER BY c.balance DESC, c.user_id
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, chatID, board, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top credits: %w", err)
	}
	defer rows.Close()

	var ranks []*model.CreditRank
	for rows.Next() {
		var rank model.CreditRank
		if err := rows.Scan(&rank.UserID, &rank.Username, &rank.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan credit rank: %w", err)
		}
		ranks = append(ranks, &rank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit ranks: %w", err)
	}

	return ranks, nil
}
