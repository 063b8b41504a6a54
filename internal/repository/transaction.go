package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"room-game-bot/internal/model"
)

// TransactionRepository handles transaction data persistence.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const query = `
		INSERT INTO transactions (chat_id, user_id, leaderboard, amount, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, chat_id, user_id, leaderboard, amount, category, description, created_at
	`

	row := r.pool.QueryRow(ctx, query, tx.ChatID, tx.UserID, tx.Leaderboard, tx.Amount, tx.Category, tx.Description, createdAt)
	created, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return created, nil
}

// GetByUser retrieves the transactions of a user in a chat, newest first.
func (r *TransactionRepository) GetByUser(ctx context.Context, chatID, userID int64, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, chat_id, user_id, leaderboard, amount, category, description, created_at
		FROM transactions
		WHERE chat_id = $1 AND user_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, chatID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// GetDailyEarners retrieves the users who earned the most credits in a chat
// on the given date. Admin adjustments are not earnings.
func (r *TransactionRepository) GetDailyEarners(ctx context.Context, chatID int64, date time.Time, limit int) ([]*model.DailyRank, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	const query = `
		SELECT t.user_id, u.username, COALESCE(SUM(t.amount), 0) AS earned
		FROM transactions t
		JOIN users u ON t.user_id = u.telegram_id
		WHERE t.chat_id = $1
		  AND t.category <> ALL($2)
		  AND t.created_at >= $3
		  AND t.created_at < $4
		GROUP BY t.user_id, u.username
		HAVING SUM(t.amount) > 0
		ORDER BY earned DESC, t.user_id
		LIMIT $5
	`

	rows, err := r.pool.Query(ctx, query, chatID, model.AdminCategories(), startOfDay, endOfDay, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily earners: %w", err)
	}
	defer rows.Close()

	var earners []*model.DailyRank
	for rows.Next() {
		var rank model.DailyRank
		if err := rows.Scan(&rank.UserID, &rank.Username, &rank.Earned); err != nil {
			return nil, fmt.Errorf("failed to scan daily rank: %w", err)
		}
		earners = append(earners, &rank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily earners: %w", err)
	}

	return earners, nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var tx model.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.ChatID,
		&tx.UserID,
		&tx.Leaderboard,
		&tx.Amount,
		&tx.Category,
		&tx.Description,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
