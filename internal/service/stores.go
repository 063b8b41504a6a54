package service

import (
	"context"
	"time"

	"room-game-bot/internal/model"
)

// UserStore is the user persistence used by services.
type UserStore interface {
	GetByID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetOrCreate(ctx context.Context, telegramID int64, username string) (*model.User, bool, error)
}

// CreditStore is the balance persistence used by services.
type CreditStore interface {
	Add(ctx context.Context, chatID, userID int64, board string, amount int64, category string) (int64, error)
	Get(ctx context.Context, chatID, userID int64, board string) (int64, error)
	Set(ctx context.Context, chatID, userID int64, board string, balance int64) error
	Top(ctx context.Context, chatID int64, board string, limit int) ([]*model.CreditRank, error)
}

// EarningsStore reports credit earnings.
type EarningsStore interface {
	GetDailyEarners(ctx context.Context, chatID int64, date time.Time, limit int) ([]*model.DailyRank, error)
}

// HistoryStore is the game history persistence used by services.
type HistoryStore interface {
	Append(ctx context.Context, rec *model.GameRecord, max int) error
	List(ctx context.Context, chatID int64, kind string) ([]*model.GameRecord, error)
}

// HostStatStore is the host statistics persistence used by services.
type HostStatStore interface {
	Append(ctx context.Context, stat *model.HostStat) error
	CountByHost(ctx context.Context, chatID, hostID int64) (int, error)
}
