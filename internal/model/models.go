// Package model defines the data models for the room game bot.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a Telegram user known to the bot. Usernames are resolved
// case-insensitively when hosts name players.
type User struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Credit is a user's balance on one leaderboard of one chat.
type Credit struct {
	ChatID      int64     `db:"chat_id"`
	UserID      int64     `db:"user_id"`
	Leaderboard string    `db:"leaderboard"`
	Balance     int64     `db:"balance"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// CreditRank is one row of a leaderboard.
type CreditRank struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Balance  int64  `db:"balance"`
}

// Transaction records a single credit movement.
type Transaction struct {
	ID          int64     `db:"id"`
	ChatID      int64     `db:"chat_id"`
	UserID      int64     `db:"user_id"`
	Leaderboard string    `db:"leaderboard"`
	Amount      int64     `db:"amount"`
	Category    string    `db:"category"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// DailyRank is a user's credit earnings for one day.
type DailyRank struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Earned   int64  `db:"earned"`
}

// GameRecord is a finished game in a chat's history.
type GameRecord struct {
	ID          uuid.UUID `db:"id"`
	ChatID      int64     `db:"chat_id"`
	Kind        string    `db:"kind"`
	FormatID    string    `db:"format_id"`
	Name        string    `db:"name"`
	InputTarget string    `db:"input_target"`
	StartedAt   time.Time `db:"started_at"`
	EndedAt     time.Time `db:"ended_at"`
	Players     []string  `db:"players"`
	Winners     []string  `db:"winners"`
}

// HostStat is recorded for every game a primary host finished.
type HostStat struct {
	ID                  int64     `db:"id"`
	ChatID              int64     `db:"chat_id"`
	HostID              int64     `db:"host_id"`
	Format              string    `db:"format"`
	InputTarget         string    `db:"input_target"`
	StartingPlayerCount int       `db:"starting_player_count"`
	EndingPlayerCount   int       `db:"ending_player_count"`
	StartTime           time.Time `db:"start_time"`
	EndTime             time.Time `db:"end_time"`
	Winners             []int64   `db:"winners"`
}

// Transaction categories outside of game formats.
const (
	CategoryAdminAdd = "admin_add"
	CategoryAdminSub = "admin_sub"
	CategoryAdminSet = "admin_set"
)

// AdminCategories returns the categories that do not count as earnings.
func AdminCategories() []string {
	return []string{CategoryAdminAdd, CategoryAdminSub, CategoryAdminSet}
}
