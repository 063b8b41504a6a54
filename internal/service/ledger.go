package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"room-game-bot/internal/game"
	"room-game-bot/internal/model"
	"room-game-bot/internal/repository"
)

// DefaultLedgerTimeout bounds every ledger write.
const DefaultLedgerTimeout = 5 * time.Second

// LedgerService persists credits, game history and host stats for sessions.
// Writes never fail the caller: errors are logged and dropped.
type LedgerService struct {
	users   UserStore
	credits CreditStore
	history HistoryStore
	hosts   HostStatStore
	timeout time.Duration
}

var _ game.Ledger = (*LedgerService)(nil)

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(users UserStore, credits CreditStore, history HistoryStore, hosts HostStatStore) *LedgerService {
	return &LedgerService{
		users:   users,
		credits: credits,
		history: history,
		hosts:   hosts,
		timeout: DefaultLedgerTimeout,
	}
}

// CreditAward adds amount to the recipient's balance on board.
func (s *LedgerService) CreditAward(chatID int64, board game.Leaderboard, recipient game.Identity, amount int64, category string) {
	s.adjust(chatID, board, recipient, amount, category)
}

// CreditDeduct removes amount from the recipient's balance on board.
func (s *LedgerService) CreditDeduct(chatID int64, board game.Leaderboard, recipient game.Identity, amount int64, category string) {
	s.adjust(chatID, board, recipient, -amount, category)
}

func (s *LedgerService) adjust(chatID int64, board game.Leaderboard, recipient game.Identity, amount int64, category string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logger := log.With().
		Int64("chat_id", chatID).
		Int64("user_id", recipient.ID).
		Str("leaderboard", string(board)).
		Int64("amount", amount).
		Str("category", category).
		Logger()

	if _, _, err := s.users.GetOrCreate(ctx, recipient.ID, recipient.Name); err != nil {
		logger.Error().Err(err).Msg("Failed to ensure credit recipient")
		return
	}

	balance, err := s.credits.Add(ctx, chatID, recipient.ID, string(board), amount, category)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update credits")
		return
	}
	logger.Debug().Int64("balance", balance).Msg("Credits updated")
}

// HistoryAppend records a finished game, keeping at most maxEntries per kind.
func (s *LedgerService) HistoryAppend(chatID int64, entry game.HistoryEntry, maxEntries int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rec := &model.GameRecord{
		ChatID:      chatID,
		Kind:        string(entry.Kind),
		FormatID:    entry.FormatID,
		Name:        entry.Name,
		InputTarget: entry.InputTarget,
		StartedAt:   entry.StartedAt,
		EndedAt:     entry.EndedAt,
		Players:     entry.Players,
		Winners:     entry.Winners,
	}
	if err := s.history.Append(ctx, rec, maxEntries); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Str("format", entry.FormatID).Msg("Failed to record game history")
	}
}

// HostStatAppend records a game finished by its primary host.
func (s *LedgerService) HostStatAppend(chatID int64, stat game.HostStat) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rec := &model.HostStat{
		ChatID:              chatID,
		HostID:              stat.HostID,
		Format:              stat.Format,
		InputTarget:         stat.InputTarget,
		StartingPlayerCount: stat.StartingPlayerCount,
		EndingPlayerCount:   stat.EndingPlayerCount,
		StartTime:           stat.StartTime,
		EndTime:             stat.EndTime,
		Winners:             stat.Winners,
	}
	if err := s.hosts.Append(ctx, rec); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Int64("host_id", stat.HostID).Msg("Failed to record host stat")
	}
}

// UserResolver resolves display names to known users.
type UserResolver struct {
	users   UserStore
	timeout time.Duration
}

var _ game.IdentityResolver = (*UserResolver)(nil)

// NewUserResolver creates a new UserResolver instance.
func NewUserResolver(users UserStore) *UserResolver {
	return &UserResolver{users: users, timeout: DefaultLedgerTimeout}
}

// Resolve looks a user up by username.
func (r *UserResolver) Resolve(name string) (game.Identity, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	user, err := r.users.GetByUsername(ctx, name)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Warn().Err(err).Str("name", name).Msg("Failed to resolve user")
		}
		return game.Identity{}, false
	}
	return game.Identity{ID: user.TelegramID, Name: user.Username}, true
}
