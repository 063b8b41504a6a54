package service

import (
	"context"
	"fmt"
	"time"

	"room-game-bot/internal/game"
	"room-game-bot/internal/model"
)

// RankingService handles leaderboards, game history and host statistics.
type RankingService struct {
	credits  CreditStore
	earnings EarningsStore
	history  HistoryStore
	hosts    HostStatStore
	timezone *time.Location
	now      func() time.Time
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(
	credits CreditStore,
	earnings EarningsStore,
	history HistoryStore,
	hosts HostStatStore,
	timezone *time.Location,
) *RankingService {
	if timezone == nil {
		timezone = time.UTC
	}
	return &RankingService{
		credits:  credits,
		earnings: earnings,
		history:  history,
		hosts:    hosts,
		timezone: timezone,
		now:      time.Now,
	}
}

// GetTop retrieves the highest balances on a leaderboard of a chat.
func (s *RankingService) GetTop(ctx context.Context, chatID int64, board game.Leaderboard, limit int) ([]*model.CreditRank, error) {
	ranks, err := s.credits.Top(ctx, chatID, string(board), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return ranks, nil
}

// GetDailyEarners retrieves today's top credit earners of a chat.
func (s *RankingService) GetDailyEarners(ctx context.Context, chatID int64, limit int) ([]*model.DailyRank, error) {
	today := s.now().In(s.timezone)
	return s.earnings.GetDailyEarners(ctx, chatID, today, limit)
}

// GetPastGames retrieves the recent games of a chat. An empty kind lists all.
func (s *RankingService) GetPastGames(ctx context.Context, chatID int64, kind game.Kind) ([]*model.GameRecord, error) {
	records, err := s.history.List(ctx, chatID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to get past games: %w", err)
	}
	return records, nil
}

// GetHostedCount retrieves how many games a host finished in a chat.
func (s *RankingService) GetHostedCount(ctx context.Context, chatID, hostID int64) (int, error) {
	count, err := s.hosts.CountByHost(ctx, chatID, hostID)
	if err != nil {
		return 0, fmt.Errorf("failed to count hosted games: %w", err)
	}
	return count, nil
}
