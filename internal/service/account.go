// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"room-game-bot/internal/game"
	"room-game-bot/internal/model"
)

// Common errors for account operations.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Balances is a user's credits on every leaderboard of a chat.
type Balances struct {
	Credits int64
	Hosting int64
}

// AccountService handles user accounts and admin credit adjustments.
type AccountService struct {
	users   UserStore
	credits CreditStore
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(users UserStore, credits CreditStore) *AccountService {
	return &AccountService{
		users:   users,
		credits: credits,
	}
}

// EnsureUser ensures a user exists, creating one if necessary, and keeps the
// stored username current. Returns the user and whether it was newly created.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, bool, error) {
	user, created, err := s.users.GetOrCreate(ctx, telegramID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}
	return user, created, nil
}

// GetUser retrieves a user by their Telegram ID.
func (s *AccountService) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.GetByID(ctx, telegramID)
}

// FindUser retrieves a user by username.
func (s *AccountService) FindUser(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// GetBalances retrieves a user's balances in a chat.
func (s *AccountService) GetBalances(ctx context.Context, chatID, userID int64) (Balances, error) {
	credits, err := s.credits.Get(ctx, chatID, userID, string(game.LeaderboardCredits))
	if err != nil {
		return Balances{}, fmt.Errorf("failed to get balance: %w", err)
	}
	hosting, err := s.credits.Get(ctx, chatID, userID, string(game.LeaderboardHosting))
	if err != nil {
		return Balances{}, fmt.Errorf("failed to get balance: %w", err)
	}
	return Balances{Credits: credits, Hosting: hosting}, nil
}

// AdminAdd adds credits to a user. Returns the new balance.
func (s *AccountService) AdminAdd(ctx context.Context, chatID, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.credits.Add(ctx, chatID, userID, string(game.LeaderboardCredits), amount, model.CategoryAdminAdd)
	if err != nil {
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}
	return balance, nil
}

// AdminSub removes credits from a user, never below zero. Returns the new balance.
func (s *AccountService) AdminSub(ctx context.Context, chatID, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.credits.Add(ctx, chatID, userID, string(game.LeaderboardCredits), -amount, model.CategoryAdminSub)
	if err != nil {
		return 0, fmt.Errorf("failed to remove credits: %w", err)
	}
	return balance, nil
}

// AdminSet overwrites a user's credits.
func (s *AccountService) AdminSet(ctx context.Context, chatID, userID int64, balance int64) error {
	if balance < 0 {
		return ErrInvalidAmount
	}
	if err := s.credits.Set(ctx, chatID, userID, string(game.LeaderboardCredits), balance); err != nil {
		return fmt.Errorf("failed to set credits: %w", err)
	}
	return nil
}
