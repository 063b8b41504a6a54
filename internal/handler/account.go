package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/repository"
	"room-game-bot/internal/service"
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// HandleStart handles the /start command.
// Registers the user so hosts can name them in game commands.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, created, err := h.accountService.EnsureUser(ctx, sender.ID, identity(sender).Name)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to register user")
		return c.Reply("❌ Failed to register, please try again later")
	}

	greeting := "👋 Welcome back"
	if created {
		greeting = "🎉 Welcome"
	}
	return c.Reply(fmt.Sprintf(
		"%s %s!\n\n"+
			"Commands:\n"+
			"/games - list the games\n"+
			"/joingame, /leavegame - join or leave a game\n"+
			"/host [game] - host a game\n"+
			"/bits - your credits\n"+
			"/top - leaderboards\n"+
			"/pastgames - recent games",
		greeting, user.Username,
	))
}

// HandleBits handles the /bits command.
// Format: /bits [@user]
func (h *AccountHandler) HandleBits(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil || !inGroup(c) {
		return c.Reply("❌ Use /bits in a group to see your credits there")
	}

	userID, name := sender.ID, identity(sender).Name
	if arg := payload(c); arg != "" {
		user, err := h.accountService.FindUser(ctx, arg)
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Reply(fmt.Sprintf("❌ Unknown user: %s", strings.TrimPrefix(arg, "@")))
		}
		if err != nil {
			return c.Reply("❌ Failed to look up the user, please try again later")
		}
		userID, name = user.TelegramID, user.Username
	} else if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, name); err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to register user")
	}

	balances, err := h.accountService.GetBalances(ctx, c.Chat().ID, userID)
	if err != nil {
		return c.Reply("❌ Failed to get credits, please try again later")
	}
	return c.Reply(fmt.Sprintf(
		"💰 %s\n"+
			"Credits: %d\n"+
			"Hosting points: %d",
		name, balances.Credits, balances.Hosting,
	))
}
