package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/model"
	"room-game-bot/internal/pkg/lock"
	"room-game-bot/internal/service"
)

// AdminHandler handles admin credit adjustments.
type AdminHandler struct {
	accountService *service.AccountService
	userLock       *lock.KeyedLock
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accountService *service.AccountService, userLock *lock.KeyedLock) *AdminHandler {
	return &AdminHandler{
		accountService: accountService,
		userLock:       userLock,
	}
}

// HandleAdminAdd handles the /admin_add command.
// Format: /admin_add <@user|user_id> <amount>
func (h *AdminHandler) HandleAdminAdd(c tele.Context) error {
	return h.adjust(c, model.CategoryAdminAdd, func(ctx context.Context, chatID, userID, amount int64) (int64, error) {
		return h.accountService.AdminAdd(ctx, chatID, userID, amount)
	})
}

// HandleAdminSub handles the /admin_sub command.
// Format: /admin_sub <@user|user_id> <amount>
func (h *AdminHandler) HandleAdminSub(c tele.Context) error {
	return h.adjust(c, model.CategoryAdminSub, func(ctx context.Context, chatID, userID, amount int64) (int64, error) {
		return h.accountService.AdminSub(ctx, chatID, userID, amount)
	})
}

// HandleAdminSet handles the /admin_set command.
// Format: /admin_set <@user|user_id> <balance>
func (h *AdminHandler) HandleAdminSet(c tele.Context) error {
	return h.adjust(c, model.CategoryAdminSet, func(ctx context.Context, chatID, userID, amount int64) (int64, error) {
		return amount, h.accountService.AdminSet(ctx, chatID, userID, amount)
	})
}

func (h *AdminHandler) adjust(c tele.Context, operation string, apply func(ctx context.Context, chatID, userID, amount int64) (int64, error)) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if !inGroup(c) {
		return c.Reply("❌ Credits belong to a group, use this command there")
	}

	targetID, name, amount, err := h.parseAdminArgs(ctx, c)
	if err != nil {
		return c.Reply(err.Error())
	}

	h.userLock.Lock(targetID)
	defer h.userLock.Unlock(targetID)

	balance, err := apply(ctx, c.Chat().ID, targetID, amount)
	if errors.Is(err, service.ErrInvalidAmount) {
		return c.Reply("❌ Amount must be positive")
	}
	if err != nil {
		log.Error().Err(err).Int64("target_id", targetID).Str("operation", operation).Msg("Admin operation failed")
		return c.Reply("❌ Operation failed, please try again later")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("chat_id", c.Chat().ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", operation).
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ Done\n\n"+
			"👤 User: %s (ID: %d)\n"+
			"💰 Credits: %d",
		name, targetID, balance,
	))
}

// parseAdminArgs reads the target and amount of an admin command. The target
// is a username, a user ID, or the author of the replied-to message.
func (h *AdminHandler) parseAdminArgs(ctx context.Context, c tele.Context) (int64, string, int64, error) {
	args := c.Args()
	usage := fmt.Errorf("❌ Usage: %s <@user|user_id> <amount>", strings.Fields(c.Text())[0])

	if reply := c.Message().ReplyTo; reply != nil && reply.Sender != nil && len(args) == 1 {
		amount, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return 0, "", 0, usage
		}
		target := identity(reply.Sender)
		if _, _, err := h.accountService.EnsureUser(ctx, target.ID, target.Name); err != nil {
			return 0, "", 0, errors.New("❌ Failed to register the user")
		}
		return target.ID, target.Name, amount, nil
	}

	if len(args) != 2 {
		return 0, "", 0, usage
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, "", 0, usage
	}

	if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
		user, err := h.accountService.GetUser(ctx, id)
		if err != nil {
			return 0, "", 0, errors.New("❌ User not found, they need to /start the bot first")
		}
		return user.TelegramID, user.Username, amount, nil
	}
	user, err := h.accountService.FindUser(ctx, args[0])
	if err != nil {
		return 0, "", 0, errors.New("❌ User not found, they need to /start the bot first")
	}
	return user.TelegramID, user.Username, amount, nil
}
