// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/game"
	"room-game-bot/internal/pkg/lock"
)

// errBusy is shown when a chat's games are busy for too long.
const errBusy = "⏳ The game is busy, please try again"

// identity returns the game identity of a Telegram user.
func identity(u *tele.User) game.Identity {
	name := u.Username
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return game.Identity{ID: u.ID, Name: name}
}

// inGroup reports whether c comes from a group chat.
func inGroup(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type != tele.ChatPrivate && c.Sender() != nil
}

// payload returns the text after the command.
func payload(c tele.Context) string {
	return strings.TrimSpace(c.Message().Payload)
}

// resolver finds users by name.
type resolver interface {
	Resolve(name string) (game.Identity, bool)
}

// targets resolves the users named in args, plus the author of the replied-to
// message. Unknown names are returned separately.
func targets(c tele.Context, users resolver, args []string) ([]game.Identity, []string) {
	var found []game.Identity
	var unknown []string
	if reply := c.Message().ReplyTo; reply != nil && reply.Sender != nil {
		found = append(found, identity(reply.Sender))
	}
	for _, arg := range args {
		name := strings.TrimPrefix(strings.TrimSpace(arg), "@")
		if name == "" {
			continue
		}
		if id, ok := users.Resolve(name); ok {
			found = append(found, id)
		} else {
			unknown = append(unknown, name)
		}
	}
	return found, unknown
}

// withChat runs fn under the chat lock and replies with its result. An error
// returned by fn is shown to the user.
func withChat(c tele.Context, do func(ctx context.Context, chatID int64, fn func() error) error, fn func() (string, error)) error {
	var reply string
	err := do(context.Background(), c.Chat().ID, func() error {
		var err error
		reply, err = fn()
		return err
	})
	switch {
	case errors.Is(err, lock.ErrLockTimeout):
		return c.Reply(errBusy)
	case err != nil:
		log.Debug().Err(err).Int64("chat_id", c.Chat().ID).Str("text", c.Text()).Msg("Command rejected")
		return c.Reply(fmt.Sprintf("❌ %s", err))
	case reply != "":
		return c.Reply(reply)
	}
	return nil
}
