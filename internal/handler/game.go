package handler

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/game"
	"room-game-bot/internal/service"
)

// GameHandler handles the commands shared by both game slots and routes game
// commands to the running sessions.
type GameHandler struct {
	sessions *service.SessionManager
	scripted *game.Registry
	hosted   *game.Registry
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(sessions *service.SessionManager, scripted, hosted *game.Registry) *GameHandler {
	return &GameHandler{
		sessions: sessions,
		scripted: scripted,
		hosted:   hosted,
	}
}

// HandleGames handles the /games command.
func (h *GameHandler) HandleGames(c tele.Context) error {
	var b strings.Builder
	b.WriteString("🎮 Scripted games\n")
	for _, f := range h.scripted.List() {
		b.WriteString(formatLine(f))
	}
	b.WriteString("\n🎤 Hosted games\n")
	for _, f := range h.hosted.List() {
		b.WriteString(formatLine(f))
	}
	b.WriteString("\nUse /creategame [game] or /host [game] to begin.")
	return c.Reply(b.String())
}

func formatLine(f *game.Format) string {
	line := "• " + f.Name
	if len(f.Aliases) > 0 {
		line += " (" + strings.Join(f.Aliases, ", ") + ")"
	}
	if len(f.Variants) > 0 {
		line += " [" + strings.Join(lo.Map(f.Variants, func(v game.Variant, _ int) string { return v.ID }), ", ") + "]"
	}
	if f.MinigameCommand != "" {
		line += " minigame: /" + f.MinigameCommand
	}
	return line + "\n"
}

// HandleMinigame handles every format's minigame command, such as /quickmath.
func (h *GameHandler) HandleMinigame(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	command, _, ok := parseCommand(c.Text())
	if !ok {
		return nil
	}
	chatID := c.Chat().ID
	return withChat(c, h.sessions.Do, func() (string, error) {
		_, err := h.sessions.StartMinigame(chatID, command)
		return "", err
	})
}

// HandleCreateGame handles the /creategame command.
// Format: /creategame <game>[, variant][, option=value]
func (h *GameHandler) HandleCreateGame(c tele.Context) error {
	if !inGroup(c) {
		return c.Reply("❌ Games can only be created in a group")
	}
	input := payload(c)
	if input == "" {
		return c.Reply("Usage: /creategame [game][, variant][, option=value]")
	}
	chatID := c.Chat().ID
	return withChat(c, h.sessions.Do, func() (string, error) {
		g, err := h.sessions.CreateScripted(chatID, input)
		if err != nil {
			return "", err
		}
		log.Info().
			Int64("chat_id", chatID).
			Int64("user_id", c.Sender().ID).
			Str("format", g.ID()).
			Msg("Scripted game created by command")
		return "", nil
	})
}

// HandleStartGame handles the /startgame command.
// Format: /startgame [hosted]
func (h *GameHandler) HandleStartGame(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	chatID := c.Chat().ID
	kind := slotKind(payload(c))
	return withChat(c, h.sessions.Do, func() (string, error) {
		s, ok := h.sessions.Current(chatID, kind)
		if !ok || s.Ended() {
			return "", service.ErrNoGame
		}
		starter, ok := s.(interface{ Start(override bool) bool })
		if !ok || !starter.Start(true) {
			return "", fmt.Errorf("%s cannot be started now", s.Name())
		}
		return "", nil
	})
}

// HandleEndGame handles the /endgame command.
// Format: /endgame [hosted] [reason]
func (h *GameHandler) HandleEndGame(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	chatID := c.Chat().ID
	kind, reason := slotKindAndRest(payload(c))
	initiator := identity(c.Sender())
	return withChat(c, h.sessions.Do, func() (string, error) {
		if err := h.sessions.EndGame(chatID, kind, initiator, reason); err != nil {
			return "", err
		}
		log.Info().
			Int64("chat_id", chatID).
			Int64("admin_id", initiator.ID).
			Str("kind", string(kind)).
			Str("reason", reason).
			Msg("Game ended by admin")
		return "", nil
	})
}

// HandleJoin handles the /join command.
// Format: /join [hosted]
func (h *GameHandler) HandleJoin(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	chatID := c.Chat().ID
	user := identity(c.Sender())
	arg := payload(c)
	return withChat(c, h.sessions.Do, func() (string, error) {
		return "", h.sessions.Join(chatID, h.joinKind(chatID, arg), user)
	})
}

// HandleLeave handles the /leave command.
// Format: /leave [hosted]
func (h *GameHandler) HandleLeave(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	chatID := c.Chat().ID
	user := identity(c.Sender())
	arg := payload(c)
	return withChat(c, h.sessions.Do, func() (string, error) {
		return "", h.sessions.Leave(chatID, h.joinKind(chatID, arg), user)
	})
}

// joinKind picks the slot a bare /join or /leave refers to: the scripted game
// while one is running, the hosted game otherwise.
func (h *GameHandler) joinKind(chatID int64, arg string) game.Kind {
	if arg != "" {
		return slotKind(arg)
	}
	if s, ok := h.sessions.Current(chatID, game.KindScripted); ok && !s.Ended() {
		return game.KindScripted
	}
	return game.KindUserHosted
}

// HandleText routes unknown slash commands to the running games. Anything a
// game does not accept is ignored.
func (h *GameHandler) HandleText(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	command, target, ok := parseCommand(c.Text())
	if !ok {
		return nil
	}
	chatID := c.Chat().ID
	caller := identity(c.Sender())
	return withChat(c, h.sessions.Do, func() (string, error) {
		if !h.sessions.Dispatch(chatID, caller, false, command, target) {
			log.Debug().Int64("chat_id", chatID).Str("command", command).Msg("Command not accepted by any game")
		}
		return "", nil
	})
}

// parseCommand splits "/cmd@bot target" into its command and target.
func parseCommand(text string) (command, target string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) == 1 {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

// slotKind maps a command argument to a slot.
func slotKind(arg string) game.Kind {
	switch game.ToID(arg) {
	case "hosted", "host", "userhosted":
		return game.KindUserHosted
	}
	return game.KindScripted
}

// slotKindAndRest reads an optional leading slot name off arg.
func slotKindAndRest(arg string) (game.Kind, string) {
	first, rest, _ := strings.Cut(arg, " ")
	if slotKind(first) == game.KindUserHosted {
		return game.KindUserHosted, strings.TrimSpace(rest)
	}
	return game.KindScripted, arg
}
