package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/config"
	"room-game-bot/internal/game"
	"room-game-bot/internal/game/userhosted"
	"room-game-bot/internal/hostpanel"
	"room-game-bot/internal/service"
)

var errNoTargets = errors.New("name at least one user, or reply to their message")

// HostHandler handles the commands of user-hosted games.
type HostHandler struct {
	cfg      *config.Config
	sessions *service.SessionManager
	users    resolver
	panels   *hostpanel.Manager
}

// NewHostHandler creates a new HostHandler.
func NewHostHandler(cfg *config.Config, sessions *service.SessionManager, users resolver, panels *hostpanel.Manager) *HostHandler {
	return &HostHandler{
		cfg:      cfg,
		sessions: sessions,
		users:    users,
		panels:   panels,
	}
}

// HandleHost handles the /host command.
// Format: /host <game>[, variant][, option=value]
func (h *HostHandler) HandleHost(c tele.Context) error {
	if !inGroup(c) {
		return c.Reply("❌ Games can only be hosted in a group")
	}
	input := payload(c)
	if input == "" {
		return c.Reply("Usage: /host [game][, variant][, option=value]")
	}
	chatID := c.Chat().ID
	host := identity(c.Sender())
	return withChat(c, h.sessions.Do, func() (string, error) {
		_, err := h.sessions.CreateHosted(chatID, input, host, false)
		return "", err
	})
}

// withHost runs fn on the hosted game of the chat when the sender may host it.
func (h *HostHandler) withHost(c tele.Context, fn func(g *userhosted.Game, user game.Identity) (string, error)) error {
	if !inGroup(c) {
		return nil
	}
	chatID := c.Chat().ID
	user := identity(c.Sender())
	return withChat(c, h.sessions.Do, func() (string, error) {
		g, ok := h.sessions.Hosted(chatID)
		if !ok || g.Ended() {
			return "", service.ErrNoGame
		}
		if !g.IsHost(user) && !h.cfg.IsAdmin(user.ID) {
			return "", service.ErrNotHost
		}
		return fn(g, user)
	})
}

// HandleSubHost handles the /subhost command.
// Format: /subhost <@user>
func (h *HostHandler) HandleSubHost(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, user game.Identity) (string, error) {
		if user.ID != g.Host().ID && !h.cfg.IsAdmin(user.ID) {
			return "", errors.New("only the primary host can choose a sub-host")
		}
		users, err := h.resolveTargets(c, c.Args())
		if err != nil {
			return "", err
		}
		g.SetSubHost(users[0])
		return fmt.Sprintf("✅ %s is now hosting %s", users[0].Name, g.Name()), nil
	})
}

// HandleHostStart handles the /hoststart command.
func (h *HostHandler) HandleHostStart(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		if !g.Start(true) {
			return "", errors.New("the game has already started")
		}
		return "", nil
	})
}

// HandleEndHost handles the /endhost command, ending the game without winners.
func (h *HostHandler) HandleEndHost(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, user game.Identity) (string, error) {
		g.ForceEnd(user, "ended by the host")
		return "", nil
	})
}

// HandleRestart handles the /restart command.
// Format: /restart <game>[, variant][, option=value]
func (h *HostHandler) HandleRestart(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	input := payload(c)
	if input == "" {
		return c.Reply("Usage: /restart [game][, variant][, option=value]")
	}
	chatID := c.Chat().ID
	user := identity(c.Sender())
	return withChat(c, h.sessions.Do, func() (string, error) {
		_, err := h.sessions.RestartHosted(chatID, input, user)
		return "", err
	})
}

// HandleExtend handles the /extend command.
// Format: /extend <minutes>
func (h *HostHandler) HandleExtend(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, user game.Identity) (string, error) {
		minutes, err := parseMinutes(payload(c))
		if err != nil {
			return "", err
		}
		return "", g.Extend(minutes, user)
	})
}

// HandleStartTimer handles the /starttimer command.
// Format: /starttimer <minutes>
func (h *HostHandler) HandleStartTimer(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		minutes, err := parseMinutes(payload(c))
		if err != nil {
			return "", err
		}
		if g.Started() {
			return "", errors.New("the game has already started")
		}
		d := minutesDuration(minutes)
		g.SetStartTimer(d)
		return fmt.Sprintf("⏱ The game will start in %s", d), nil
	})
}

// HandleGameTimer handles the /gametimer command. Without an argument it
// shows the time left on the timer.
// Format: /gametimer [minutes]
func (h *HostHandler) HandleGameTimer(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		arg := payload(c)
		if arg == "" {
			left := g.GameTimerRemaining()
			if left <= 0 {
				return "⏱ There is no game timer running", nil
			}
			return fmt.Sprintf("⏱ %s left on the game timer", left.Round(time.Second)), nil
		}
		minutes, err := parseMinutes(arg)
		if err != nil {
			return "", err
		}
		d := minutesDuration(minutes)
		g.SetGameTimer(d)
		return fmt.Sprintf("⏱ Game timer set for %s", d), nil
	})
}

// HandleAddPoints handles the /addpoints command.
// Format: /addpoints <@user>... [amount]
func (h *HostHandler) HandleAddPoints(c tele.Context) error {
	return h.changePoints(c, 1)
}

// HandleRemovePoints handles the /removepoints command.
// Format: /removepoints <@user>... [amount]
func (h *HostHandler) HandleRemovePoints(c tele.Context) error {
	return h.changePoints(c, -1)
}

func (h *HostHandler) changePoints(c tele.Context, sign int) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		names, amount := splitAmount(c.Args())
		users, err := h.resolveTargets(c, names)
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(users))
		for _, u := range users {
			total, err := g.AddPoints(u, sign*amount)
			if err != nil {
				return "", err
			}
			lines = append(lines, fmt.Sprintf("%s: %d", u.Name, total))
		}
		return "📊 " + strings.Join(lines, ", "), nil
	})
}

// HandleSplit handles the /split command.
// Format: /split <teams> [team name]...
func (h *HostHandler) HandleSplit(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		args := c.Args()
		if len(args) == 0 {
			return "", errors.New("usage: /split [teams] [team name]...")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("%w: %s", userhosted.ErrInvalidTeams, args[0])
		}
		if err := g.SplitPlayers(n, args[1:]); err != nil {
			return "", err
		}
		var b strings.Builder
		for _, t := range g.Teams() {
			fmt.Fprintf(&b, "%s: %s\n", t.Name, game.Names(t.Players))
		}
		g.Say(strings.TrimSpace(b.String()))
		return "", nil
	})
}

// HandleUnsplit handles the /unsplit command.
func (h *HostHandler) HandleUnsplit(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		g.UnsplitPlayers()
		return "✅ Teams dissolved", nil
	})
}

// HandleWin handles the /win command.
// Format: /win <@user>...
func (h *HostHandler) HandleWin(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		var users []game.Identity
		if len(c.Args()) > 0 || c.Message().ReplyTo != nil {
			var err error
			if users, err = h.resolveTargets(c, c.Args()); err != nil {
				return "", err
			}
		}
		return "", g.DeclareWinners(users...)
	})
}

// HandleAutoWin handles the /autowin command.
// Format: /autowin [places]
func (h *HostHandler) HandleAutoWin(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		places := 1
		if arg := payload(c); arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				return "", fmt.Errorf("invalid number of places: %s", arg)
			}
			places = n
		}
		return "", g.AutoWin(places)
	})
}

// HandleSaveWinner handles the /savewinner command.
// Format: /savewinner <@user>...
func (h *HostHandler) HandleSaveWinner(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		users, err := h.resolveTargets(c, c.Args())
		if err != nil {
			return "", err
		}
		g.SaveWinners(users...)
		return "✅ Saved winners: " + strings.Join(lo.Map(g.SavedWinners(), func(u game.Identity, _ int) string { return u.Name }), ", "), nil
	})
}

// HandleTwist handles the /twist command. Without text it shows the twist.
// Format: /twist [text]
func (h *HostHandler) HandleTwist(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		text := payload(c)
		if text == "" {
			if g.Twist() == "" {
				return "There is no twist set", nil
			}
			return "🌀 Twist: " + g.Twist(), nil
		}
		g.SetTwist(text)
		return "✅ Twist set", nil
	})
}

// HandleStoreMsg handles the /storemsg command.
// Format: /storemsg <key> <message>
func (h *HostHandler) HandleStoreMsg(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		key, message, _ := strings.Cut(payload(c), " ")
		message = strings.TrimSpace(message)
		if key == "" || message == "" {
			return "", errors.New("usage: /storemsg [key] [message]")
		}
		g.StoreMessage(key, message)
		return fmt.Sprintf("✅ Stored message '%s'", game.ToID(key)), nil
	})
}

// HandleShowMsg handles the /showmsg command, saying a stored message.
// Format: /showmsg <key>
func (h *HostHandler) HandleShowMsg(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		message, ok := g.StoredMessage(payload(c))
		if !ok {
			return "", fmt.Errorf("no message is stored under '%s'", game.ToID(payload(c)))
		}
		g.Say(message)
		return "", nil
	})
}

// HandleScoreCap handles the /scorecap command. Zero disables the cap.
// Format: /scorecap <points>
func (h *HostHandler) HandleScoreCap(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, _ game.Identity) (string, error) {
		n, err := strconv.Atoi(payload(c))
		if err != nil || n < 0 {
			return "", fmt.Errorf("invalid score cap: %s", payload(c))
		}
		g.SetScoreCap(n)
		if n == 0 {
			return "✅ Score cap removed", nil
		}
		return fmt.Sprintf("✅ Score cap set to %d", n), nil
	})
}

// HandlePanel handles the /panel command. The panel itself is delivered in a
// private chat.
// Format: /panel [autosend yes|no | hint <game> | hints | info]
func (h *HostHandler) HandlePanel(c tele.Context) error {
	return h.withHost(c, func(g *userhosted.Game, user game.Identity) (string, error) {
		chatID := c.Chat().ID
		title := g.Deps().Room.Title()
		sub, rest, _ := strings.Cut(payload(c), " ")
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(sub) {
		case "":
			h.panels.Open(chatID, user.ID, title)
		case "info":
			h.panels.ChooseView(chatID, user.ID, title, hostpanel.ViewHostInformation)
		case "hints":
			h.panels.ChooseView(chatID, user.ID, title, hostpanel.ViewGenerateHints)
		case "autosend":
			if err := h.panels.SetAutoSend(chatID, user.ID, title, rest); err != nil {
				return "", err
			}
		case "hint":
			if _, err := h.panels.GenerateHint(chatID, user.ID, title, rest); err != nil {
				return "", fmt.Errorf("%w (games: %s)", err, strings.Join(h.panels.HintGames(), ", "))
			}
		default:
			return "", fmt.Errorf("unknown panel option '%s'", sub)
		}
		log.Debug().Int64("chat_id", chatID).Int64("user_id", user.ID).Str("option", sub).Msg("Host panel updated")
		return "📬 Check your private messages", nil
	})
}

// resolveTargets resolves the users named in args, failing on unknown names.
func (h *HostHandler) resolveTargets(c tele.Context, args []string) ([]game.Identity, error) {
	users, unknown := targets(c, h.users, args)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown users: %s", strings.Join(unknown, ", "))
	}
	if len(users) == 0 {
		return nil, errNoTargets
	}
	return lo.UniqBy(users, func(u game.Identity) int64 { return u.ID }), nil
}

// splitAmount separates a trailing amount from the names in args. The amount
// defaults to 1.
func splitAmount(args []string) ([]string, int) {
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil && n > 0 {
			return args[:len(args)-1], n
		}
	}
	return args, 1
}

func parseMinutes(arg string) (float64, error) {
	minutes, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("invalid number of minutes: '%s'", arg)
	}
	return minutes, nil
}

func minutesDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}
