// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/config"
	"room-game-bot/internal/game"
	"room-game-bot/internal/handler"
	"room-game-bot/internal/hostpanel"
	"room-game-bot/internal/pkg/lock"
	"room-game-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	rooms    *Rooms
	access   *PrivateAccess
	sessions *service.SessionManager
	scripted *game.Registry

	// Handlers
	accountHandler *handler.AccountHandler
	adminHandler   *handler.AdminHandler
	rankingHandler *handler.RankingHandler
	gameHandler    *handler.GameHandler
	hostHandler    *handler.HostHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config         *config.Config
	AccountService *service.AccountService
	RankingService *service.RankingService
	Sessions       *service.SessionManager
	Panels         *hostpanel.Manager
	Resolver       game.IdentityResolver
	Scripted       *game.Registry
	Hosted         *game.Registry
}

// NewTeleBot creates the Telegram client for cfg.
func NewTeleBot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// New creates a new Bot on teleBot. Game rooms talk through rooms, which must
// share teleBot as their sender.
func New(teleBot *tele.Bot, rooms *Rooms, deps *Dependencies) *Bot {
	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		rooms:    rooms,
		access:   NewPrivateAccess(),
		sessions: deps.Sessions,
		scripted: deps.Scripted,
	}

	// Initialize handlers
	b.accountHandler = handler.NewAccountHandler(deps.AccountService)
	b.adminHandler = handler.NewAdminHandler(deps.AccountService, lock.NewKeyedLock())
	b.rankingHandler = handler.NewRankingHandler(deps.RankingService, deps.AccountService)
	b.gameHandler = handler.NewGameHandler(deps.Sessions, deps.Scripted, deps.Hosted)
	b.hostHandler = handler.NewHostHandler(deps.Config, deps.Sessions, deps.Resolver, deps.Panels)

	b.registerMiddleware()
	b.registerHandlers()

	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())

	// Whitelist middleware - check if chat is allowed
	b.bot.Use(WhitelistMiddleware(b.cfg, b.access))

	b.bot.Use(RoomsMiddleware(b.rooms))

	// Logging middleware
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command handlers.
func (b *Bot) registerHandlers() {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/bits", b.accountHandler.HandleBits)

	// Ranking handlers
	b.bot.Handle("/top", b.rankingHandler.HandleTop)
	b.bot.Handle("/daily_top", b.rankingHandler.HandleDailyTop)
	b.bot.Handle("/pastgames", b.rankingHandler.HandlePastGames)
	b.bot.Handle("/hosted", b.rankingHandler.HandleHosted)

	// Game handlers
	b.bot.Handle("/games", b.gameHandler.HandleGames)
	b.bot.Handle("/joingame", b.gameHandler.HandleJoin)
	b.bot.Handle("/join", b.gameHandler.HandleJoin)
	b.bot.Handle("/leavegame", b.gameHandler.HandleLeave)
	b.bot.Handle("/leave", b.gameHandler.HandleLeave)
	for _, command := range b.scripted.MinigameCommands() {
		b.bot.Handle("/"+command, b.gameHandler.HandleMinigame)
	}

	// Host handlers
	b.bot.Handle("/host", b.hostHandler.HandleHost)
	b.bot.Handle("/subhost", b.hostHandler.HandleSubHost)
	b.bot.Handle("/hoststart", b.hostHandler.HandleHostStart)
	b.bot.Handle("/endhost", b.hostHandler.HandleEndHost)
	b.bot.Handle("/restart", b.hostHandler.HandleRestart)
	b.bot.Handle("/extend", b.hostHandler.HandleExtend)
	b.bot.Handle("/starttimer", b.hostHandler.HandleStartTimer)
	b.bot.Handle("/gametimer", b.hostHandler.HandleGameTimer)
	b.bot.Handle("/addpoints", b.hostHandler.HandleAddPoints)
	b.bot.Handle("/removepoints", b.hostHandler.HandleRemovePoints)
	b.bot.Handle("/split", b.hostHandler.HandleSplit)
	b.bot.Handle("/unsplit", b.hostHandler.HandleUnsplit)
	b.bot.Handle("/win", b.hostHandler.HandleWin)
	b.bot.Handle("/autowin", b.hostHandler.HandleAutoWin)
	b.bot.Handle("/savewinner", b.hostHandler.HandleSaveWinner)
	b.bot.Handle("/twist", b.hostHandler.HandleTwist)
	b.bot.Handle("/storemsg", b.hostHandler.HandleStoreMsg)
	b.bot.Handle("/showmsg", b.hostHandler.HandleShowMsg)
	b.bot.Handle("/scorecap", b.hostHandler.HandleScoreCap)
	b.bot.Handle("/panel", b.hostHandler.HandlePanel)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_add", b.adminHandler.HandleAdminAdd)
	adminGroup.Handle("/admin_sub", b.adminHandler.HandleAdminSub)
	adminGroup.Handle("/admin_set", b.adminHandler.HandleAdminSet)
	adminGroup.Handle("/creategame", b.gameHandler.HandleCreateGame)
	adminGroup.Handle("/startgame", b.gameHandler.HandleStartGame)
	adminGroup.Handle("/endgame", b.gameHandler.HandleEndGame)

	// In-game commands such as /g are routed to the running games
	b.bot.Handle(tele.OnText, b.gameHandler.HandleText)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops polling and ends every running game.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
	b.sessions.Shutdown()
}
