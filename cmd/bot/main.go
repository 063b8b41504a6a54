// Package main is the entry point for the room game bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"room-game-bot/internal/bot"
	"room-game-bot/internal/config"
	"room-game-bot/internal/game"
	"room-game-bot/internal/game/mathquiz"
	"room-game-bot/internal/game/userhosted"
	"room-game-bot/internal/hostpanel"
	"room-game-bot/internal/pkg/db"
	"room-game-bot/internal/repository"
	"room-game-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// A .env file is optional, the environment wins over it
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	if err := dbPool.HealthCheck(ctx, 5*time.Second); err != nil {
		log.Fatal().Err(err).Msg("Database unhealthy after migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	creditRepo := repository.NewCreditRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	historyRepo := repository.NewHistoryRepository(dbPool.Pool)
	hostStatRepo := repository.NewHostStatRepository(dbPool.Pool)

	// Initialize services
	accountService := service.NewAccountService(userRepo, creditRepo)
	rankingService := service.NewRankingService(creditRepo, txRepo, historyRepo, hostStatRepo, time.Local)
	ledger := service.NewLedgerService(userRepo, creditRepo, historyRepo, hostStatRepo)
	resolver := service.NewUserResolver(userRepo)

	// Initialize game catalogues
	scripted := game.NewRegistry()
	if err := scripted.Register(mathquiz.Format); err != nil {
		log.Fatal().Err(err).Msg("Failed to register math quiz")
	}
	hosted := userhosted.NewRegistry()

	log.Info().
		Int("scripted_games", scripted.Count()).
		Int("hosted_games", hosted.Count()).
		Msg("Games registered")

	// Initialize Telegram transport
	teleBot, err := bot.NewTeleBot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}
	rooms := bot.NewRooms(teleBot, cfg.Admin.IDs)
	panels := hostpanel.NewManager(scripted, bot.NewPanelSender(teleBot))

	sessions := service.NewSessionManager(
		service.SessionDeps{
			Rooms:    rooms,
			Ledger:   ledger,
			Users:    resolver,
			Settings: cfg,
			Panels:   panels,
		},
		service.SessionConfig{
			Scripted: scripted,
			Hosted:   hosted,
			Timing: userhosted.Timing{
				TimeLimit:           cfg.Host.TimeLimit,
				FirstWarning:        cfg.Host.FirstWarning,
				SecondWarning:       cfg.Host.SecondWarning,
				MinExtension:        cfg.Host.MinExtension,
				MaxExtension:        cfg.Host.MaxExtension,
				ForceEndCreateDelay: cfg.Host.ForceEndCreateDelay,
			},
			SignupsRefreshDelay: cfg.Games.SignupsRefreshDelay,
		},
	)

	telegramBot := bot.New(teleBot, rooms, &bot.Dependencies{
		Config:         cfg,
		AccountService: accountService,
		RankingService: rankingService,
		Sessions:       sessions,
		Panels:         panels,
		Resolver:       resolver,
		Scripted:       scripted,
		Hosted:         hosted,
	})

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}
