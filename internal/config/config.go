// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"room-game-bot/internal/game"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Games     GamesConfig     `mapstructure:"games"`
	Host      HostConfig      `mapstructure:"host"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required"`
	PoolSize        int           `mapstructure:"pool_size" validate:"gte=1"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// GamesConfig holds room game configuration.
type GamesConfig struct {
	// SignupsRefreshDelay throttles signups view updates.
	SignupsRefreshDelay time.Duration `mapstructure:"signups_refresh_delay" validate:"gte=0"`
	// Rooms holds the defaults every chat starts from.
	Rooms RoomConfig `mapstructure:"rooms"`
	// Overrides holds per-chat room settings keyed by chat ID.
	Overrides map[int64]RoomConfig `mapstructure:"overrides"`
}

// RoomConfig holds per-chat game timers in minutes. Zero disables a timer.
type RoomConfig struct {
	AutoStartMinutes  float64 `mapstructure:"auto_start_minutes" validate:"gte=0"`
	CooldownMinutes   float64 `mapstructure:"cooldown_minutes" validate:"gte=0"`
	AutoCreateMinutes float64 `mapstructure:"auto_create_minutes" validate:"gte=0"`
	Ranked            bool    `mapstructure:"ranked"`
}

// HostConfig holds user-hosted game configuration.
type HostConfig struct {
	TimeLimit           time.Duration `mapstructure:"time_limit" validate:"gt=0"`
	FirstWarning        time.Duration `mapstructure:"first_warning" validate:"gt=0,ltfield=TimeLimit"`
	SecondWarning       time.Duration `mapstructure:"second_warning" validate:"gt=0,ltfield=FirstWarning"`
	MinExtension        time.Duration `mapstructure:"min_extension" validate:"gt=0"`
	MaxExtension        time.Duration `mapstructure:"max_extension" validate:"gtefield=MinExtension"`
	ForceEndCreateDelay time.Duration `mapstructure:"force_end_create_delay" validate:"gte=0"`
	// Difficulties ranks hosted formats by ID: easy, medium or hard.
	Difficulties map[string]string `mapstructure:"difficulties" validate:"dive,oneof=easy medium hard"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, HOST_TIME_LIMIT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional, env vars can provide all config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for chatID, room := range c.Games.Overrides {
		if err := validate.Struct(room); err != nil {
			return fmt.Errorf("invalid room config for chat %d: %w", chatID, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamebot")
	v.SetDefault("database.name", "gamebot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Room game defaults
	v.SetDefault("games.signups_refresh_delay", game.DefaultSignupsRefreshDelay)
	v.SetDefault("games.rooms.auto_start_minutes", 2)
	v.SetDefault("games.rooms.cooldown_minutes", 1)
	v.SetDefault("games.rooms.auto_create_minutes", 0)
	v.SetDefault("games.rooms.ranked", false)

	// User-hosted game defaults
	v.SetDefault("host.time_limit", "25m")
	v.SetDefault("host.first_warning", "5m")
	v.SetDefault("host.second_warning", "30s")
	v.SetDefault("host.min_extension", "1m")
	v.SetDefault("host.max_extension", "2m")
	v.SetDefault("host.force_end_create_delay", "1m")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}

// RoomSettings returns the game settings of a chat.
func (c *Config) RoomSettings(chatID int64) game.RoomSettings {
	room := c.Games.Rooms
	if override, ok := c.Games.Overrides[chatID]; ok {
		room = override
	}
	return game.RoomSettings{
		AutoStartDelay:  minutes(room.AutoStartMinutes),
		Cooldown:        minutes(room.CooldownMinutes),
		AutoCreateDelay: minutes(room.AutoCreateMinutes),
		Ranked:          room.Ranked,
	}
}

// HostDifficulty returns the difficulty of a hosted format. Unranked formats
// are medium.
func (c *Config) HostDifficulty(formatID string) game.Difficulty {
	switch d := game.Difficulty(strings.ToLower(c.Host.Difficulties[formatID])); d {
	case game.DifficultyEasy, game.DifficultyMedium, game.DifficultyHard:
		return d
	}
	return game.DifficultyMedium
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
