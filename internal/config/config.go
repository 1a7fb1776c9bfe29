package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/DoyleJ11/card-arena-backend/internal/engine"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Addr          string `env:"ADDR" envDefault:":8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev        bool   `env:"LOG_DEV" envDefault:"false"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	Game GameConfig `envPrefix:"GAME_"`
	WS   WSConfig   `envPrefix:"WS_"`
}

type GameConfig struct {
	MaxSeats         int           `env:"MAX_SEATS" envDefault:"8"`
	BoardWidth       int           `env:"BOARD_WIDTH" envDefault:"100"`
	BoardHeight      int           `env:"BOARD_HEIGHT" envDefault:"100"`
	Characters       int           `env:"CHARACTERS" envDefault:"4"`
	Locations        int           `env:"LOCATIONS" envDefault:"5"`
	OfferSize        int           `env:"OFFER_SIZE" envDefault:"3"`
	CountdownSeconds int           `env:"COUNTDOWN_SECONDS" envDefault:"30"`
	CountdownStep    time.Duration `env:"COUNTDOWN_STEP" envDefault:"1s"`
	TickInterval     time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	StallDelay       time.Duration `env:"STALL_DELAY" envDefault:"5s"`
	QuorumPercent    int           `env:"QUORUM_PERCENT" envDefault:"50"`
	StallPercent     int           `env:"STALL_PERCENT" envDefault:"90"`
	Seed             uint64        `env:"SEED" envDefault:"0"`
}

type WSConfig struct {
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"5s"`
	ClientTimeout     time.Duration `env:"CLIENT_TIMEOUT" envDefault:"10s"`
	OutboxSize        int           `env:"OUTBOX_SIZE" envDefault:"32"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Engine().Validate(); err != nil {
		return Config{}, err
	}
	if err := c.WS.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

var ErrInvalidWS = errors.New("invalid websocket config")

// Zero values fall back to the handler defaults; negatives are mistakes.
func (w WSConfig) validate() error {
	switch {
	case w.OutboxSize < 0:
		return fmt.Errorf("%w: outbox size %d", ErrInvalidWS, w.OutboxSize)
	case w.HeartbeatInterval < 0 || w.ClientTimeout < 0:
		return fmt.Errorf("%w: heartbeat durations must not be negative", ErrInvalidWS)
	}
	return nil
}

// Engine converts the game settings into the immutable rules value handed to
// every session.
func (c Config) Engine() engine.Config {
	cfg := engine.DefaultConfig()
	g := c.Game
	cfg.MaxSeats = g.MaxSeats
	cfg.Board = engine.Board{Width: g.BoardWidth, Height: g.BoardHeight}
	cfg.Characters = g.Characters
	cfg.Locations = g.Locations
	cfg.OfferSize = g.OfferSize
	cfg.CountdownSeconds = g.CountdownSeconds
	cfg.CountdownStep = g.CountdownStep
	cfg.TickInterval = g.TickInterval
	cfg.StallDelay = g.StallDelay
	cfg.QuorumPercent = g.QuorumPercent
	cfg.StallPercent = g.StallPercent
	cfg.Seed = g.Seed
	return cfg
}

func (c Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.LogDev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
