package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"mathpop"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres   Postgres
	Redis      Redis
	Security   Security
	Game       Game
	Onboarding Onboarding
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL  time.Duration `env:"GUEST_TOKEN_TTL" envDefault:"24h"`
}

// Game groups the round timing knobs. The defaults are the shipped rules;
// shorter values are handy in development.
type Game struct {
	RoundSeconds      time.Duration `env:"ROUND_SECONDS" envDefault:"15s"`
	TickInterval      time.Duration `env:"TICK_INTERVAL" envDefault:"100ms"`
	LevelAdvanceDelay time.Duration `env:"LEVEL_ADVANCE_DELAY" envDefault:"1s"`
	WrongFeedbackHold time.Duration `env:"WRONG_FEEDBACK_HOLD" envDefault:"500ms"`
	RoundRestartDelay time.Duration `env:"ROUND_RESTART_DELAY" envDefault:"1s"`
	SessionMaxIdle    time.Duration `env:"SESSION_MAX_IDLE" envDefault:"30m"`
	SessionSweepEvery time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
}

// Onboarding governs tour flag caching.
type Onboarding struct {
	CacheTTL time.Duration `env:"TOUR_FLAG_CACHE_TTL" envDefault:"10m"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
