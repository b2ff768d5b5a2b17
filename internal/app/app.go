package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mathpop/mathpop/internal/config"
	"github.com/mathpop/mathpop/internal/db/repository"
	"github.com/mathpop/mathpop/internal/equation"
	"github.com/mathpop/mathpop/internal/game"
	"github.com/mathpop/mathpop/internal/identity"
	"github.com/mathpop/mathpop/internal/identity/jwt"
	"github.com/mathpop/mathpop/internal/logging"
	"github.com/mathpop/mathpop/internal/onboarding"
	"github.com/mathpop/mathpop/internal/server"
	"github.com/mathpop/mathpop/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	sessions  *game.SessionManager
	hub       *ws.Hub
	janitor   *game.Janitor
	bgCancels []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	profileRepo := repository.NewProfileRepository(pool)

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be configured")
	}

	identitySvc := identity.NewService(profileRepo, identity.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			Secret: []byte(cfg.Security.JWTSecret),
			TTL:    cfg.Security.TokenTTL,
			Issuer: cfg.Name,
		},
	}, logger)
	playerHandlers := identity.NewHTTPHandlers(identitySvc, logger)

	tourCache := onboarding.NewCache(redisClient, cfg.Onboarding.CacheTTL)
	tourSvc := onboarding.NewService(profileRepo, tourCache, logger)

	sessionCfg := game.SessionConfig{
		Generator:         equation.NewGenerator(0),
		RoundTime:         cfg.Game.RoundSeconds,
		TickInterval:      cfg.Game.TickInterval,
		LevelAdvanceDelay: cfg.Game.LevelAdvanceDelay,
		WrongFeedbackHold: cfg.Game.WrongFeedbackHold,
		RoundRestartDelay: cfg.Game.RoundRestartDelay,
	}
	sessions := game.NewSessionManager(sessionCfg, logger)
	wsHub := ws.NewHub(logger)

	gameHandler := game.NewHandler(sessions, wsHub, identitySvc, tourSvc, logger)
	janitor := game.NewJanitor(sessions, cfg.Game.SessionSweepEvery, cfg.Game.SessionMaxIdle, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, playerHandlers, gameHandler.HandleWebSocket)

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      apiServer,
		sessions:  sessions,
		hub:       wsHub,
		janitor:   janitor,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	a.notifyShutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.hub.CloseAll()
	a.sessions.CloseAll()

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// notifyShutdown tells connected clients the server is going away so they
// can show a reconnect notice instead of a silent drop.
func (a *Application) notifyShutdown() {
	payload, err := json.Marshal(ws.ServerShutdownPayload{Message: "Server is restarting"})
	if err != nil {
		return
	}
	if err := a.hub.BroadcastAll(ws.Message{Type: ws.TypeServerShutdown, Payload: payload}); err != nil {
		a.logger.Warn().Err(err).Msg("shutdown broadcast incomplete")
	}
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.janitor != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.janitor.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("session janitor stopped")
			}
		}()
	}
}
