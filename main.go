package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/todo-api/internal/api"
	"github.com/isdelr/todo-api/internal/auth"
	"github.com/isdelr/todo-api/internal/config"
	"github.com/isdelr/todo-api/internal/database"
	"github.com/isdelr/todo-api/internal/logger"
	"github.com/isdelr/todo-api/internal/maintenance"
	"github.com/isdelr/todo-api/internal/services"
	"github.com/isdelr/todo-api/internal/store"
	"github.com/isdelr/todo-api/internal/store/cachestore"
	"github.com/isdelr/todo-api/internal/store/mongostore"
	"github.com/isdelr/todo-api/internal/store/sqlstore"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Set up storage
	st, err := openStore(startCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer st.Close()

	// Set up services
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewJWTCodec(cfg.JWTSecret, cfg.TokenTTL)
	userService := services.NewUserService(st.Users(), hasher, tokens)
	todoService := services.NewTodoService(st.Todos())

	// Expired tokens only accumulate when tokens expire at all.
	var sweeper *maintenance.TokenSweeper
	if cfg.TokenTTL > 0 && cfg.TokenSweepSchedule != "" {
		sweeper, err = maintenance.NewTokenSweeper(st.Users(), cfg.TokenSweepSchedule)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up token sweeper")
		}
		sweeper.Start()
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		Logger:         log.Logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Tokens:         tokens,
		Users:          userService,
		Todos:          todoService,
		Health:         st,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

// openStore picks the backend from DATABASE_URL and optionally layers the
// Redis todo cache on top.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	dialect, dsn := database.ParseURL(cfg.DatabaseURL)
	switch dialect {
	case database.DialectMongo:
		st, err = mongostore.Open(ctx, dsn, cfg.DatabaseName)
		if err != nil {
			return nil, err
		}
	default:
		db, err := database.New(ctx, dialect, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
		}
		if err := database.Migrate(ctx, db, dialect); err != nil {
			db.Close()
			return nil, err
		}
		st = sqlstore.New(db, dialect)
	}
	log.Info().Str("dialect", string(dialect)).Msg("Store ready")

	if cfg.RedisAddr == "" {
		return st, nil
	}
	rdb, err := cachestore.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		st.Close()
		return nil, err
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("Todo cache enabled")
	return cachestore.Wrap(st, rdb, cfg.TodoCacheTTL), nil
}
