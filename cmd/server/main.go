// Command server runs the Celan IA site, dashboard and JSON API.
//
// @title        Celan IA API
// @version      1.0
// @description  Accounts, AI agents and the chat proxy behind the Celan IA dashboard.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/celanai/celan/internal/api"
	"github.com/celanai/celan/internal/api/handler"
	"github.com/celanai/celan/internal/api/middleware"
	"github.com/celanai/celan/internal/core/service"
	"github.com/celanai/celan/internal/helpcenter"
	"github.com/celanai/celan/internal/infrastructure/config"
	mongostore "github.com/celanai/celan/internal/infrastructure/db/mongo"
	redisstore "github.com/celanai/celan/internal/infrastructure/db/redis"
	"github.com/celanai/celan/internal/infrastructure/db/sqldb"
	"github.com/celanai/celan/internal/infrastructure/llm"
	"github.com/celanai/celan/pkg/logger"
)

func main() {
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "celan"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "celan",
	})
	if envErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// --- Stores ---
	mongoClient, mongoDB, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "celan"})
	if err != nil {
		log.Fatal().Err(err).Msg("identity store unavailable")
	}
	defer func() {
		if err := mongostore.Disconnect(mongoClient); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	identities := mongostore.NewIdentityRepository(mongoDB)
	if err := identities.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("identity indexes")
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("session store unavailable")
	}
	defer rdb.Close()

	sqlDB, err := sqldb.Open(ctx, sqldb.Config{Driver: cfg.Database.Driver, URL: cfg.Database.URL})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("relational store unavailable")
	}
	defer sqlDB.Close()

	// --- Services ---
	sessions := service.NewSessionService(identities, redisstore.NewSessionRepository(rdb), service.SessionConfig{
		Secret:     cfg.Session.JWTSecret,
		AccessTTL:  cfg.Session.AccessTTL,
		RefreshTTL: cfg.Session.RefreshTTL,
	}, log)
	authService := service.NewAuthService(sessions, sqldb.NewProfileRepository(sqlDB), log)
	agentService := service.NewAgentService(sqldb.NewAgentRepository(sqlDB), log)

	completions := llm.NewOpenAI(nil, llm.Config{APIKey: cfg.OpenAI.APIKey, BaseURL: cfg.OpenAI.BaseURL})
	if !completions.Configured() {
		log.Warn().Msg("OPENAI_API_KEY is not set; chat requests will fail")
	}
	chatService := service.NewChatService(completions, cfg.OpenAI.Model, log)

	help, err := helpcenter.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("help catalog")
	}

	// --- HTTP ---
	e, err := api.NewRouter(api.Deps{
		Auth:     authService,
		Sessions: sessions,
		Agents:   agentService,
		Chat:     chatService,
		Help:     help,
		Cookies:  &middleware.Cookies{Secure: cfg.IsProduction(), MaxAge: cfg.Session.RefreshTTL},
		Gate: middleware.GateConfig{
			Protected: cfg.Gate.Protected,
			Auth:      cfg.Gate.Auth,
		},
		Checks: map[string]handler.Check{
			"mongodb": handler.MongoCheck(mongoDB),
			"redis":   handler.RedisCheck(rdb),
			"sql":     handler.SQLCheck(sqlDB),
		},
		Log: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server stopped")
}
