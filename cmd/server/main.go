// Command server runs the communication-core API: deferred letters with
// their delivery scheduler, one-to-one conversations, and messages.
//
// Startup order: env/config, logging, database, tracing, optional
// collaborators (valkey, webhook, remote friend graph), scheduler, HTTP
// server. Shutdown unwinds in reverse on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Bashy-Codes/wf-server/internal/config"
	"github.com/Bashy-Codes/wf-server/internal/friends"
	httpapi "github.com/Bashy-Codes/wf-server/internal/http"
	"github.com/Bashy-Codes/wf-server/internal/notify"
	"github.com/Bashy-Codes/wf-server/internal/observability"
	"github.com/Bashy-Codes/wf-server/internal/realtime"
	"github.com/Bashy-Codes/wf-server/internal/repo"
	"github.com/Bashy-Codes/wf-server/internal/scheduler"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; absent .env is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("opening database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrating schema")
	}

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setting up tracing")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("database tracing unavailable")
		}
	}

	// Optional collaborators degrade to no-ops when unconfigured.
	var rt realtime.Publisher = realtime.Nop{}
	if cfg.ValkeyAddr != "" {
		vk, err := realtime.NewValkey(cfg.ValkeyAddr, cfg.ValkeyPassword)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.ValkeyAddr).
				Msg("valkey unavailable, realtime invalidation disabled")
		} else {
			defer vk.Close()
			rt = vk
		}
	}

	var dispatcher notify.Dispatcher = notify.Nop{}
	if cfg.Notify.URL != "" {
		dispatcher = notify.NewWebhook(cfg.Notify.URL, cfg.Notify.AuthKey, cfg.Notify.Timeout)
	}

	var checker friends.Checker = &friends.Store{DB: db}
	if cfg.FriendsServiceURL != "" {
		checker = friends.NewHTTP(cfg.FriendsServiceURL, cfg.Notify.AuthKey, 5*time.Second)
	}

	sched := scheduler.New(db, cfg.Scheduler.PollInterval, cfg.Scheduler.BatchSize)
	sched.Start(ctx)
	defer sched.Stop()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:        db,
		Friends:   checker,
		Notifier:  dispatcher,
		Realtime:  rt,
		Scheduler: sched,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("server stopped")
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
