package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/paramedia/dispatch/internal/auth"
	"github.com/paramedia/dispatch/internal/report"
	"github.com/paramedia/dispatch/internal/shared/config"
	"github.com/paramedia/dispatch/internal/shared/database"
	"github.com/paramedia/dispatch/internal/shared/events"
	"github.com/paramedia/dispatch/internal/shared/logger"
	"github.com/paramedia/dispatch/internal/shared/metrics"
	"github.com/paramedia/dispatch/internal/shared/middleware"
	"github.com/paramedia/dispatch/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info().Str("env", cfg.Server.Env).Int("port", cfg.Server.Port).Msg("starting dispatch API")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// The event bus is optional: when KurrentDB is unreachable the API runs
	// without domain events.
	var bus *events.Bus
	if cfg.Events.Enabled {
		bus, err = events.NewBus(ctx, cfg.Events)
		if err != nil {
			log.Warn().Err(err).Msg("event store unavailable, continuing without domain events")
			bus = nil
		} else {
			defer bus.Close()
		}
	}

	userRepo := user.NewRepository(db.Pool)
	reportRepo := report.NewRepository(db.Pool)

	if err := userRepo.EnsureAdmin(ctx, log, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed administrator")
	}
	if cfg.Seed.DemoData {
		seedDemo(ctx, log, userRepo, reportRepo)
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	evaluator := auth.NewEvaluator(user.NewDirectory(userRepo))

	userHandler := user.NewHandler(userRepo, tokens, bus)
	reportHandler := report.NewHandler(reportRepo, bus)

	loginLimiter := middleware.NewIPRateLimiter(cfg.Login.RatePerSecond, cfg.Login.Burst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logger.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS)
	r.Use(middleware.MaxBody(1 << 20))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Health(req.Context()); err != nil {
			http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.With(loginLimiter.Middleware).Post("/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokens, evaluator))
		userHandler.Register(r)
		reportHandler.Register(r)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// seedDemo loads demo personnel and reports into an empty store. Failures
// are logged and skipped: fixtures are a convenience, not a startup
// requirement.
func seedDemo(ctx context.Context, log zerolog.Logger, users *user.Repository, reports *report.Repository) {
	seeded, err := users.SeedDemo(ctx, log)
	if err != nil {
		log.Warn().Err(err).Msg("demo user seed failed")
		return
	}
	if len(seeded) == 0 {
		return
	}

	creators := make([]report.Creator, 0, len(seeded))
	for _, u := range seeded {
		creators = append(creators, report.Creator{ID: u.ID, Name: u.FullName(), Shifts: u.Shifts})
	}

	if err := reports.SeedDemo(ctx, log, creators); err != nil {
		log.Warn().Err(err).Msg("demo report seed failed")
	}
}
