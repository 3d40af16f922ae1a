// Command server runs the Thinkly competition API.
//
// @title Thinkly API
// @version 1.0
// @description Weekly coding competitions: question bank, submissions and leaderboards.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/docs"
	"github.com/thinkly/thinkly-api/internal/config"
	"github.com/thinkly/thinkly-api/internal/handlers"
	"github.com/thinkly/thinkly-api/internal/logic"
	"github.com/thinkly/thinkly-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	// ClickHouse
	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		return fmt.Errorf("parse clickhouse url: %w", err)
	}
	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		return fmt.Errorf("connect clickhouse: %w", err)
	}
	defer ch.Close()
	if err := ch.Ping(ctx); err != nil {
		// Analytics are optional at boot; /ready reports the outage.
		sugar.Warnw("ClickHouse unavailable", "error", err)
	}

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	var mailer logic.Mailer
	if cfg.EmailAPIKey != "" {
		mailer = logic.NewEmailClient(logic.EmailConfig{
			APIURL:      cfg.EmailAPIURL,
			APIKey:      cfg.EmailAPIKey,
			SenderEmail: cfg.EmailSender,
			SenderName:  "Thinkly",
		})
	} else {
		sugar.Warn("EMAIL_API_KEY not set, emails will only be logged")
		mailer = &logic.LogMailer{Logger: sugar}
	}

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    ch,
		Redis:         rdb,
		Logger:        logger,
	})
	pool.Start(ctx)

	competitions := logic.NewCompetitionService(pg, logic.CompetitionConfig{
		ReminderLeadTimes: cfg.ReminderLeadTimes,
		MaxDuration:       cfg.MaxCompetitionDuration,
	}, sugar)

	leaderboard := logic.NewLeaderboardService(pg, rdb, competitions, cfg.LeaderboardCacheTTL, sugar)

	h := handlers.New(handlers.Config{
		WorkerPool:   pool,
		Postgres:     pg,
		ClickHouse:   ch,
		Redis:        rdb,
		Logger:       logger,
		Competitions: competitions,
		Auth: logic.NewAuthService(pg, logic.NewRedisTokenStore(rdb), mailer, logic.AuthConfig{
			JWTSecret:        []byte(cfg.JWTSecret),
			AccessTokenTTL:   cfg.AccessTokenTTL,
			PasswordResetTTL: cfg.PasswordResetTTL,
			FrontendURL:      cfg.FrontendURL,
		}, sugar),
		Leaderboard: leaderboard,
		Questions:   logic.NewQuestionService(pg),
		Scores:      logic.NewScoreService(pg, sugar),
		Admin:       logic.NewAdminService(pg, ch, leaderboard, pool.QueueDepth, sugar),
	})

	reminders := worker.NewReminderScheduler(pg, mailer, worker.ReminderConfig{
		PollInterval: cfg.ReminderPollInterval,
		FrontendURL:  cfg.FrontendURL,
	}, sugar)
	reminders.Start(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Mount("/api/v1", h.Routes())
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("HTTP server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		sugar.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("HTTP shutdown failed", "error", err)
	}

	// Stop producers before the consumers they feed.
	reminders.Stop()
	pool.Stop()
	sugar.Info("Server stopped")
	return nil
}
