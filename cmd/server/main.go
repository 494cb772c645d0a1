package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redisv9 "github.com/redis/go-redis/v9"

	"microblog/internal/app/di"
	"microblog/internal/app/router"
	accountadapters "microblog/internal/feature/account/adapters"
	accounthandler "microblog/internal/feature/account/transport/handler"
	accountusecase "microblog/internal/feature/account/usecase"
	graphadapters "microblog/internal/feature/graph/adapters"
	graphhandler "microblog/internal/feature/graph/transport/handler"
	graphusecase "microblog/internal/feature/graph/usecase"
	postadapters "microblog/internal/feature/posts/adapters"
	posthandler "microblog/internal/feature/posts/transport/handler"
	postusecase "microblog/internal/feature/posts/usecase"
	searchhandler "microblog/internal/feature/search/transport/handler"
	searchusecase "microblog/internal/feature/search/usecase"
	translatehandler "microblog/internal/feature/translate/transport/handler"
	translateusecase "microblog/internal/feature/translate/usecase"
	"microblog/internal/platform/config"
	platformdb "microblog/internal/platform/db"
	platformhandler "microblog/internal/platform/http/handler"
	jwtmw "microblog/internal/platform/jwt"
	"microblog/internal/platform/langdetect"
	"microblog/internal/platform/logger"
	"microblog/internal/platform/messaging"
	"microblog/internal/platform/metrics"
	platformredis "microblog/internal/platform/redis"
	"microblog/internal/shared/ratelimiter"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.SetupDefault(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := platformdb.OpenDB(cfg.DatabaseURL, cfg.RunMigrations)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("failed to access database handle", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Redis
	var rdb *redisv9.Client
	if cfg.RedisEnabled() {
		if tmp, err := platformredis.NewRedisClient(ctx, cfg.RedisAddr(), cfg.RedisPassword); err != nil {
			slog.Warn("Redis unavailable. Running without cache and search.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// NATS
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		if nc, err = messaging.Connect(cfg.NATSURL); err != nil {
			slog.Warn("NATS unavailable. Indexing in process.", "error", err)
			nc = nil
		} else {
			defer nc.Close()
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// Repository
	userRepo := accountadapters.NewUserRepository(db)
	followRepo := graphadapters.NewFollowRepository(db)
	postRepo := postadapters.NewPostRepository(db)
	feedRepo, cacheHook := di.NewFeedRepository(rdb, postRepo)

	// Search
	throttle := ratelimiter.NewRateLimiter("reindex", cfg.ReindexRate, int(cfg.ReindexRate)+1)
	syncer := searchusecase.NewSynchronizer(di.NewKeywordIndex(rdb, cfg.SearchNamespace), postRepo, collector, throttle, cfg.ReindexBatchSize)
	// Index workers outlive the signal context so shutdown can drain them.
	stopQueue, err := di.StartIntentQueue(context.Background(), cfg, nc, syncer)
	if err != nil {
		slog.Error("failed to start index queue", "error", err)
		os.Exit(1)
	}

	hooks := []postusecase.AfterCommitHook{syncer}
	if cacheHook != nil {
		hooks = append(hooks, cacheHook)
	}

	// Usecase
	accountUC := accountusecase.NewAccountUsecase(
		userRepo,
		jwtmw.NewGenerator(cfg.JWTSecret, cfg.JWTExpiration),
		jwtmw.NewResetTokens(cfg.JWTSecret, jwtmw.DefaultResetExpiration),
		di.NewMailer(cfg),
		cfg.PublicURL,
	)
	graphUC := graphusecase.NewGraphUsecase(followRepo, graphadapters.NewUserLookup(db))
	ledgerUC := postusecase.NewLedgerUsecase(postRepo, langdetect.NewDetector(langdetect.DefaultMinConfidence), hooks...)
	feedUC := postusecase.NewFeedUsecase(feedRepo, cfg.PostsPerPage)
	translateUC := translateusecase.NewTranslateUsecase(di.NewTranslator(ctx, cfg.GeminiEnabled), cfg.Languages)

	// Handler
	handlers := router.Handlers{
		Account:   accounthandler.NewAccountHandler(accountUC, graphUC, feedUC),
		Graph:     graphhandler.NewGraphHandler(graphUC),
		Posts:     posthandler.NewPostHandler(ledgerUC, feedUC),
		Search:    searchhandler.NewSearchHandler(syncer),
		Translate: translatehandler.NewTranslateHandler(translateUC),
		Health:    platformhandler.Health(sqlDB),
		Metrics:   metrics.Handler(reg),
	}

	touch := func(ctx context.Context, userID uint) {
		if err := accountUC.Touch(ctx, userID); err != nil {
			slog.Warn("failed to update last seen", "error", err, "user_id", userID)
		}
	}

	r := router.NewRouter(handlers, router.Options{
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		AdminUserIDs:    cfg.AdminUserIDs,
		Recorder:        collector,
		OnAuthenticated: []jwtmw.OnAuthenticated{touch},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	// No more commits can happen; flush pending index work and reset emails.
	stopQueue()
	accountUC.Wait()
	slog.Info("server stopped")
}
