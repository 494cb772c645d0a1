package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"microblog/internal/app/di"
	postadapters "microblog/internal/feature/posts/adapters"
	searchusecase "microblog/internal/feature/search/usecase"
	"microblog/internal/platform/config"
	platformdb "microblog/internal/platform/db"
	"microblog/internal/platform/logger"
	"microblog/internal/platform/metrics"
	platformredis "microblog/internal/platform/redis"
	"microblog/internal/shared/ratelimiter"
)

// reindexTimeout bounds a full rebuild.
const reindexTimeout = 30 * time.Minute

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.SetupDefault(os.Stderr, cfg.LogLevel)

	if !cfg.RedisEnabled() {
		slog.Error("REDIS_HOST is required to rebuild the search index")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
	defer cancel()

	db, err := platformdb.OpenDB(cfg.DatabaseURL, false)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	rdb, err := platformredis.NewRedisClient(ctx, cfg.RedisAddr(), cfg.RedisPassword)
	if err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() { _ = rdb.Close() }()

	postRepo := postadapters.NewPostRepository(db)
	limiter := ratelimiter.NewRateLimiter("reindex", cfg.ReindexRate, int(cfg.ReindexRate)+1)
	syncer := searchusecase.NewSynchronizer(
		di.NewKeywordIndex(rdb, cfg.SearchNamespace),
		postRepo,
		metrics.NewCollector(prometheus.NewRegistry()),
		limiter,
		cfg.ReindexBatchSize,
	)

	start := time.Now()
	n, err := syncer.Reindex(ctx)
	if err != nil {
		slog.Error("reindex failed", "error", err, "indexed", n)
		os.Exit(1)
	}
	slog.Info("reindex ok", "indexed", n, "elapsed", time.Since(start).Round(time.Millisecond))
}
