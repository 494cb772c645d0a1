// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every setting of the process.
// It is read once at startup and treated as immutable afterwards.
type Config struct {
	// Database
	DatabaseURL   string
	RunMigrations bool

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Auth
	JWTSecret     string
	JWTExpiration time.Duration

	// Feed
	PostsPerPage int

	// Mail
	MailServer   string
	MailPort     int
	MailUsername string
	MailPassword string
	MailSender   string

	// Search
	NATSURL          string
	NATSSubject      string
	SearchNamespace  string
	IndexWorkers     int
	IndexQueueSize   int
	ReindexBatchSize int
	ReindexRate      float64
	AdminUserIDs     []uint // Users allowed to trigger a rebuild over HTTP

	// Translation
	Languages     []string
	GeminiEnabled bool

	// Server
	ServerPort  string
	PublicURL   string   // Base URL placed in emailed links
	CORSOrigins []string // Empty allows every origin
	LogLevel    string
}

// Load reads Config from environment variables.
// It fails when a required variable is missing.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.DatabaseURL = getEnvString("DATABASE_URL", "microblog.db")
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", true)
	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPort = getEnvString("REDIS_PORT", "6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.JWTExpiration = getEnvDuration("JWT_EXPIRATION", 24*time.Hour)
	cfg.PostsPerPage = getEnvInt("POSTS_PER_PAGE", 15)
	cfg.MailServer = os.Getenv("MAIL_SERVER")
	cfg.MailPort = getEnvInt("MAIL_PORT", 25)
	cfg.MailUsername = os.Getenv("MAIL_USERNAME")
	cfg.MailPassword = os.Getenv("MAIL_PASSWORD")
	cfg.MailSender = getEnvString("MAIL_SENDER", "no-reply@microblog.local")
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubject = getEnvString("NATS_SUBJECT", "search.intents")
	cfg.SearchNamespace = getEnvString("SEARCH_NAMESPACE", "search")
	cfg.IndexWorkers = getEnvInt("INDEX_WORKERS", 2)
	cfg.IndexQueueSize = getEnvInt("INDEX_QUEUE_SIZE", 256)
	cfg.ReindexBatchSize = getEnvInt("REINDEX_BATCH_SIZE", 500)
	cfg.ReindexRate = getEnvFloat("REINDEX_RATE", 200)
	cfg.AdminUserIDs = getEnvIDList("ADMIN_USER_IDS")
	cfg.Languages = getEnvList("LANGUAGES", []string{"en", "ha"})
	cfg.GeminiEnabled = getEnvBool("GEMINI_ENABLED", false)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.PublicURL = strings.TrimRight(getEnvString("PUBLIC_URL", "http://localhost:"+cfg.ServerPort), "/")
	cfg.CORSOrigins = getEnvList("CORS_ALLOWED_ORIGINS", nil)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// RedisEnabled reports whether a Redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// MailEnabled reports whether an SMTP relay was configured.
func (c *Config) MailEnabled() bool {
	return c.MailServer != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// getEnvIDList parses a comma-separated list of positive IDs, skipping invalid entries.
func getEnvIDList(key string) []uint {
	var ids []uint
	for _, part := range getEnvList(key, nil) {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids
}
