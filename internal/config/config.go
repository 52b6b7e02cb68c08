package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

// Config aggregates runtime configuration for the bridge.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Intercom  IntercomConfig
	Discord   DiscordConfig
	Sync      SyncConfig
	Retention RetentionConfig
	Notify    NotifyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	CacheTTLSec int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines admin API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// IntercomConfig holds remote conversation API credentials.
type IntercomConfig struct {
	BaseURL       string
	AccessToken   string
	WebhookSecret string
	AdminID       string
}

// DiscordConfig holds display surface credentials.
type DiscordConfig struct {
	BaseURL   string
	BotToken  string
	ChannelID string
}

// SyncConfig controls the batched sync sweep against the remote API.
type SyncConfig struct {
	BatchSize      int
	BatchDelayMsec int
	PerPage        int
}

// RetentionConfig controls the background ticket retention sweep.
type RetentionConfig struct {
	Days            int
	IntervalMinutes int
}

// NotifyConfig holds the optional event notification endpoint.
type NotifyConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "intercom-bridge"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          redisDB,
			CacheTTLSec: getEnvAsInt("REDIS_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Intercom: IntercomConfig{
			BaseURL:       getEnv("INTERCOM_BASE_URL", "https://api.intercom.io"),
			AccessToken:   os.Getenv("INTERCOM_ACCESS_TOKEN"),
			WebhookSecret: os.Getenv("INTERCOM_WEBHOOK_SECRET"),
			AdminID:       os.Getenv("INTERCOM_ADMIN_ID"),
		},
		Discord: DiscordConfig{
			BaseURL:   getEnv("DISCORD_BASE_URL", "https://discord.com/api/v10"),
			BotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		},
		Sync: SyncConfig{
			BatchSize:      getEnvAsInt("SYNC_BATCH_SIZE", 5),
			BatchDelayMsec: getEnvAsInt("SYNC_BATCH_DELAY_MS", 1000),
			PerPage:        getEnvAsInt("SYNC_PER_PAGE", 50),
		},
		Retention: RetentionConfig{
			Days:            getEnvAsInt("RETENTION_DAYS", 30),
			IntervalMinutes: getEnvAsInt("RETENTION_INTERVAL_MINUTES", 0),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Validate checks that credentials required to talk to the external
// collaborators are present.
func (c *Config) Validate() error {
	missing := []string{}
	if c.Intercom.AccessToken == "" {
		missing = append(missing, "INTERCOM_ACCESS_TOKEN")
	}
	if c.Discord.BotToken == "" {
		missing = append(missing, "DISCORD_BOT_TOKEN")
	}
	if c.Discord.ChannelID == "" {
		missing = append(missing, "DISCORD_CHANNEL_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}

// LoadQuickReplies returns the quick-reply set: the contents of the
// QUICK_REPLIES_FILE JSON file when configured, the compiled-in
// defaults otherwise.
func LoadQuickReplies() ([]domain.QuickReply, error) {
	path := os.Getenv("QUICK_REPLIES_FILE")
	if path == "" {
		return domain.DefaultQuickReplies(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quick replies: %w", err)
	}
	var replies []domain.QuickReply
	if err := json.Unmarshal(raw, &replies); err != nil {
		return nil, fmt.Errorf("parse quick replies: %w", err)
	}
	if len(replies) == 0 {
		return nil, fmt.Errorf("quick replies file %s is empty", path)
	}
	return replies, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// BatchDelay returns the pause between sync batches.
func (s SyncConfig) BatchDelay() time.Duration {
	if s.BatchDelayMsec <= 0 {
		return 0
	}
	return time.Duration(s.BatchDelayMsec) * time.Millisecond
}

// Interval returns the retention sweep period; zero disables the worker.
func (r RetentionConfig) Interval() time.Duration {
	if r.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(r.IntervalMinutes) * time.Minute
}

// CacheTTL returns the lookup cache entry lifetime.
func (r RedisConfig) CacheTTL() time.Duration {
	if r.CacheTTLSec <= 0 {
		return 0
	}
	return time.Duration(r.CacheTTLSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
