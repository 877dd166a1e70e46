package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	FollowUps     FollowUpsConfig
	Approvals     ApprovalsConfig
	Transfers     TransfersConfig
	Notifications NotificationsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FollowUpsConfig tunes follow-up caching and the missed sweep.
type FollowUpsConfig struct {
	CacheTTL          time.Duration
	MissedSweep       bool
	MissedSweepSpec   string
	MissedGracePeriod time.Duration
}

// ApprovalsConfig toggles the approval request endpoints and the deferred mutation route with them.
type ApprovalsConfig struct {
	Enabled bool
}

// TransfersConfig bounds the transfer fan-out.
type TransfersConfig struct {
	Concurrency int
}

// NotificationsConfig configures in-app notifications and optional email delivery.
type NotificationsConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	Workers        int
	MaxRetries     int
}

// EmailEnabled reports whether outbound email is configured.
func (c NotificationsConfig) EmailEnabled() bool {
	return strings.TrimSpace(c.SendGridAPIKey) != "" && strings.TrimSpace(c.FromEmail) != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET"), Issuer: v.GetString("JWT_ISSUER")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.FollowUps = FollowUpsConfig{
		CacheTTL:          parseDuration(v.GetString("FOLLOWUP_CACHE_TTL"), 2*time.Minute),
		MissedSweep:       v.GetBool("ENABLE_MISSED_SWEEP"),
		MissedSweepSpec:   v.GetString("MISSED_SWEEP_SPEC"),
		MissedGracePeriod: parseDuration(v.GetString("MISSED_GRACE_PERIOD"), 24*time.Hour),
	}

	cfg.Approvals = ApprovalsConfig{
		Enabled: v.GetBool("ENABLE_APPROVALS"),
	}

	concurrency := v.GetInt("TRANSFER_CONCURRENCY")
	if concurrency <= 0 {
		concurrency = 8
	}
	cfg.Transfers = TransfersConfig{Concurrency: concurrency}

	cfg.Notifications = NotificationsConfig{
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromEmail:      v.GetString("NOTIFY_FROM_EMAIL"),
		FromName:       v.GetString("NOTIFY_FROM_NAME"),
		Workers:        v.GetInt("NOTIFY_WORKERS"),
		MaxRetries:     v.GetInt("NOTIFY_MAX_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "consultancy_crm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FOLLOWUP_CACHE_TTL", "2m")
	v.SetDefault("ENABLE_MISSED_SWEEP", false)
	v.SetDefault("MISSED_SWEEP_SPEC", "0 */15 * * * *")
	v.SetDefault("MISSED_GRACE_PERIOD", "24h")

	v.SetDefault("ENABLE_APPROVALS", true)
	v.SetDefault("TRANSFER_CONCURRENCY", 8)

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("NOTIFY_FROM_EMAIL", "")
	v.SetDefault("NOTIFY_FROM_NAME", "Consultancy CRM")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
