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

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Mail        MailConfig
	Storage     StorageConfig
	StatusJob   StatusJobConfig
	Reminders   ReminderConfig
	Dashboard   DashboardConfig
	MailQueue   MailQueueConfig
	Certificate CertificateConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig selects the outbound email transport.
type MailConfig struct {
	Provider  string
	APIKey    string
	FromName  string
	FromEmail string
}

// StorageConfig locates uploaded event images and report photos.
type StorageConfig struct {
	UploadsDir string
	PublicBase string
}

// StatusJobConfig tunes the event status recompute pass.
type StatusJobConfig struct {
	Enabled  bool
	Interval time.Duration
}

// ReminderConfig tunes the daily pre-event reminder dispatch.
type ReminderConfig struct {
	Enabled bool
	Hour    int
}

// DashboardConfig governs dashboard statistics caching.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// MailQueueConfig sizes the asynchronous email worker pool.
type MailQueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// CertificateConfig holds the issuer identity printed on certificates.
type CertificateConfig struct {
	Institution string
	Unit        string
	MinHours    int
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
		if !errors.As(err, &notFound) {
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		Provider:  v.GetString("MAIL_PROVIDER"),
		APIKey:    v.GetString("SENDGRID_API_KEY"),
		FromName:  v.GetString("MAIL_FROM_NAME"),
		FromEmail: v.GetString("MAIL_FROM_EMAIL"),
	}

	cfg.Storage = StorageConfig{
		UploadsDir: v.GetString("UPLOADS_DIR"),
		PublicBase: v.GetString("UPLOADS_PUBLIC_BASE"),
	}

	cfg.StatusJob = StatusJobConfig{
		Enabled:  v.GetBool("ENABLE_STATUS_JOB"),
		Interval: parseDuration(v.GetString("STATUS_JOB_INTERVAL"), time.Hour),
	}

	cfg.Reminders = ReminderConfig{
		Enabled: v.GetBool("ENABLE_REMINDERS"),
		Hour:    v.GetInt("REMINDER_HOUR"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.MailQueue = MailQueueConfig{
		Workers:    v.GetInt("MAIL_QUEUE_WORKERS"),
		BufferSize: v.GetInt("MAIL_QUEUE_BUFFER"),
		MaxRetries: v.GetInt("MAIL_QUEUE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("MAIL_QUEUE_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Certificate = CertificateConfig{
		Institution: v.GetString("CERT_INSTITUTION"),
		Unit:        v.GetString("CERT_UNIT"),
		MinHours:    v.GetInt("CERT_MIN_HOURS"),
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
	v.SetDefault("DB_NAME", "nss_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAIL_PROVIDER", "console")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "NSS Portal")
	v.SetDefault("MAIL_FROM_EMAIL", "nss@vignan.ac.in")

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_PUBLIC_BASE", "/uploads")

	v.SetDefault("ENABLE_STATUS_JOB", true)
	v.SetDefault("STATUS_JOB_INTERVAL", "1h")

	v.SetDefault("ENABLE_REMINDERS", true)
	v.SetDefault("REMINDER_HOUR", 9)

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("MAIL_QUEUE_WORKERS", 2)
	v.SetDefault("MAIL_QUEUE_BUFFER", 64)
	v.SetDefault("MAIL_QUEUE_RETRIES", 3)
	v.SetDefault("MAIL_QUEUE_RETRY_DELAY", "5s")

	v.SetDefault("CERT_INSTITUTION", "Vignan University")
	v.SetDefault("CERT_UNIT", "National Service Scheme")
	v.SetDefault("CERT_MIN_HOURS", 60)
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
