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

	Database   DatabaseConfig
	Redis      RedisConfig
	Waha       WahaConfig
	Portal     PortalConfig
	Jobs       JobsConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Dashboard  DashboardConfig
	Encryption EncryptionConfig
	Health     HealthConfig
	Audit      AuditConfig
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

	// CourseCacheTTL bounds staleness of the active-course and search-term
	// menus served from cache.
	CourseCacheTTL time.Duration
}

// WahaConfig points at the WAHA messaging gateway used to deliver replies.
type WahaConfig struct {
	BaseURL     string
	APIKey      string
	SessionName string
	Timeout     time.Duration
}

// PortalConfig configures the student-portal authentication provider.
type PortalConfig struct {
	BaseURL string
	Timeout time.Duration
}

// JobsConfig configures the external job-search provider.
type JobsConfig struct {
	BaseURL     string
	Location    string
	ResultLimit int
	Timeout     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig holds the bootstrap credentials for the admin dashboard API.
type DashboardConfig struct {
	Username     string
	PasswordHash string
}

// EncryptionConfig supplies key material for credential encryption at rest.
type EncryptionConfig struct {
	Key string
}

// HealthConfig governs the WAHA session health monitor.
type HealthConfig struct {
	Enabled       bool
	CheckInterval time.Duration
	CheckTimeout  time.Duration
}

// AuditConfig tunes the background interaction-log writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
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
		Host:           v.GetString("REDIS_HOST"),
		Port:           v.GetInt("REDIS_PORT"),
		Password:       v.GetString("REDIS_PASSWORD"),
		DB:             v.GetInt("REDIS_DB"),
		CourseCacheTTL: parseDuration(v.GetString("COURSE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Waha = WahaConfig{
		BaseURL:     v.GetString("WAHA_URL"),
		APIKey:      v.GetString("WAHA_API_KEY"),
		SessionName: v.GetString("WAHA_SESSION_NAME"),
		Timeout:     parseDuration(v.GetString("WAHA_TIMEOUT"), 5*time.Second),
	}

	cfg.Portal = PortalConfig{
		BaseURL: v.GetString("PORTAL_URL"),
		Timeout: parseDuration(v.GetString("PORTAL_TIMEOUT"), 5*time.Second),
	}

	cfg.Jobs = JobsConfig{
		BaseURL:     v.GetString("JOBS_URL"),
		Location:    v.GetString("JOBS_LOCATION"),
		ResultLimit: v.GetInt("JOBS_RESULT_LIMIT"),
		Timeout:     parseDuration(v.GetString("JOBS_TIMEOUT"), 5*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		Username:     v.GetString("DASHBOARD_USERNAME"),
		PasswordHash: v.GetString("DASHBOARD_PASSWORD_HASH"),
	}

	cfg.Encryption = EncryptionConfig{
		Key: v.GetString("CREDENTIAL_ENCRYPTION_KEY"),
	}

	cfg.Health = HealthConfig{
		Enabled:       v.GetBool("ENABLE_HEALTH_MONITOR"),
		CheckInterval: parseDuration(v.GetString("HEALTH_CHECK_INTERVAL"), time.Minute),
		CheckTimeout:  parseDuration(v.GetString("HEALTH_CHECK_TIMEOUT"), 5*time.Second),
	}

	cfg.Audit = AuditConfig{
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER_SIZE"),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("AUDIT_RETRY_DELAY"), 2*time.Second),
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
	v.SetDefault("DB_NAME", "capyvagas")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("COURSE_CACHE_TTL", "5m")

	v.SetDefault("WAHA_URL", "http://localhost:3000")
	v.SetDefault("WAHA_API_KEY", "dev-api-key")
	v.SetDefault("WAHA_SESSION_NAME", "default")
	v.SetDefault("WAHA_TIMEOUT", "5s")

	v.SetDefault("PORTAL_URL", "http://localhost:8100")
	v.SetDefault("PORTAL_TIMEOUT", "5s")

	v.SetDefault("JOBS_URL", "http://localhost:8200")
	v.SetDefault("JOBS_LOCATION", "Curitiba, PR")
	v.SetDefault("JOBS_RESULT_LIMIT", 5)
	v.SetDefault("JOBS_TIMEOUT", "5s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DASHBOARD_USERNAME", "admin")
	v.SetDefault("DASHBOARD_PASSWORD_HASH", "")

	v.SetDefault("CREDENTIAL_ENCRYPTION_KEY", "")

	v.SetDefault("ENABLE_HEALTH_MONITOR", false)
	v.SetDefault("HEALTH_CHECK_INTERVAL", "1m")
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_BUFFER_SIZE", 64)
	v.SetDefault("AUDIT_MAX_RETRIES", 2)
	v.SetDefault("AUDIT_RETRY_DELAY", "2s")
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
