package app

import (
	"strings"
	"time"

	"github.com/yungbote/gtd-backend/internal/clients/redis"
	"github.com/yungbote/gtd-backend/internal/data/db"
	"github.com/yungbote/gtd-backend/internal/http/middleware"
	"github.com/yungbote/gtd-backend/internal/http/session"
	"github.com/yungbote/gtd-backend/internal/observability"
	"github.com/yungbote/gtd-backend/internal/platform/envutil"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

const devSessionSecret = "dev-insecure-session-secret"

type Config struct {
	Env     string
	Port    string
	LogMode string

	DB    db.Config
	Redis redis.Config

	SessionCachePrefix   string
	SessionSecret        string
	SessionTTL           time.Duration
	SessionCacheTTL      time.Duration
	SessionSweepInterval time.Duration
	Cookie               session.CookieConfig

	CORSOrigins      []string
	FeatureFlagsPath string
	AvatarFontPath   string
	MetricsEnabled   bool

	Otel observability.OtelConfig
}

func (c Config) Development() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev" || c.Env == "local"
}

func LoadConfig(log *logger.Logger) Config {
	serviceName := envutil.String("SERVICE_NAME", "gtd-backend", log)
	env := strings.ToLower(envutil.String("APP_ENV", "development", log))
	return Config{
		Env:     env,
		Port:    envutil.String("PORT", "8080", log),
		LogMode: envutil.String("LOG_MODE", "development", log),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "gtd", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "gtd.db", log),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.String("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
		},

		SessionCachePrefix:   envutil.String("SESSION_CACHE_PREFIX", "gtd", log),
		SessionSecret:        envutil.String("SESSION_SECRET", "", log),
		SessionTTL:           envutil.Duration("SESSION_TTL", 30*24*time.Hour, log),
		SessionCacheTTL:      envutil.Duration("SESSION_CACHE_TTL", 15*time.Minute, log),
		SessionSweepInterval: envutil.Duration("SESSION_SWEEP_INTERVAL", time.Hour, log),
		Cookie: session.CookieConfig{
			Name:   envutil.String("SESSION_COOKIE_NAME", session.DefaultCookieName, log),
			Domain: envutil.String("COOKIE_DOMAIN", "", log),
			Secure: envutil.Bool("COOKIE_SECURE", false, log),
		},

		CORSOrigins:      envutil.List("CORS_ALLOWED_ORIGINS", middleware.DefaultCORSOrigins, log),
		FeatureFlagsPath: envutil.String("FEATURE_FLAGS_PATH", "", log),
		AvatarFontPath:   envutil.String("AVATAR_FONT_PATH", "", log),
		MetricsEnabled:   envutil.Bool("METRICS_ENABLED", true, log),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: serviceName,
			Environment: env,
			Version:     envutil.String("SERVICE_VERSION", "dev", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1, log),
		},
	}
}
