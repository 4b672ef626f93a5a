package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/cache"
	"github.com/yungbote/gtd-backend/internal/observability"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

const memorySessionCacheSize = 10_000

type Services struct {
	SessionCache cache.SessionCache

	Flags    services.FeatureFlagService
	Avatar   services.AvatarService
	Auth     services.AuthService
	User     services.UserService
	Context  services.ContextService
	Task     services.TaskService
	Project  services.ProjectService
	Overview services.OverviewService
	Waitlist services.WaitlistService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	var sessionCache cache.SessionCache
	if clients.Redis != nil {
		sessionCache = instrumentSessionCache("redis",
			cache.NewRedisSessionCache(clients.Redis, log, cfg.SessionCachePrefix, cfg.SessionCacheTTL), metrics)
	} else {
		sessionCache = instrumentSessionCache("memory",
			cache.NewMemorySessionCache(memorySessionCacheSize, cfg.SessionCacheTTL), metrics)
	}

	avatar, err := services.NewAvatarService(log, services.AvatarConfig{FontPath: cfg.AvatarFontPath})
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	flags := services.NewFeatureFlagService(log, repos.FeatureFlag)

	secret := cfg.SessionSecret
	if secret == "" {
		if !cfg.Development() {
			return Services{}, fmt.Errorf("SESSION_SECRET is required when APP_ENV=%s", cfg.Env)
		}
		log.Warn("SESSION_SECRET not set, using an insecure development secret")
		secret = devSessionSecret
	}

	auth := services.NewAuthService(db, log, repos.User, repos.Session, repos.Context, flags, avatar, sessionCache, services.AuthConfig{
		JWTSecret:  secret,
		Issuer:     cfg.Otel.ServiceName,
		SessionTTL: cfg.SessionTTL,
		CacheTTL:   cfg.SessionCacheTTL,
	})

	return Services{
		SessionCache: sessionCache,
		Flags:        flags,
		Avatar:       avatar,
		Auth:         auth,
		User:         services.NewUserService(db, log, repos.User, repos.Session, repos.Context, repos.Task, repos.Project, avatar, flags, sessionCache),
		Context:      services.NewContextService(db, log, repos.Context, repos.Task),
		Task:         services.NewTaskService(db, log, repos.Task, repos.Context, repos.Project),
		Project:      services.NewProjectService(db, log, repos.Project, repos.Task),
		Overview:     services.NewOverviewService(log, repos.Context, repos.Task, repos.Project),
		Waitlist:     services.NewWaitlistService(log, repos.Waitlist),
	}, nil
}

// seedFeatureFlags loads FEATURE_FLAGS_PATH when set. Existing rows win.
func seedFeatureFlags(ctx context.Context, log *logger.Logger, flags services.FeatureFlagService, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read feature flags %s: %w", path, err)
	}
	n, err := flags.Seed(ctx, raw)
	if err != nil {
		return fmt.Errorf("seed feature flags: %w", err)
	}
	log.Info("Feature flags seeded", "path", path, "created", n)
	return nil
}
