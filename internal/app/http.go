package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/http"
	httpH "github.com/yungbote/gtd-backend/internal/http/handlers"
	httpMW "github.com/yungbote/gtd-backend/internal/http/middleware"
	"github.com/yungbote/gtd-backend/internal/observability"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Settings *httpH.SettingsHandler
	Context  *httpH.ContextHandler
	Task     *httpH.TaskHandler
	Project  *httpH.ProjectHandler
	Feature  *httpH.FeatureHandler
	Overview *httpH.OverviewHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Auth:     httpH.NewAuthHandler(log, services.Auth, services.User, cfg.Cookie),
		Settings: httpH.NewSettingsHandler(log, services.User, cfg.Cookie),
		Context:  httpH.NewContextHandler(log, services.Context, services.Task),
		Task:     httpH.NewTaskHandler(log, services.Task),
		Project:  httpH.NewProjectHandler(log, services.Project),
		Feature:  httpH.NewFeatureHandler(log, services.Flags, services.Waitlist),
		Overview: httpH.NewOverviewHandler(log, services.Overview),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth, cfg.Cookie),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		SettingsHandler: handlers.Settings,
		ContextHandler:  handlers.Context,
		TaskHandler:     handlers.Task,
		ProjectHandler:  handlers.Project,
		FeatureHandler:  handlers.Feature,
		OverviewHandler: handlers.Overview,
	})
}
