package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/gtd-backend/internal/http/handlers"
	httpMW "github.com/yungbote/gtd-backend/internal/http/middleware"
	"github.com/yungbote/gtd-backend/internal/observability"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// Metrics is nil when METRICS_ENABLED is off; /metrics is then not mounted.
	Metrics *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	AuthHandler     *httpH.AuthHandler
	SettingsHandler *httpH.SettingsHandler
	ContextHandler  *httpH.ContextHandler
	TaskHandler     *httpH.TaskHandler
	ProjectHandler  *httpH.ProjectHandler
	FeatureHandler  *httpH.FeatureHandler
	OverviewHandler *httpH.OverviewHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/signup", cfg.AuthHandler.Signup)
			api.POST("/login", cfg.AuthHandler.Login)
		}
		if cfg.FeatureHandler != nil {
			api.POST("/waitlist", cfg.FeatureHandler.JoinWaitlist)
		}
	}

	protected := api.Group("")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
			protected.POST("/logout/all", cfg.AuthHandler.LogoutAll)
			protected.GET("/me", cfg.AuthHandler.Me)
		}

		if cfg.OverviewHandler != nil {
			protected.GET("/overview", cfg.OverviewHandler.Get)
		}
		if cfg.FeatureHandler != nil {
			protected.GET("/features", cfg.FeatureHandler.Features)
		}

		// Settings
		if cfg.SettingsHandler != nil {
			protected.PATCH("/settings/profile", cfg.SettingsHandler.UpdateProfile)
			protected.PATCH("/settings/email", cfg.SettingsHandler.UpdateEmail)
			protected.PATCH("/settings/password", cfg.SettingsHandler.ChangePassword)
			protected.GET("/settings/preferences", cfg.SettingsHandler.GetPreferences)
			protected.PATCH("/settings/preferences", cfg.SettingsHandler.UpdatePreferences)
			protected.DELETE("/settings/account", cfg.SettingsHandler.DeleteAccount)
			protected.GET("/settings/avatar.png", cfg.SettingsHandler.Avatar)
		}

		// Contexts
		if cfg.ContextHandler != nil {
			protected.GET("/contexts", cfg.ContextHandler.List)
			protected.POST("/contexts", cfg.ContextHandler.Create)
			protected.PATCH("/contexts/:id", cfg.ContextHandler.Rename)
			protected.DELETE("/contexts/:id", cfg.ContextHandler.Delete)
			protected.GET("/contexts/:id/tasks", cfg.ContextHandler.Tasks)
		}

		// Tasks
		if cfg.TaskHandler != nil {
			protected.GET("/tasks", cfg.TaskHandler.List)
			protected.POST("/tasks", cfg.TaskHandler.Create)
			protected.GET("/tasks/:id", cfg.TaskHandler.Get)
			protected.PATCH("/tasks/:id", cfg.TaskHandler.Update)
			protected.DELETE("/tasks/:id", cfg.TaskHandler.Delete)
			protected.POST("/tasks/:id/complete", cfg.TaskHandler.Complete)
			protected.POST("/tasks/:id/reopen", cfg.TaskHandler.Reopen)
			protected.POST("/tasks/:id/move", cfg.TaskHandler.Move)
			protected.POST("/tasks/:id/reorder", cfg.TaskHandler.Reorder)
			protected.POST("/tasks/:id/convert", cfg.TaskHandler.ConvertToProject)
		}

		// Projects
		if cfg.ProjectHandler != nil {
			protected.GET("/projects", cfg.ProjectHandler.List)
			protected.POST("/projects", cfg.ProjectHandler.Create)
			protected.GET("/projects/:id", cfg.ProjectHandler.Get)
			protected.PATCH("/projects/:id", cfg.ProjectHandler.Update)
			protected.DELETE("/projects/:id", cfg.ProjectHandler.Delete)
			protected.POST("/projects/:id/complete", cfg.ProjectHandler.Complete)
			protected.POST("/projects/:id/reopen", cfg.ProjectHandler.Reopen)
			protected.POST("/projects/:id/reorder", cfg.ProjectHandler.Reorder)
		}
	}

	return r
}
