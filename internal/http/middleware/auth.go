package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/gtd-backend/internal/http/response"
	"github.com/yungbote/gtd-backend/internal/http/session"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	cookie      session.CookieConfig
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, cookie session.CookieConfig) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService, cookie: cookie}
}

// RequireAuth resolves the session token and attaches RequestData to the
// request context. Renewed tokens are written back to the client.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := am.cookie.Token(c)
		if token == "" {
			response.RespondError(c, am.log, apperr.Unauthorized("Not signed in"))
			return
		}
		rd, err := am.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if fromCookie && apperr.StatusOf(err) == 401 {
				am.cookie.Clear(c)
			}
			response.RespondError(c, am.log, err)
			return
		}
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondError(c, am.log, apperr.Unauthorized("Not signed in"))
			return
		}
		if rd.RenewedToken != "" {
			if fromCookie {
				am.cookie.Set(c, rd.RenewedToken, time.Now().Add(am.authService.SessionTTL()))
			} else {
				c.Header(session.RenewedTokenHeader, rd.RenewedToken)
			}
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}
