package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gtd-backend/internal/http/response"
	"github.com/yungbote/gtd-backend/internal/http/session"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
	userService services.UserService
	cookie      session.CookieConfig
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, userService services.UserService, cookie session.CookieConfig) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
		userService: userService,
		cookie:      cookie,
	}
}

// POST /api/signup
func (ah *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	res, err := ah.authService.Signup(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	ah.cookie.Set(c, res.Token, res.ExpiresAt)
	c.JSON(http.StatusCreated, authPayload(res))
}

// POST /api/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	ah.cookie.Set(c, res.Token, res.ExpiresAt)
	response.RespondOK(c, authPayload(res))
}

// POST /api/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	ah.cookie.Clear(c)
	response.RespondNoContent(c)
}

// POST /api/logout/all
func (ah *AuthHandler) LogoutAll(c *gin.Context) {
	if err := ah.authService.LogoutAll(c.Request.Context()); err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	ah.cookie.Clear(c)
	response.RespondNoContent(c)
}

// GET /api/me
func (ah *AuthHandler) Me(c *gin.Context) {
	me, err := ah.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondError(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// The token is returned for clients that send it as a bearer header.
func authPayload(res *services.AuthResult) gin.H {
	return gin.H{
		"user":       res.User,
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
	}
}
