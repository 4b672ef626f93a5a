package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gtd-backend/internal/http/response"
	"github.com/yungbote/gtd-backend/internal/http/session"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

type SettingsHandler struct {
	log         *logger.Logger
	userService services.UserService
	cookie      session.CookieConfig
}

func NewSettingsHandler(log *logger.Logger, userService services.UserService, cookie session.CookieConfig) *SettingsHandler {
	return &SettingsHandler{
		log:         log.With("handler", "SettingsHandler"),
		userService: userService,
		cookie:      cookie,
	}
}

// PATCH /api/settings/profile
// body: { "first_name": "...", "last_name": "...", "avatar_color": "#RRGGBB" }
func (sh *SettingsHandler) UpdateProfile(c *gin.Context) {
	var req services.ProfileInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	u, err := sh.userService.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"me": u})
}

// PATCH /api/settings/email
// body: { "email": "...", "current_password": "..." }
func (sh *SettingsHandler) UpdateEmail(c *gin.Context) {
	var req services.EmailChangeInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	u, err := sh.userService.UpdateEmail(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"me": u})
}

// PATCH /api/settings/password
// body: { "current_password": "...", "new_password": "..." }
func (sh *SettingsHandler) ChangePassword(c *gin.Context) {
	var req services.PasswordChangeInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	if err := sh.userService.ChangePassword(c.Request.Context(), req); err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/settings/preferences
func (sh *SettingsHandler) GetPreferences(c *gin.Context) {
	prefs, err := sh.userService.GetPreferences(c.Request.Context())
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"preferences": prefs})
}

// PATCH /api/settings/preferences
// body: { "theme": "light" | "dark" | "system", "default_context_id": "...", "show_completed": bool }
func (sh *SettingsHandler) UpdatePreferences(c *gin.Context) {
	var req struct {
		Theme            services.OptionalString `json:"theme" form:"theme"`
		DefaultContextID services.OptionalString `json:"default_context_id" form:"default_context_id"`
		ShowCompleted    *bool                   `json:"show_completed" form:"show_completed"`
	}
	if err := bind(c, &req); err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	defaultContextID, verr := optionalUUID("default_context_id", req.DefaultContextID)
	if verr != nil {
		response.RespondError(c, sh.log, verr)
		return
	}
	prefs, err := sh.userService.UpdatePreferences(c.Request.Context(), services.PreferencesInput{
		Theme:            req.Theme,
		DefaultContextID: defaultContextID,
		ShowCompleted:    req.ShowCompleted,
	})
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"preferences": prefs})
}

// DELETE /api/settings/account
// body: { "password": "..." }
func (sh *SettingsHandler) DeleteAccount(c *gin.Context) {
	var req services.DeleteAccountInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	if err := sh.userService.DeleteAccount(c.Request.Context(), req); err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	sh.cookie.Clear(c)
	response.RespondNoContent(c)
}

// GET /api/settings/avatar.png
func (sh *SettingsHandler) Avatar(c *gin.Context) {
	png, err := sh.userService.Avatar(c.Request.Context())
	if err != nil {
		response.RespondError(c, sh.log, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}
