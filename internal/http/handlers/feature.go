package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/gtd-backend/internal/http/response"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

type FeatureHandler struct {
	log             *logger.Logger
	flagService     services.FeatureFlagService
	waitlistService services.WaitlistService
}

func NewFeatureHandler(log *logger.Logger, flagService services.FeatureFlagService, waitlistService services.WaitlistService) *FeatureHandler {
	return &FeatureHandler{
		log:             log.With("handler", "FeatureHandler"),
		flagService:     flagService,
		waitlistService: waitlistService,
	}
}

// GET /api/features
func (h *FeatureHandler) Features(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondOK(c, gin.H{"features": map[string]bool{}})
		return
	}
	features, err := h.flagService.EnabledFor(c.Request.Context(), rd.User)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"features": features})
}

// POST /api/waitlist
// body: { "email": "...", "note": "..." }
func (h *FeatureHandler) JoinWaitlist(c *gin.Context) {
	var req services.WaitlistInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	entry, err := h.waitlistService.Join(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"waitlist": entry})
}
