package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/gtd-backend/internal/http/response"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

type OverviewHandler struct {
	log             *logger.Logger
	overviewService services.OverviewService
}

func NewOverviewHandler(log *logger.Logger, overviewService services.OverviewService) *OverviewHandler {
	return &OverviewHandler{
		log:             log.With("handler", "OverviewHandler"),
		overviewService: overviewService,
	}
}

// GET /api/overview
func (h *OverviewHandler) Get(c *gin.Context) {
	ov, err := h.overviewService.Get(c.Request.Context())
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, ov)
}
