package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/gtd-backend/internal/http/response"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

const contextNotFound = "Context not found"

type ContextHandler struct {
	log            *logger.Logger
	contextService services.ContextService
	taskService    services.TaskService
}

func NewContextHandler(log *logger.Logger, contextService services.ContextService, taskService services.TaskService) *ContextHandler {
	return &ContextHandler{
		log:            log.With("handler", "ContextHandler"),
		contextService: contextService,
		taskService:    taskService,
	}
}

// GET /api/contexts
func (h *ContextHandler) List(c *gin.Context) {
	list, err := h.contextService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"contexts": list})
}

// POST /api/contexts
// body: { "name": "..." }
func (h *ContextHandler) Create(c *gin.Context) {
	var req services.ContextInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	ctxRow, err := h.contextService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"context": ctxRow})
}

// PATCH /api/contexts/:id
// body: { "name": "..." }
func (h *ContextHandler) Rename(c *gin.Context) {
	id, err := pathID(c, contextNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	var req services.ContextInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	ctxRow, err := h.contextService.Rename(c.Request.Context(), id, req)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"context": ctxRow})
}

// DELETE /api/contexts/:id?reassign_to=...
// body (optional): { "reassign_to": "..." }
func (h *ContextHandler) Delete(c *gin.Context) {
	id, err := pathID(c, contextNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	var req struct {
		ReassignTo string `json:"reassign_to" form:"reassign_to"`
	}
	if err := bindOptional(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	if req.ReassignTo == "" {
		req.ReassignTo = c.Query("reassign_to")
	}
	target, verr := optionalID("reassign_to", req.ReassignTo)
	if verr != nil {
		response.RespondError(c, h.log, verr)
		return
	}
	moved, err := h.contextService.Delete(c.Request.Context(), id, services.DeleteContextInput{ReassignTo: target})
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"moved_tasks": moved})
}

// GET /api/contexts/:id/tasks?include_completed=true
func (h *ContextHandler) Tasks(c *gin.Context) {
	id, err := pathID(c, contextNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	tasks, err := h.taskService.List(c.Request.Context(), services.TaskListFilter{
		ContextID:        &id,
		IncludeCompleted: queryBool(c, "include_completed"),
	})
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"tasks": tasks})
}
