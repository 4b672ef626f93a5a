package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/gtd-backend/internal/http/response"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

const projectNotFound = "Project not found"

type ProjectHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
}

func NewProjectHandler(log *logger.Logger, projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		log:            log.With("handler", "ProjectHandler"),
		projectService: projectService,
	}
}

// GET /api/projects?include_completed=true
func (h *ProjectHandler) List(c *gin.Context) {
	var filter services.ProjectListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.RespondError(c, h.log, apperr.BadRequest("Malformed query").WithCause(err))
		return
	}
	projects, err := h.projectService.List(c.Request.Context(), filter)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"projects": projects})
}

// GET /api/projects/:id?include_completed=true
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := pathID(c, projectNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	detail, err := h.projectService.Get(c.Request.Context(), id, queryBool(c, "include_completed"))
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"project": detail})
}

// POST /api/projects
// body: { "title": "...", "notes": "..." }
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.ProjectInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	p, err := h.projectService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := pathID(c, projectNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	var req services.ProjectUpdateInput
	if err := bind(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	p, err := h.projectService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// POST /api/projects/:id/reorder
// body: { "after_id": "...", "before_id": "..." }
func (h *ProjectHandler) Reorder(c *gin.Context) {
	id, err := pathID(c, projectNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	var req reorderRequest
	if err := bindOptional(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	in, err := req.input()
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	p, err := h.projectService.Reorder(c.Request.Context(), id, in)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// POST /api/projects/:id/complete
func (h *ProjectHandler) Complete(c *gin.Context) {
	id, err := pathID(c, projectNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	p, err := h.projectService.Complete(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// POST /api/projects/:id/reopen
func (h *ProjectHandler) Reopen(c *gin.Context) {
	id, err := pathID(c, projectNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	p, err := h.projectService.Reopen(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// DELETE /api/projects/:id
// Tasks in the project stay in their contexts.
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := pathID(c, projectNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondNoContent(c)
}
