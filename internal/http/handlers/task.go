package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/gtd-backend/internal/http/response"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

const taskNotFound = "Task not found"

type TaskHandler struct {
	log         *logger.Logger
	taskService services.TaskService
}

func NewTaskHandler(log *logger.Logger, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{
		log:         log.With("handler", "TaskHandler"),
		taskService: taskService,
	}
}

type reorderRequest struct {
	AfterID  string `json:"after_id" form:"after_id"`
	BeforeID string `json:"before_id" form:"before_id"`
}

func (r reorderRequest) input() (services.ReorderInput, error) {
	var list apperr.List
	after, err := optionalID("after_id", r.AfterID)
	if err != nil {
		list = append(list, err)
	}
	before, err := optionalID("before_id", r.BeforeID)
	if err != nil {
		list = append(list, err)
	}
	return services.ReorderInput{AfterID: after, BeforeID: before}, list.Err()
}

// GET /api/tasks?context_id=...&project_id=...&include_completed=true
// With neither id the Inbox is listed.
func (h *TaskHandler) List(c *gin.Context) {
	var list apperr.List
	contextID, verr := optionalID("context_id", c.Query("context_id"))
	if verr != nil {
		list = append(list, verr)
	}
	projectID, verr := optionalID("project_id", c.Query("project_id"))
	if verr != nil {
		list = append(list, verr)
	}
	if err := list.Err(); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	tasks, err := h.taskService.List(c.Request.Context(), services.TaskListFilter{
		ContextID:        contextID,
		ProjectID:        projectID,
		IncludeCompleted: queryBool(c, "include_completed"),
	})
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"tasks": tasks})
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, err := pathID(c, taskNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	t, err := h.taskService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// POST /api/tasks
// body: { "title": "...", "notes": "...", "context_id": "...", "project_id": "...", "waiting_on": "...", "due_at": "2025-01-31" }
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		Title     string                `json:"title" form:"title"`
		Notes     string                `json:"notes" form:"notes"`
		ContextID string                `json:"context_id" form:"context_id"`
		ProjectID string                `json:"project_id" form:"project_id"`
		WaitingOn string                `json:"waiting_on" form:"waiting_on"`
		DueAt     services.OptionalTime `json:"due_at" form:"due_at"`
	}
	if err := bind(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	var list apperr.List
	contextID, verr := optionalID("context_id", req.ContextID)
	if verr != nil {
		list = append(list, verr)
	}
	projectID, verr := optionalID("project_id", req.ProjectID)
	if verr != nil {
		list = append(list, verr)
	}
	if err := list.Err(); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	t, err := h.taskService.Create(c.Request.Context(), services.TaskInput{
		Title:     req.Title,
		Notes:     req.Notes,
		ContextID: contextID,
		ProjectID: projectID,
		WaitingOn: req.WaitingOn,
		DueAt:     req.DueAt,
	})
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"task": t})
}

// PATCH /api/tasks/:id
// Only the keys present in the body are changed; null clears.
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := pathID(c, taskNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	var req struct {
		Title     services.OptionalString `json:"title" form:"title"`
		Notes     services.OptionalString `json:"notes" form:"notes"`
		ContextID services.OptionalString `json:"context_id" form:"context_id"`
		ProjectID services.OptionalString `json:"project_id" form:"project_id"`
		WaitingOn services.OptionalString `json:"waiting_on" form:"waiting_on"`
		DueAt     services.OptionalTime   `json:"due_at" form:"due_at"`
	}
	if err := bind(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	var list apperr.List
	contextID, verr := optionalUUID("context_id", req.ContextID)
	if verr != nil {
		list = append(list, verr)
	}
	projectID, verr := optionalUUID("project_id", req.ProjectID)
	if verr != nil {
		list = append(list, verr)
	}
	if err := list.Err(); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	t, err := h.taskService.Update(c.Request.Context(), id, services.TaskUpdateInput{
		Title:     req.Title,
		Notes:     req.Notes,
		ContextID: contextID,
		ProjectID: projectID,
		WaitingOn: req.WaitingOn,
		DueAt:     req.DueAt,
	})
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// POST /api/tasks/:id/move
// body: { "context_id": "..." }
func (h *TaskHandler) Move(c *gin.Context) {
	id, err := pathID(c, taskNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	var req struct {
		ContextID string `json:"context_id" form:"context_id"`
	}
	if err := bind(c, &req); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	contextID, verr := optionalID("context_id", req.ContextID)
	if verr != nil {
		response.RespondError(c, h.log, verr)
		return
	}
	if contextID == nil {
		response.RespondError(c, h.log, apperr.Validation("context_id", "This field is required"))
		return
	}
	t, err := h.taskService.Move(c.Request.Context(), id, services.MoveTaskInput{ContextID: *contextID})
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// POST /api/tasks/:id/reorder
// body: { "after_id": "...", "before_id": "..." }
func (h *TaskHandler) Reorder(c *gin.Context) {
	id, err := pathID(c, taskNotFound)
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
	t, err := h.taskService.Reorder(c.Request.Context(), id, in)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// POST /api/tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	id, err := pathID(c, taskNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	t, err := h.taskService.Complete(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// POST /api/tasks/:id/reopen
func (h *TaskHandler) Reopen(c *gin.Context) {
	id, err := pathID(c, taskNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	t, err := h.taskService.Reopen(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"task": t})
}

// POST /api/tasks/:id/convert
func (h *TaskHandler) ConvertToProject(c *gin.Context) {
	id, err := pathID(c, taskNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	p, err := h.taskService.ConvertToProject(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := pathID(c, taskNotFound)
	if err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	if err := h.taskService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, h.log, err)
		return
	}
	response.RespondNoContent(c)
}
