package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/repos"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/platform/validate"
)

type TaskListFilter struct {
	ContextID        *uuid.UUID `form:"context_id"`
	ProjectID        *uuid.UUID `form:"project_id"`
	IncludeCompleted bool       `form:"include_completed"`
}

type TaskInput struct {
	Title     string       `json:"title" form:"title" validate:"required,max=200"`
	Notes     string       `json:"notes" form:"notes" validate:"max=5000"`
	ContextID *uuid.UUID   `json:"context_id" form:"context_id"`
	ProjectID *uuid.UUID   `json:"project_id" form:"project_id"`
	WaitingOn string       `json:"waiting_on" form:"waiting_on" validate:"max=200"`
	DueAt     OptionalTime `json:"due_at" form:"due_at"`
}

type TaskUpdateInput struct {
	Title     OptionalString `json:"title" form:"title"`
	Notes     OptionalString `json:"notes" form:"notes"`
	ContextID OptionalUUID   `json:"context_id" form:"context_id"`
	ProjectID OptionalUUID   `json:"project_id" form:"project_id"`
	WaitingOn OptionalString `json:"waiting_on" form:"waiting_on"`
	DueAt     OptionalTime   `json:"due_at" form:"due_at"`
}

type MoveTaskInput struct {
	ContextID uuid.UUID `json:"context_id" form:"context_id"`
}

// ReorderInput places an item directly after AfterID and/or before BeforeID.
// With neither set the item goes to the end.
type ReorderInput struct {
	AfterID  *uuid.UUID `json:"after_id" form:"after_id"`
	BeforeID *uuid.UUID `json:"before_id" form:"before_id"`
}

type TaskService interface {
	List(ctx context.Context, filter TaskListFilter) ([]*types.Task, error)
	Get(ctx context.Context, taskID uuid.UUID) (*types.Task, error)
	Create(ctx context.Context, in TaskInput) (*types.Task, error)
	Update(ctx context.Context, taskID uuid.UUID, in TaskUpdateInput) (*types.Task, error)
	Move(ctx context.Context, taskID uuid.UUID, in MoveTaskInput) (*types.Task, error)
	Reorder(ctx context.Context, taskID uuid.UUID, in ReorderInput) (*types.Task, error)
	Complete(ctx context.Context, taskID uuid.UUID) (*types.Task, error)
	Reopen(ctx context.Context, taskID uuid.UUID) (*types.Task, error)
	Delete(ctx context.Context, taskID uuid.UUID) error
	ConvertToProject(ctx context.Context, taskID uuid.UUID) (*types.Project, error)
}

type taskService struct {
	db          *gorm.DB
	log         *logger.Logger
	taskRepo    repos.TaskRepo
	contextRepo repos.ContextRepo
	projectRepo repos.ProjectRepo
	now         func() time.Time
}

func NewTaskService(db *gorm.DB, log *logger.Logger, taskRepo repos.TaskRepo, contextRepo repos.ContextRepo, projectRepo repos.ProjectRepo) TaskService {
	return &taskService{
		db:          db,
		log:         log.With("service", "TaskService"),
		taskRepo:    taskRepo,
		contextRepo: contextRepo,
		projectRepo: projectRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// lockOwnedTask reads the task under a row lock; dbc must carry a transaction.
func (s *taskService) lockOwnedTask(dbc dbctx.Context, ownerID, taskID uuid.UUID) (*types.Task, error) {
	t, err := s.taskRepo.LockByID(dbc, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.OwnerID != ownerID {
		return nil, apperr.NotFound("Task not found")
	}
	return t, nil
}

func (s *taskService) ownedTask(dbc dbctx.Context, ownerID, taskID uuid.UUID) (*types.Task, error) {
	found, err := s.taskRepo.GetByIDs(dbc, []uuid.UUID{taskID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 || found[0].OwnerID != ownerID {
		return nil, apperr.NotFound("Task not found")
	}
	return found[0], nil
}

// fileableContext checks a task may be filed into contextID.
func (s *taskService) fileableContext(dbc dbctx.Context, ownerID, contextID uuid.UUID) (*types.Context, error) {
	c, err := ownedContext(dbc, s.contextRepo, ownerID, contextID)
	if apperr.StatusOf(err) == http.StatusNotFound {
		return nil, apperr.Validation("context_id", "Context not found")
	}
	if err != nil {
		return nil, err
	}
	if c.Role == types.RoleProjects {
		return nil, apperr.Validation("context_id", "Tasks cannot be filed into Projects; convert the task to a project instead")
	}
	return c, nil
}

// defaultContext is the user's preferred context when set and still valid,
// otherwise the Inbox.
func (s *taskService) defaultContext(dbc dbctx.Context, ownerID uuid.UUID) (*types.Context, error) {
	if rd := ctxutil.GetRequestData(dbc.Ctx); rd != nil && rd.User != nil && len(rd.User.Preferences) > 0 {
		var prefs types.Preferences
		if json.Unmarshal(rd.User.Preferences, &prefs) == nil && prefs.DefaultContextID != nil {
			if c, err := s.fileableContext(dbc, ownerID, *prefs.DefaultContextID); err == nil {
				return c, nil
			}
		}
	}
	inbox, err := s.contextRepo.GetByOwnerAndRole(dbc, ownerID, types.RoleInbox)
	if err != nil {
		return nil, err
	}
	if inbox == nil {
		return nil, apperr.Internal(nil).WithData("reason", "missing inbox")
	}
	return inbox, nil
}

func (s *taskService) ownedProject(dbc dbctx.Context, ownerID, projectID uuid.UUID) error {
	found, err := s.projectRepo.GetByIDs(dbc, []uuid.UUID{projectID})
	if err != nil {
		return err
	}
	if len(found) == 0 || found[0].OwnerID != ownerID {
		return apperr.Validation("project_id", "Project not found")
	}
	return nil
}

func (s *taskService) appendOrder(dbc dbctx.Context, contextID uuid.UUID) (float64, error) {
	last, ok, err := s.taskRepo.MaxOrderInContext(dbc, contextID)
	if err != nil {
		return 0, err
	}
	return OrderAfter(last, ok), nil
}

func (s *taskService) List(ctx context.Context, filter TaskListFilter) ([]*types.Task, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	switch {
	case filter.ProjectID != nil:
		if err := s.ownedProject(dbc, ownerID, *filter.ProjectID); err != nil {
			return nil, apperr.NotFound("Project not found")
		}
		return s.taskRepo.ListByProject(dbc, *filter.ProjectID, filter.IncludeCompleted)
	case filter.ContextID != nil:
		if _, err := ownedContext(dbc, s.contextRepo, ownerID, *filter.ContextID); err != nil {
			return nil, err
		}
		return s.taskRepo.ListByContext(dbc, *filter.ContextID, filter.IncludeCompleted)
	default:
		inbox, err := s.contextRepo.GetByOwnerAndRole(dbc, ownerID, types.RoleInbox)
		if err != nil {
			return nil, err
		}
		if inbox == nil {
			return []*types.Task{}, nil
		}
		return s.taskRepo.ListByContext(dbc, inbox.ID, filter.IncludeCompleted)
	}
}

func (s *taskService) Get(ctx context.Context, taskID uuid.UUID) (*types.Task, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.ownedTask(dbctx.Context{Ctx: ctx}, ownerID, taskID)
}

func (s *taskService) Create(ctx context.Context, in TaskInput) (*types.Task, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	task := &types.Task{
		OwnerID:   ownerID,
		ProjectID: in.ProjectID,
		Title:     in.Title,
		Notes:     in.Notes,
		WaitingOn: in.WaitingOn,
		DueAt:     in.DueAt.Value,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		var target *types.Context
		if in.ContextID != nil {
			target, err = s.fileableContext(inner, ownerID, *in.ContextID)
		} else {
			target, err = s.defaultContext(inner, ownerID)
		}
		if err != nil {
			return err
		}
		if in.ProjectID != nil {
			if err := s.ownedProject(inner, ownerID, *in.ProjectID); err != nil {
				return err
			}
		}
		task.ContextID = target.ID
		if task.Order, err = s.appendOrder(inner, target.ID); err != nil {
			return err
		}
		_, err = s.taskRepo.Create(inner, []*types.Task{task})
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update writes only the columns named in the input.
func (s *taskService) Update(ctx context.Context, taskID uuid.UUID, in TaskUpdateInput) (*types.Task, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	var task *types.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		t, err := s.lockOwnedTask(inner, ownerID, taskID)
		if err != nil {
			return err
		}

		next := TaskInput{Title: t.Title, Notes: t.Notes, WaitingOn: t.WaitingOn}
		updates := map[string]any{}
		if in.Title.Set {
			next.Title = strings.TrimSpace(in.Title.String())
			updates["title"] = next.Title
		}
		if in.Notes.Set {
			next.Notes = in.Notes.String()
			updates["notes"] = next.Notes
		}
		if in.WaitingOn.Set {
			next.WaitingOn = in.WaitingOn.String()
			updates["waiting_on"] = next.WaitingOn
		}
		if err := validate.Struct(next); err != nil {
			return err
		}
		t.Title, t.Notes, t.WaitingOn = next.Title, next.Notes, next.WaitingOn

		if in.ContextID.Set {
			if in.ContextID.Value == nil {
				return apperr.Validation("context_id", "A task must belong to a context")
			}
			if *in.ContextID.Value != t.ContextID {
				target, err := s.fileableContext(inner, ownerID, *in.ContextID.Value)
				if err != nil {
					return err
				}
				order, err := s.appendOrder(inner, target.ID)
				if err != nil {
					return err
				}
				t.ContextID, t.Order = target.ID, order
				updates["context_id"] = target.ID
				updates["sort_order"] = order
			}
		}
		if in.ProjectID.Set {
			if in.ProjectID.Value != nil {
				if err := s.ownedProject(inner, ownerID, *in.ProjectID.Value); err != nil {
					return err
				}
			}
			t.ProjectID = in.ProjectID.Value
			updates["project_id"] = in.ProjectID.Value
		}
		if in.DueAt.Set {
			t.DueAt = in.DueAt.Value
			updates["due_at"] = in.DueAt.Value
		}

		if len(updates) > 0 {
			if err := s.taskRepo.UpdateFields(inner, t.ID, updates); err != nil {
				return err
			}
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Move(ctx context.Context, taskID uuid.UUID, in MoveTaskInput) (*types.Task, error) {
	id := in.ContextID
	return s.Update(ctx, taskID, TaskUpdateInput{ContextID: OptionalUUID{Set: true, Value: &id}})
}

func (s *taskService) Reorder(ctx context.Context, taskID uuid.UUID, in ReorderInput) (*types.Task, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	var task *types.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		t, err := s.lockOwnedTask(inner, ownerID, taskID)
		if err != nil {
			return err
		}
		all, err := s.taskRepo.ListByContext(inner, t.ContextID, true)
		if err != nil {
			return err
		}
		siblings := make([]orderedItem, 0, len(all))
		for _, other := range all {
			if other.ID != t.ID {
				siblings = append(siblings, orderedItem{ID: other.ID, Order: other.Order})
			}
		}
		plan, err := planReorder(siblings, t.ID, in.AfterID, in.BeforeID)
		if err != nil {
			return err
		}
		if err := s.taskRepo.UpdateOrders(inner, plan); err != nil {
			return err
		}
		t.Order = plan[t.ID]
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// setCompleted touches only completed_at and returns the row as stored.
func (s *taskService) setCompleted(ctx context.Context, taskID uuid.UUID, done bool) (*types.Task, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	t, err := s.ownedTask(dbc, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Done() == done {
		return t, nil
	}
	var completedAt *time.Time
	if done {
		now := s.now()
		completedAt = &now
	}
	if err := s.taskRepo.UpdateFields(dbc, t.ID, map[string]any{"completed_at": completedAt}); err != nil {
		return nil, err
	}
	return s.ownedTask(dbc, ownerID, taskID)
}

func (s *taskService) Complete(ctx context.Context, taskID uuid.UUID) (*types.Task, error) {
	return s.setCompleted(ctx, taskID, true)
}

func (s *taskService) Reopen(ctx context.Context, taskID uuid.UUID) (*types.Task, error) {
	return s.setCompleted(ctx, taskID, false)
}

func (s *taskService) Delete(ctx context.Context, taskID uuid.UUID) error {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.ownedTask(dbc, ownerID, taskID); err != nil {
		return err
	}
	return s.taskRepo.FullDeleteByIDs(dbc, []uuid.UUID{taskID})
}

// ConvertToProject turns a task into a project appended to the project list.
// The task's notes carry over and the task itself is removed.
func (s *taskService) ConvertToProject(ctx context.Context, taskID uuid.UUID) (*types.Project, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	var project *types.Project
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		t, err := s.lockOwnedTask(inner, ownerID, taskID)
		if err != nil {
			return err
		}
		last, ok, err := s.projectRepo.MaxOrder(inner, ownerID)
		if err != nil {
			return err
		}
		p := &types.Project{
			OwnerID: ownerID,
			Title:   t.Title,
			Notes:   t.Notes,
			Order:   OrderAfter(last, ok),
		}
		if _, err := s.projectRepo.Create(inner, []*types.Project{p}); err != nil {
			return err
		}
		if err := s.taskRepo.FullDeleteByIDs(inner, []uuid.UUID{t.ID}); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Task converted to project", "task_id", taskID, "project_id", project.ID)
	return project, nil
}
