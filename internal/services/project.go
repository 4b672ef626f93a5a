package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/repos"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/platform/validate"
)

type ProjectInput struct {
	Title string `json:"title" form:"title" validate:"required,max=200"`
	Notes string `json:"notes" form:"notes" validate:"max=5000"`
}

type ProjectUpdateInput struct {
	Title OptionalString `json:"title" form:"title"`
	Notes OptionalString `json:"notes" form:"notes"`
}

type ProjectListFilter struct {
	IncludeCompleted bool `form:"include_completed"`
}

// ProjectDetail is a project with the tasks attached to it.
type ProjectDetail struct {
	*types.Project
	Tasks []*types.Task `json:"tasks"`
}

type ProjectService interface {
	List(ctx context.Context, filter ProjectListFilter) ([]*types.Project, error)
	Get(ctx context.Context, projectID uuid.UUID, includeCompleted bool) (*ProjectDetail, error)
	Create(ctx context.Context, in ProjectInput) (*types.Project, error)
	Update(ctx context.Context, projectID uuid.UUID, in ProjectUpdateInput) (*types.Project, error)
	Reorder(ctx context.Context, projectID uuid.UUID, in ReorderInput) (*types.Project, error)
	Complete(ctx context.Context, projectID uuid.UUID) (*types.Project, error)
	Reopen(ctx context.Context, projectID uuid.UUID) (*types.Project, error)
	Delete(ctx context.Context, projectID uuid.UUID) error
}

type projectService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	taskRepo    repos.TaskRepo
	now         func() time.Time
}

func NewProjectService(db *gorm.DB, log *logger.Logger, projectRepo repos.ProjectRepo, taskRepo repos.TaskRepo) ProjectService {
	return &projectService{
		db:          db,
		log:         log.With("service", "ProjectService"),
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *projectService) owned(dbc dbctx.Context, ownerID, projectID uuid.UUID) (*types.Project, error) {
	found, err := s.projectRepo.GetByIDs(dbc, []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 || found[0].OwnerID != ownerID {
		return nil, apperr.NotFound("Project not found")
	}
	return found[0], nil
}

// lockOwned reads the project under a row lock; dbc must carry a transaction.
func (s *projectService) lockOwned(dbc dbctx.Context, ownerID, projectID uuid.UUID) (*types.Project, error) {
	p, err := s.projectRepo.LockByID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.OwnerID != ownerID {
		return nil, apperr.NotFound("Project not found")
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context, filter ProjectListFilter) ([]*types.Project, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.projectRepo.ListByOwner(dbctx.Context{Ctx: ctx}, ownerID, filter.IncludeCompleted)
}

func (s *projectService) Get(ctx context.Context, projectID uuid.UUID, includeCompleted bool) (*ProjectDetail, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.owned(dbc, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByProject(dbc, p.ID, includeCompleted)
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{Project: p, Tasks: tasks}, nil
}

func (s *projectService) Create(ctx context.Context, in ProjectInput) (*types.Project, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p := &types.Project{OwnerID: ownerID, Title: in.Title, Notes: in.Notes}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		last, ok, err := s.projectRepo.MaxOrder(inner, ownerID)
		if err != nil {
			return err
		}
		p.Order = OrderAfter(last, ok)
		_, err = s.projectRepo.Create(inner, []*types.Project{p})
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) Update(ctx context.Context, projectID uuid.UUID, in ProjectUpdateInput) (*types.Project, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	var project *types.Project
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := s.lockOwned(inner, ownerID, projectID)
		if err != nil {
			return err
		}
		next := ProjectInput{Title: p.Title, Notes: p.Notes}
		updates := map[string]any{}
		if in.Title.Set {
			next.Title = strings.TrimSpace(in.Title.String())
			updates["title"] = next.Title
		}
		if in.Notes.Set {
			next.Notes = in.Notes.String()
			updates["notes"] = next.Notes
		}
		if err := validate.Struct(next); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := s.projectRepo.UpdateFields(inner, p.ID, updates); err != nil {
				return err
			}
		}
		p.Title, p.Notes = next.Title, next.Notes
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Reorder(ctx context.Context, projectID uuid.UUID, in ReorderInput) (*types.Project, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	var project *types.Project
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := s.lockOwned(inner, ownerID, projectID)
		if err != nil {
			return err
		}
		all, err := s.projectRepo.ListByOwner(inner, ownerID, true)
		if err != nil {
			return err
		}
		siblings := make([]orderedItem, 0, len(all))
		for _, other := range all {
			if other.ID != p.ID {
				siblings = append(siblings, orderedItem{ID: other.ID, Order: other.Order})
			}
		}
		plan, err := planReorder(siblings, p.ID, in.AfterID, in.BeforeID)
		if err != nil {
			return err
		}
		if err := s.projectRepo.UpdateOrders(inner, plan); err != nil {
			return err
		}
		p.Order = plan[p.ID]
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// setCompleted touches only completed_at.
func (s *projectService) setCompleted(ctx context.Context, projectID uuid.UUID, done bool) (*types.Project, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.owned(dbc, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if (p.CompletedAt != nil) == done {
		return p, nil
	}
	var completedAt *time.Time
	if done {
		now := s.now()
		completedAt = &now
	}
	if err := s.projectRepo.UpdateFields(dbc, p.ID, map[string]any{"completed_at": completedAt}); err != nil {
		return nil, err
	}
	return s.owned(dbc, ownerID, projectID)
}

func (s *projectService) Complete(ctx context.Context, projectID uuid.UUID) (*types.Project, error) {
	return s.setCompleted(ctx, projectID, true)
}

func (s *projectService) Reopen(ctx context.Context, projectID uuid.UUID) (*types.Project, error) {
	return s.setCompleted(ctx, projectID, false)
}

// Delete removes a project. Its tasks stay where they are, unlinked.
func (s *projectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.owned(inner, ownerID, projectID); err != nil {
			return err
		}
		if err := s.taskRepo.DetachProject(inner, []uuid.UUID{projectID}); err != nil {
			return err
		}
		return s.projectRepo.FullDeleteByIDs(inner, []uuid.UUID{projectID})
	})
}
