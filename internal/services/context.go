package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/repos"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/platform/validate"
)

// ContextSummary is a context plus the number of open tasks filed in it.
type ContextSummary struct {
	*types.Context
	OpenTasks int64 `json:"open_tasks"`
}

type ContextInput struct {
	Name string `json:"name" form:"name" validate:"required,max=50"`
}

type DeleteContextInput struct {
	// ReassignTo receives the deleted context's tasks; the Inbox when unset.
	ReassignTo *uuid.UUID `json:"reassign_to" form:"reassign_to"`
}

type ContextService interface {
	List(ctx context.Context) ([]*ContextSummary, error)
	Create(ctx context.Context, in ContextInput) (*types.Context, error)
	Rename(ctx context.Context, contextID uuid.UUID, in ContextInput) (*types.Context, error)
	Delete(ctx context.Context, contextID uuid.UUID, in DeleteContextInput) (int64, error)
}

type contextService struct {
	db          *gorm.DB
	log         *logger.Logger
	contextRepo repos.ContextRepo
	taskRepo    repos.TaskRepo
}

func NewContextService(db *gorm.DB, log *logger.Logger, contextRepo repos.ContextRepo, taskRepo repos.TaskRepo) ContextService {
	return &contextService{
		db:          db,
		log:         log.With("service", "ContextService"),
		contextRepo: contextRepo,
		taskRepo:    taskRepo,
	}
}

// ownedContext loads a context and checks it belongs to ownerID. Other users'
// contexts read as not found.
func ownedContext(dbc dbctx.Context, contextRepo repos.ContextRepo, ownerID, contextID uuid.UUID) (*types.Context, error) {
	found, err := contextRepo.GetByIDs(dbc, []uuid.UUID{contextID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 || found[0].OwnerID != ownerID {
		return nil, apperr.NotFound("Context not found")
	}
	return found[0], nil
}

func (s *contextService) List(ctx context.Context) ([]*ContextSummary, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	contexts, err := s.contextRepo.GetByOwner(dbc, ownerID)
	if err != nil {
		return nil, err
	}
	counts, err := s.contextRepo.CountOpenTasksByOwner(dbc, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*ContextSummary, 0, len(contexts))
	for _, c := range contexts {
		out = append(out, &ContextSummary{Context: c, OpenTasks: counts[c.ID]})
	}
	return out, nil
}

func (s *contextService) validName(dbc dbctx.Context, ownerID uuid.UUID, raw string, excludeID uuid.UUID) (string, error) {
	name := strings.TrimSpace(raw)
	if err := validate.Struct(ContextInput{Name: name}); err != nil {
		return "", err
	}
	taken, err := s.contextRepo.NameExists(dbc, ownerID, name, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", apperr.Conflict("name", "You already have a context with this name")
	}
	return name, nil
}

func (s *contextService) Create(ctx context.Context, in ContextInput) (*types.Context, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	name, err := s.validName(dbc, ownerID, in.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	row := &types.Context{OwnerID: ownerID, Name: name, Role: types.RoleNone}
	if _, err := s.contextRepo.Create(dbc, []*types.Context{row}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("name", "You already have a context with this name")
		}
		return nil, err
	}
	return row, nil
}

func (s *contextService) Rename(ctx context.Context, contextID uuid.UUID, in ContextInput) (*types.Context, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := ownedContext(dbc, s.contextRepo, ownerID, contextID)
	if err != nil {
		return nil, err
	}
	if row.Role.IsSystem() {
		return nil, apperr.Forbidden(fmt.Sprintf("%s cannot be renamed", row.Name))
	}
	name, err := s.validName(dbc, ownerID, in.Name, row.ID)
	if err != nil {
		return nil, err
	}
	if err := s.contextRepo.Rename(dbc, row.ID, name); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("name", "You already have a context with this name")
		}
		return nil, err
	}
	row.Name = name
	return row, nil
}

// Delete removes a context and moves its tasks, completed ones included, to
// the end of the target context. It returns how many tasks moved.
func (s *contextService) Delete(ctx context.Context, contextID uuid.UUID, in DeleteContextInput) (int64, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return 0, err
	}

	var moved int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		source, err := ownedContext(inner, s.contextRepo, ownerID, contextID)
		if err != nil {
			return err
		}
		if source.Role.IsSystem() {
			return apperr.Forbidden(fmt.Sprintf("%s cannot be deleted", source.Name))
		}

		var target *types.Context
		if in.ReassignTo != nil {
			if *in.ReassignTo == source.ID {
				return apperr.Validation("reassign_to", "Choose a different context to move tasks into")
			}
			target, err = ownedContext(inner, s.contextRepo, ownerID, *in.ReassignTo)
			if apperr.StatusOf(err) == http.StatusNotFound {
				return apperr.Validation("reassign_to", "Context not found")
			}
			if err != nil {
				return err
			}
		} else {
			target, err = s.contextRepo.GetByOwnerAndRole(inner, ownerID, types.RoleInbox)
			if err != nil {
				return err
			}
			if target == nil {
				return apperr.Internal(fmt.Errorf("owner %s has no inbox", ownerID))
			}
		}
		if target.Role == types.RoleProjects {
			return apperr.Validation("reassign_to", "Tasks cannot be moved into Projects")
		}

		after, _, err := s.taskRepo.MaxOrderInContext(inner, target.ID)
		if err != nil {
			return err
		}
		moved, err = s.taskRepo.ReassignContext(inner, source.ID, target.ID, after)
		if err != nil {
			return err
		}
		if err := s.contextRepo.FullDeleteByIDs(inner, []uuid.UUID{source.ID}); err != nil {
			return err
		}
		return ensureContextInvariants(inner, s.contextRepo, ownerID)
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("Context deleted", "context_id", contextID, "moved_tasks", moved)
	return moved, nil
}

// ensureContextInvariants checks the owner has exactly one context for each system role.
func ensureContextInvariants(dbc dbctx.Context, contextRepo repos.ContextRepo, ownerID uuid.UUID) error {
	contexts, err := contextRepo.GetByOwner(dbc, ownerID)
	if err != nil {
		return err
	}
	seen := make(map[types.ContextRole]int, len(types.SystemRoles))
	for _, c := range contexts {
		if c.Role.IsSystem() {
			seen[c.Role]++
		}
	}
	var list apperr.List
	for _, role := range types.SystemRoles {
		if n := seen[role]; n != 1 {
			list = append(list, apperr.New(http.StatusInternalServerError, "invariant", fmt.Sprintf("expected one %s context, found %d", role, n)).
				WithData("role", string(role)))
		}
	}
	return list.Err()
}
