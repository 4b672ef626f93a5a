package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/gtd-backend/internal/data/repos"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

// Overview is the landing-page summary for the signed-in user.
type Overview struct {
	Contexts   []*ContextSummary `json:"contexts"`
	Projects   []*types.Project  `json:"projects"`
	InboxCount int64             `json:"inbox_count"`
}

type OverviewService interface {
	Get(ctx context.Context) (*Overview, error)
}

type overviewService struct {
	log         *logger.Logger
	contextRepo repos.ContextRepo
	taskRepo    repos.TaskRepo
	projectRepo repos.ProjectRepo
}

func NewOverviewService(log *logger.Logger, contextRepo repos.ContextRepo, taskRepo repos.TaskRepo, projectRepo repos.ProjectRepo) OverviewService {
	return &overviewService{
		log:         log.With("service", "OverviewService"),
		contextRepo: contextRepo,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

func (s *overviewService) Get(ctx context.Context) (*Overview, error) {
	ownerID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}

	var (
		contexts []*types.Context
		counts   map[uuid.UUID]int64
		projects []*types.Project
		inbox    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contexts, err = s.contextRepo.GetByOwner(dbctx.Context{Ctx: gctx}, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.contextRepo.CountOpenTasksByOwner(dbctx.Context{Ctx: gctx}, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.projectRepo.ListByOwner(dbctx.Context{Ctx: gctx}, ownerID, false)
		return err
	})
	g.Go(func() error {
		dbc := dbctx.Context{Ctx: gctx}
		c, err := s.contextRepo.GetByOwnerAndRole(dbc, ownerID, types.RoleInbox)
		if err != nil || c == nil {
			return err
		}
		inbox, err = s.taskRepo.CountInbox(dbc, c.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Overview{
		Contexts:   make([]*ContextSummary, 0, len(contexts)),
		Projects:   projects,
		InboxCount: inbox,
	}
	for _, c := range contexts {
		out.Contexts = append(out.Contexts, &ContextSummary{Context: c, OpenTasks: counts[c.ID]})
	}
	if out.Projects == nil {
		out.Projects = []*types.Project{}
	}
	return out, nil
}
