package gtd

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, projects []*types.Project) ([]*types.Project, error)
	GetByIDs(dbc dbctx.Context, projectIDs []uuid.UUID) ([]*types.Project, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, includeCompleted bool) ([]*types.Project, error)
	LockByID(dbc dbctx.Context, projectID uuid.UUID) (*types.Project, error)
	UpdateFields(dbc dbctx.Context, projectID uuid.UUID, updates map[string]any) error
	MaxOrder(dbc dbctx.Context, ownerID uuid.UUID) (float64, bool, error)
	UpdateOrders(dbc dbctx.Context, orders map[uuid.UUID]float64) error
	FullDeleteByIDs(dbc dbctx.Context, projectIDs []uuid.UUID) error
	FullDeleteByOwner(dbc dbctx.Context, ownerID uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, projects []*types.Project) ([]*types.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(projects) == 0 {
		return []*types.Project{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepo) GetByIDs(dbc dbctx.Context, projectIDs []uuid.UUID) ([]*types.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Project
	if len(projectIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", projectIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, includeCompleted bool) ([]*types.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Where("owner_id = ?", ownerID)
	if !includeCompleted {
		q = q.Where("completed_at IS NULL")
	}
	var results []*types.Project
	if err := q.Order("sort_order ASC").Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// LockByID reads a project under a row lock and reports nil when it is missing.
func (r *projectRepo) LockByID(dbc dbctx.Context, projectID uuid.UUID) (*types.Project, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	var out types.Project
	err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", projectID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, projectID uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["updated_at"] = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("id = ?", projectID).
		Updates(updates).Error
}

// MaxOrder reports false when the owner has no projects.
func (r *projectRepo) MaxOrder(dbc dbctx.Context, ownerID uuid.UUID) (float64, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var maxOrder sql.NullFloat64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Select("MAX(sort_order)").
		Where("owner_id = ?", ownerID).
		Row().
		Scan(&maxOrder); err != nil {
		return 0, false, err
	}
	if !maxOrder.Valid {
		return 0, false, nil
	}
	return maxOrder.Float64, true, nil
}

func (r *projectRepo) UpdateOrders(dbc dbctx.Context, orders map[uuid.UUID]float64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	for id, order := range orders {
		if err := t.WithContext(dbc.Ctx).
			Model(&types.Project{}).
			Where("id = ?", id).
			Update("sort_order", order).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *projectRepo) FullDeleteByIDs(dbc dbctx.Context, projectIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(projectIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", projectIDs).
		Delete(&types.Project{}).Error
}

func (r *projectRepo) FullDeleteByOwner(dbc dbctx.Context, ownerID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("owner_id = ?", ownerID).
		Delete(&types.Project{}).Error
}
