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

type TaskRepo interface {
	Create(dbc dbctx.Context, tasks []*types.Task) ([]*types.Task, error)
	GetByIDs(dbc dbctx.Context, taskIDs []uuid.UUID) ([]*types.Task, error)
	ListByContext(dbc dbctx.Context, contextID uuid.UUID, includeCompleted bool) ([]*types.Task, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, includeCompleted bool) ([]*types.Task, error)
	LockByID(dbc dbctx.Context, taskID uuid.UUID) (*types.Task, error)
	UpdateFields(dbc dbctx.Context, taskID uuid.UUID, updates map[string]any) error
	UpdateOrders(dbc dbctx.Context, orders map[uuid.UUID]float64) error
	MaxOrderInContext(dbc dbctx.Context, contextID uuid.UUID) (float64, bool, error)
	ReassignContext(dbc dbctx.Context, fromContextID, toContextID uuid.UUID, afterOrder float64) (int64, error)
	DetachProject(dbc dbctx.Context, projectIDs []uuid.UUID) error
	FullDeleteByIDs(dbc dbctx.Context, taskIDs []uuid.UUID) error
	FullDeleteByOwner(dbc dbctx.Context, ownerID uuid.UUID) error
	CountInbox(dbc dbctx.Context, inboxID uuid.UUID) (int64, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) Create(dbc dbctx.Context, tasks []*types.Task) ([]*types.Task, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(tasks) == 0 {
		return []*types.Task{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepo) GetByIDs(dbc dbctx.Context, taskIDs []uuid.UUID) ([]*types.Task, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Task
	if len(taskIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", taskIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskRepo) ListByContext(dbc dbctx.Context, contextID uuid.UUID, includeCompleted bool) ([]*types.Task, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Where("context_id = ?", contextID)
	if !includeCompleted {
		q = q.Where("completed_at IS NULL")
	}
	var results []*types.Task
	if err := q.Order("sort_order ASC").Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, includeCompleted bool) ([]*types.Task, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Where("project_id = ?", projectID)
	if !includeCompleted {
		q = q.Where("completed_at IS NULL")
	}
	var results []*types.Task
	if err := q.Order("sort_order ASC").Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// LockByID reads a task under a row lock and reports nil when it is missing.
func (r *taskRepo) LockByID(dbc dbctx.Context, taskID uuid.UUID) (*types.Task, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	var out types.Task
	err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", taskID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateFields writes only the given columns plus updated_at.
func (r *taskRepo) UpdateFields(dbc dbctx.Context, taskID uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if taskID == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["updated_at"] = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Where("id = ?", taskID).
		Updates(updates).Error
}

func (r *taskRepo) UpdateOrders(dbc dbctx.Context, orders map[uuid.UUID]float64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	for id, order := range orders {
		if err := t.WithContext(dbc.Ctx).
			Model(&types.Task{}).
			Where("id = ?", id).
			Update("sort_order", order).Error; err != nil {
			return err
		}
	}
	return nil
}

// MaxOrderInContext reports false when the context holds no tasks.
func (r *taskRepo) MaxOrderInContext(dbc dbctx.Context, contextID uuid.UUID) (float64, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var maxOrder sql.NullFloat64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Select("MAX(sort_order)").
		Where("context_id = ?", contextID).
		Row().
		Scan(&maxOrder); err != nil {
		return 0, false, err
	}
	if !maxOrder.Valid {
		return 0, false, nil
	}
	return maxOrder.Float64, true, nil
}

// ReassignContext moves every task from one context to another, keeping their
// relative order and placing them after afterOrder.
func (r *taskRepo) ReassignContext(dbc dbctx.Context, fromContextID, toContextID uuid.UUID, afterOrder float64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Where("context_id = ?", fromContextID).
		Order("sort_order ASC").
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	for i, id := range ids {
		if err := t.WithContext(dbc.Ctx).
			Model(&types.Task{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"context_id": toContextID,
				"sort_order": afterOrder + float64(i+1),
				"updated_at": now,
			}).Error; err != nil {
			return 0, err
		}
	}
	return int64(len(ids)), nil
}

func (r *taskRepo) DetachProject(dbc dbctx.Context, projectIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(projectIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Where("project_id IN ?", projectIDs).
		Update("project_id", nil).Error
}

func (r *taskRepo) FullDeleteByIDs(dbc dbctx.Context, taskIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(taskIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", taskIDs).
		Delete(&types.Task{}).Error
}

func (r *taskRepo) FullDeleteByOwner(dbc dbctx.Context, ownerID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("owner_id = ?", ownerID).
		Delete(&types.Task{}).Error
}

// CountInbox counts open tasks waiting in the given inbox context.
func (r *taskRepo) CountInbox(dbc dbctx.Context, inboxID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Where("context_id = ? AND completed_at IS NULL", inboxID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
