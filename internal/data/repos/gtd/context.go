package gtd

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type ContextRepo interface {
	Create(dbc dbctx.Context, contexts []*types.Context) ([]*types.Context, error)
	GetByIDs(dbc dbctx.Context, contextIDs []uuid.UUID) ([]*types.Context, error)
	GetByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Context, error)
	GetByOwnerAndRole(dbc dbctx.Context, ownerID uuid.UUID, role types.ContextRole) (*types.Context, error)
	NameExists(dbc dbctx.Context, ownerID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Rename(dbc dbctx.Context, contextID uuid.UUID, name string) error
	FullDeleteByIDs(dbc dbctx.Context, contextIDs []uuid.UUID) error
	FullDeleteByOwner(dbc dbctx.Context, ownerID uuid.UUID) error
	CountOpenTasksByOwner(dbc dbctx.Context, ownerID uuid.UUID) (map[uuid.UUID]int64, error)
}

type contextRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContextRepo(db *gorm.DB, baseLog *logger.Logger) ContextRepo {
	repoLog := baseLog.With("repo", "ContextRepo")
	return &contextRepo{db: db, log: repoLog}
}

func (r *contextRepo) Create(dbc dbctx.Context, contexts []*types.Context) ([]*types.Context, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(contexts) == 0 {
		return []*types.Context{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&contexts).Error; err != nil {
		return nil, err
	}
	return contexts, nil
}

func (r *contextRepo) GetByIDs(dbc dbctx.Context, contextIDs []uuid.UUID) ([]*types.Context, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Context
	if len(contextIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", contextIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByOwner lists system contexts first, then the rest by name.
func (r *contextRepo) GetByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Context, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Context
	if err := transaction.WithContext(dbc.Ctx).
		Where("owner_id = ?", ownerID).
		Order(`CASE role
			WHEN 'INBOX' THEN 0
			WHEN 'PROJECTS' THEN 1
			WHEN 'WAITING_FOR' THEN 2
			ELSE 3 END`).
		Order("lower(name) ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByOwnerAndRole returns nil when the owner has no context with that role.
func (r *contextRepo) GetByOwnerAndRole(dbc dbctx.Context, ownerID uuid.UUID, role types.ContextRole) (*types.Context, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Context
	if err := transaction.WithContext(dbc.Ctx).
		Where("owner_id = ? AND role = ?", ownerID, role).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// NameExists folds case with the database's lower(), the same way the
// idx_context_owner_name unique index does.
func (r *contextRepo) NameExists(dbc dbctx.Context, ownerID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.Context{}).
		Where("owner_id = ? AND lower(name) = lower(?)", ownerID, strings.TrimSpace(name))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *contextRepo) Rename(dbc dbctx.Context, contextID uuid.UUID, name string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Context{}).
		Where("id = ?", contextID).
		Update("name", name).Error
}

func (r *contextRepo) FullDeleteByIDs(dbc dbctx.Context, contextIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(contextIDs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", contextIDs).
		Delete(&types.Context{}).Error
}

func (r *contextRepo) FullDeleteByOwner(dbc dbctx.Context, ownerID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("owner_id = ?", ownerID).
		Delete(&types.Context{}).Error
}

// CountOpenTasksByOwner counts incomplete tasks per context. Contexts without
// open tasks are absent from the map.
func (r *contextRepo) CountOpenTasksByOwner(dbc dbctx.Context, ownerID uuid.UUID) (map[uuid.UUID]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	type row struct {
		ContextID uuid.UUID
		Count     int64
	}
	var rows []row
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Task{}).
		Select("context_id, COUNT(*) AS count").
		Where("owner_id = ? AND completed_at IS NULL", ownerID).
		Group("context_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, c := range rows {
		out[c.ContextID] = c.Count
	}
	return out, nil
}
