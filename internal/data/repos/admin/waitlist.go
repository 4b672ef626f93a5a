package admin

import (
	"gorm.io/gorm"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type WaitlistRepo interface {
	Create(dbc dbctx.Context, entry *types.WaitlistEntry) (*types.WaitlistEntry, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	List(dbc dbctx.Context) ([]*types.WaitlistEntry, error)
}

type waitlistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWaitlistRepo(db *gorm.DB, baseLog *logger.Logger) WaitlistRepo {
	return &waitlistRepo{db: db, log: baseLog.With("repo", "WaitlistRepo")}
}

func (r *waitlistRepo) Create(dbc dbctx.Context, entry *types.WaitlistEntry) (*types.WaitlistEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *waitlistRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.WaitlistEntry{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *waitlistRepo) List(dbc dbctx.Context) ([]*types.WaitlistEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.WaitlistEntry
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
