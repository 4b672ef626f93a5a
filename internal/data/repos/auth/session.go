package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, sessions []*types.Session) ([]*types.Session, error)
	GetByIDs(dbc dbctx.Context, sessionIDs []uuid.UUID) ([]*types.Session, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.Session, error)
	UpdateExpiry(dbc dbctx.Context, sessionID uuid.UUID, expiresAt time.Time) error
	FullDeleteByIDs(dbc dbctx.Context, sessionIDs []uuid.UUID) error
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
	FullDeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (sr *sessionRepo) Create(dbc dbctx.Context, sessions []*types.Session) ([]*types.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(sessions) == 0 {
		return []*types.Session{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Omit("User").Create(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}

func (sr *sessionRepo) GetByIDs(dbc dbctx.Context, sessionIDs []uuid.UUID) ([]*types.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.Session

	if len(sessionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", sessionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (sr *sessionRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.Session

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (sr *sessionRepo) UpdateExpiry(dbc dbctx.Context, sessionID uuid.UUID, expiresAt time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Session{}).
		Where("id = ?", sessionID).
		Update("expires_at", expiresAt).Error
}

func (sr *sessionRepo) FullDeleteByIDs(dbc dbctx.Context, sessionIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(sessionIDs) == 0 {
		return nil
	}

	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", sessionIDs).
		Delete(&types.Session{}).Error
}

func (sr *sessionRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(userIDs) == 0 {
		return nil
	}

	return transaction.WithContext(dbc.Ctx).
		Where("user_id IN ?", userIDs).
		Delete(&types.Session{}).Error
}

func (sr *sessionRepo) FullDeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = sr.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Where("expires_at <= ?", now).
		Delete(&types.Session{})
	return res.RowsAffected, res.Error
}
