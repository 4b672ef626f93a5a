package admin

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type FeatureFlagRepo interface {
	Upsert(dbc dbctx.Context, flags []*types.FeatureFlag) error
	GetByKeys(dbc dbctx.Context, keys []string) ([]*types.FeatureFlag, error)
	List(dbc dbctx.Context) ([]*types.FeatureFlag, error)
}

type featureFlagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeatureFlagRepo(db *gorm.DB, baseLog *logger.Logger) FeatureFlagRepo {
	return &featureFlagRepo{db: db, log: baseLog.With("repo", "FeatureFlagRepo")}
}

// Upsert inserts flags or overwrites the existing row with the same key.
func (r *featureFlagRepo) Upsert(dbc dbctx.Context, flags []*types.FeatureFlag) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(flags) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, f := range flags {
		f.UpdatedAt = now
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description",
				"enabled",
				"allowed_users",
				"updated_at",
			}),
		}).
		Create(&flags).Error
}

func (r *featureFlagRepo) GetByKeys(dbc dbctx.Context, keys []string) ([]*types.FeatureFlag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.FeatureFlag
	if len(keys) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("key IN ?", keys).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *featureFlagRepo) List(dbc dbctx.Context) ([]*types.FeatureFlag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.FeatureFlag
	if err := t.WithContext(dbc.Ctx).
		Order("key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
