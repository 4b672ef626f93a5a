package repos

import (
	"github.com/yungbote/gtd-backend/internal/data/repos/admin"
	"github.com/yungbote/gtd-backend/internal/data/repos/auth"
	"github.com/yungbote/gtd-backend/internal/data/repos/gtd"
	"github.com/yungbote/gtd-backend/internal/data/repos/user"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo
type SessionRepo = auth.SessionRepo

type ContextRepo = gtd.ContextRepo
type TaskRepo = gtd.TaskRepo
type ProjectRepo = gtd.ProjectRepo

type FeatureFlagRepo = admin.FeatureFlagRepo
type WaitlistRepo = admin.WaitlistRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return auth.NewSessionRepo(db, baseLog)
}

func NewContextRepo(db *gorm.DB, baseLog *logger.Logger) ContextRepo {
	return gtd.NewContextRepo(db, baseLog)
}
func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo { return gtd.NewTaskRepo(db, baseLog) }
func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return gtd.NewProjectRepo(db, baseLog)
}

func NewFeatureFlagRepo(db *gorm.DB, baseLog *logger.Logger) FeatureFlagRepo {
	return admin.NewFeatureFlagRepo(db, baseLog)
}
func NewWaitlistRepo(db *gorm.DB, baseLog *logger.Logger) WaitlistRepo {
	return admin.NewWaitlistRepo(db, baseLog)
}
