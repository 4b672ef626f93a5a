package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/repos"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type Repos struct {
	User    repos.UserRepo
	Session repos.SessionRepo

	Context repos.ContextRepo
	Task    repos.TaskRepo
	Project repos.ProjectRepo

	FeatureFlag repos.FeatureFlagRepo
	Waitlist    repos.WaitlistRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		Session:     repos.NewSessionRepo(db, log),
		Context:     repos.NewContextRepo(db, log),
		Task:        repos.NewTaskRepo(db, log),
		Project:     repos.NewProjectRepo(db, log),
		FeatureFlag: repos.NewFeatureFlagRepo(db, log),
		Waitlist:    repos.NewWaitlistRepo(db, log),
	}
}
