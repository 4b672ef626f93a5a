package domain

import (
	"github.com/yungbote/gtd-backend/internal/domain/admin"
	"github.com/yungbote/gtd-backend/internal/domain/auth"
	"github.com/yungbote/gtd-backend/internal/domain/gtd"
	"github.com/yungbote/gtd-backend/internal/domain/user"
)

type User = user.User
type Preferences = user.Preferences

type Session = auth.Session

type Context = gtd.Context
type ContextRole = gtd.ContextRole
type Task = gtd.Task
type Project = gtd.Project

type FeatureFlag = admin.FeatureFlag
type WaitlistEntry = admin.WaitlistEntry

const (
	RoleInbox      = gtd.RoleInbox
	RoleProjects   = gtd.RoleProjects
	RoleWaitingFor = gtd.RoleWaitingFor
	RoleNone       = gtd.RoleNone

	FlagSignup = admin.FlagSignup
	FlagAvatar = admin.FlagAvatar
)

var SystemRoles = gtd.SystemRoles

var DefaultContexts = gtd.DefaultContexts
