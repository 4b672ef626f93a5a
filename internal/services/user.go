package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/cache"
	"github.com/yungbote/gtd-backend/internal/data/repos"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/platform/validate"
)

type ProfileInput struct {
	FirstName   string `json:"first_name" form:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" form:"last_name" validate:"required,max=100"`
	AvatarColor string `json:"avatar_color" form:"avatar_color"`
}

type EmailChangeInput struct {
	Email           string `json:"email" form:"email" validate:"required,email,max=254"`
	CurrentPassword string `json:"current_password" form:"current_password"`
}

type PasswordChangeInput struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

type PreferencesInput struct {
	Theme            OptionalString `json:"theme" form:"theme" validate:"omitempty,oneof=light dark system"`
	DefaultContextID OptionalUUID   `json:"default_context_id" form:"default_context_id"`
	ShowCompleted    *bool          `json:"show_completed" form:"show_completed"`
}

type DeleteAccountInput struct {
	Password string `json:"password" form:"password"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*types.User, error)
	UpdateEmail(ctx context.Context, in EmailChangeInput) (*types.User, error)
	ChangePassword(ctx context.Context, in PasswordChangeInput) error
	GetPreferences(ctx context.Context) (*types.Preferences, error)
	UpdatePreferences(ctx context.Context, in PreferencesInput) (*types.Preferences, error)
	DeleteAccount(ctx context.Context, in DeleteAccountInput) error
	Avatar(ctx context.Context) ([]byte, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	sessionRepo   repos.SessionRepo
	contextRepo   repos.ContextRepo
	taskRepo      repos.TaskRepo
	projectRepo   repos.ProjectRepo
	avatarService AvatarService
	flags         FeatureFlagService
	sessionCache  cache.SessionCache
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	sessionRepo repos.SessionRepo,
	contextRepo repos.ContextRepo,
	taskRepo repos.TaskRepo,
	projectRepo repos.ProjectRepo,
	avatarService AvatarService,
	flags FeatureFlagService,
	sessionCache cache.SessionCache,
) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		contextRepo:   contextRepo,
		taskRepo:      taskRepo,
		projectRepo:   projectRepo,
		avatarService: avatarService,
		flags:         flags,
		sessionCache:  sessionCache,
	}
}

// loadUser reads the signed-in user from the database, password hash included.
func (us *userService) loadUser(dbc dbctx.Context) (*types.User, error) {
	userID, err := requestUserID(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	found, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if len(found) == 0 || found[0] == nil {
		return nil, apperr.Unauthorized("Account no longer exists")
	}
	return found[0], nil
}

func (us *userService) refreshCache(ctx context.Context, user *types.User) {
	if err := us.sessionCache.RefreshUser(ctx, user); err != nil {
		us.log.Warn("Failed to refresh cached user", "user_id", user.ID, "error", err)
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	return us.loadUser(dbctx.Context{Ctx: ctx})
}

func (us *userService) UpdateProfile(ctx context.Context, in ProfileInput) (*types.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	firstName, lastName := in.FirstName, in.LastName

	list := validate.Fields(in)
	avatarColor := ""
	if in.AvatarColor != "" {
		c, ok := us.avatarService.ValidColor(in.AvatarColor)
		if !ok {
			list = append(list, apperr.Validation("avatar_color", "Must be one of the offered colors"))
		}
		avatarColor = c
	}
	if err := list.Err(); err != nil {
		return nil, err
	}

	var updated *types.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		user, err := us.loadUser(inner)
		if err != nil {
			return err
		}
		if err := us.userRepo.UpdateName(inner, user.ID, firstName, lastName); err != nil {
			return err
		}
		user.FirstName, user.LastName = firstName, lastName
		if avatarColor != "" && avatarColor != user.AvatarColor {
			if err := us.userRepo.UpdateAvatarColor(inner, user.ID, avatarColor); err != nil {
				return err
			}
			user.AvatarColor = avatarColor
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	us.refreshCache(ctx, updated)
	return updated, nil
}

func (us *userService) UpdateEmail(ctx context.Context, in EmailChangeInput) (*types.User, error) {
	in.Email = validate.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	email := in.Email

	dbc := dbctx.Context{Ctx: ctx}
	user, err := us.loadUser(dbc)
	if err != nil {
		return nil, err
	}
	if !ComparePassword(user.Password, in.CurrentPassword) {
		return nil, apperr.Validation("current_password", "Password is incorrect")
	}
	if email == user.Email {
		return user, nil
	}
	exists, err := us.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("email", "Email is already in use")
	}
	if err := us.userRepo.UpdateEmail(dbc, user.ID, email); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email", "Email is already in use")
		}
		return nil, err
	}
	user.Email = email
	user.EmailVerifiedAt = nil
	us.log.Info("Email changed, verification skipped", "user_id", user.ID, "email", email)
	us.refreshCache(ctx, user)
	return user, nil
}

// ChangePassword also signs out every other session of the user.
func (us *userService) ChangePassword(ctx context.Context, in PasswordChangeInput) error {
	dbc := dbctx.Context{Ctx: ctx}
	user, err := us.loadUser(dbc)
	if err != nil {
		return err
	}
	if !ComparePassword(user.Password, in.CurrentPassword) {
		return apperr.Validation("current_password", "Password is incorrect")
	}
	if err := validate.Password("new_password", in.NewPassword).Err(); err != nil {
		return err
	}
	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	currentSession := uuid.Nil
	if rd := ctxutil.GetRequestData(ctx); rd != nil {
		currentSession = rd.SessionID
	}

	var revoked []uuid.UUID
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := us.userRepo.UpdatePassword(inner, user.ID, hash); err != nil {
			return err
		}
		sessions, err := us.sessionRepo.GetByUserIDs(inner, []uuid.UUID{user.ID})
		if err != nil {
			return err
		}
		for _, s := range sessions {
			if s.ID != currentSession {
				revoked = append(revoked, s.ID)
			}
		}
		return us.sessionRepo.FullDeleteByIDs(inner, revoked)
	})
	if err != nil {
		return err
	}
	if err := us.sessionCache.Delete(ctx, revoked...); err != nil {
		us.log.Warn("Failed to evict revoked sessions", "user_id", user.ID, "error", err)
	}
	us.log.Info("Password changed", "user_id", user.ID, "revoked_sessions", len(revoked))
	return nil
}

func decodePreferences(raw datatypes.JSON) (*types.Preferences, error) {
	prefs := &types.Preferences{}
	if len(raw) == 0 {
		return prefs, nil
	}
	if err := json.Unmarshal(raw, prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

func (us *userService) GetPreferences(ctx context.Context) (*types.Preferences, error) {
	user, err := us.loadUser(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	return decodePreferences(user.Preferences)
}

func (us *userService) UpdatePreferences(ctx context.Context, in PreferencesInput) (*types.Preferences, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	user, err := us.loadUser(dbc)
	if err != nil {
		return nil, err
	}
	prefs, err := decodePreferences(user.Preferences)
	if err != nil {
		return nil, err
	}

	if in.Theme.Set {
		prefs.Theme = in.Theme.String()
	}
	if in.DefaultContextID.Set {
		if in.DefaultContextID.Value != nil {
			found, err := us.contextRepo.GetByIDs(dbc, []uuid.UUID{*in.DefaultContextID.Value})
			if err != nil {
				return nil, err
			}
			if len(found) == 0 || found[0].OwnerID != user.ID {
				return nil, apperr.Validation("default_context_id", "Context not found")
			}
			if found[0].Role == types.RoleProjects {
				return nil, apperr.Validation("default_context_id", "Tasks cannot be filed into Projects")
			}
		}
		prefs.DefaultContextID = in.DefaultContextID.Value
	}
	if in.ShowCompleted != nil {
		prefs.ShowCompleted = *in.ShowCompleted
	}

	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, err
	}
	if err := us.userRepo.UpdatePreferences(dbc, user.ID, datatypes.JSON(raw)); err != nil {
		return nil, err
	}
	user.Preferences = datatypes.JSON(raw)
	us.refreshCache(ctx, user)
	return prefs, nil
}

// DeleteAccount removes the user and everything they own.
func (us *userService) DeleteAccount(ctx context.Context, in DeleteAccountInput) error {
	dbc := dbctx.Context{Ctx: ctx}
	user, err := us.loadUser(dbc)
	if err != nil {
		return err
	}
	if !ComparePassword(user.Password, in.Password) {
		return apperr.Validation("password", "Password is incorrect")
	}

	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := us.taskRepo.FullDeleteByOwner(inner, user.ID); err != nil {
			return err
		}
		if err := us.projectRepo.FullDeleteByOwner(inner, user.ID); err != nil {
			return err
		}
		if err := us.contextRepo.FullDeleteByOwner(inner, user.ID); err != nil {
			return err
		}
		if err := us.sessionRepo.FullDeleteByUserIDs(inner, []uuid.UUID{user.ID}); err != nil {
			return err
		}
		return us.userRepo.FullDeleteByIDs(inner, []uuid.UUID{user.ID})
	})
	if err != nil {
		us.log.Warn("Account deletion failed", "user_id", user.ID, "error", err)
		return err
	}
	if err := us.sessionCache.DeleteUser(ctx, user.ID); err != nil {
		us.log.Warn("Failed to evict sessions of deleted user", "user_id", user.ID, "error", err)
	}
	us.log.Info("Account deleted", "user_id", user.ID)
	return nil
}

func (us *userService) Avatar(ctx context.Context) ([]byte, error) {
	user, err := us.loadUser(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	on, err := us.flags.IsEnabled(ctx, types.FlagAvatar, user)
	if err != nil {
		return nil, err
	}
	if !on {
		return nil, apperr.NotFound("Avatars are not available")
	}
	return us.avatarService.Render(user)
}
