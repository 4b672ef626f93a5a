package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
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

const invalidCredentials = "Invalid email or password"

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	// SessionTTL is how long a session lives without activity.
	SessionTTL time.Duration
	// CacheTTL caps how long a validated session is served from cache.
	CacheTTL time.Duration
}

type SignupInput struct {
	Email     string `json:"email" form:"email" validate:"required,email,max=254"`
	Password  string `json:"password" form:"password"`
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// ClientInfo is recorded on the session row.
type ClientInfo struct {
	UserAgent string
	IP        string
}

type AuthResult struct {
	User      *types.User `json:"user"`
	Token     string      `json:"-"`
	ExpiresAt time.Time   `json:"expires_at"`

	sessionID uuid.UUID
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput, client ClientInfo) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput, client ClientInfo) (*AuthResult, error)
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
	ValidateToken(ctx context.Context, token string) (*ctxutil.RequestData, error)
	SessionTTL() time.Duration
	SweepExpired(ctx context.Context) (int64, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	sessionRepo   repos.SessionRepo
	contextRepo   repos.ContextRepo
	flags         FeatureFlagService
	avatarService AvatarService
	sessionCache  cache.SessionCache
	signer        tokenSigner
	sessionTTL    time.Duration
	cacheTTL      time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	sessionRepo repos.SessionRepo,
	contextRepo repos.ContextRepo,
	flags FeatureFlagService,
	avatarService AvatarService,
	sessionCache cache.SessionCache,
	cfg AuthConfig,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		contextRepo:   contextRepo,
		flags:         flags,
		avatarService: avatarService,
		sessionCache:  sessionCache,
		signer:        newTokenSigner(cfg.JWTSecret, cfg.Issuer),
		sessionTTL:    cfg.SessionTTL,
		cacheTTL:      cfg.CacheTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) SessionTTL() time.Duration { return as.sessionTTL }

func (as *authService) Signup(ctx context.Context, in SignupInput, client ClientInfo) (*AuthResult, error) {
	in.Email = validate.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	email, firstName, lastName := in.Email, in.FirstName, in.LastName

	list := validate.Fields(in)
	list = append(list, validate.Password("password", in.Password)...)
	if err := list.Err(); err != nil {
		return nil, err
	}

	open, flagErr := as.flags.IsEnabled(ctx, types.FlagSignup, &types.User{Email: email})
	if flagErr != nil {
		return nil, flagErr
	}
	if !open {
		return nil, apperr.Forbidden("Signups are currently closed. Join the waitlist to hear when we open up.").
			WithData("waitlist", true)
	}

	exists, existsErr := as.userRepo.EmailExists(dbctx.Context{Ctx: ctx}, email)
	if existsErr != nil {
		return nil, existsErr
	}
	if exists {
		return nil, apperr.Conflict("email", "Email is already in use")
	}

	hash, hashErr := HashPassword(in.Password)
	if hashErr != nil {
		return nil, hashErr
	}

	user := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  hash,
		FirstName: firstName,
		LastName:  lastName,
	}
	user.AvatarColor = as.avatarService.PickColor(user.ID.String())

	var result *AuthResult
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userRepo.Create(inner, []*types.User{user}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("email", "Email is already in use")
			}
			return err
		}
		if _, err := as.contextRepo.Create(inner, types.DefaultContexts(user.ID)); err != nil {
			return err
		}
		if err := ensureContextInvariants(inner, as.contextRepo, user.ID); err != nil {
			return err
		}
		res, err := as.startSession(inner, user, client)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if txErr != nil {
		as.log.Warn("Signup failed", "error", txErr)
		return nil, txErr
	}

	as.cacheSession(ctx, result)
	// Verification mail is not wired up; the account is usable immediately.
	as.log.Info("User signed up, email verification skipped", "user_id", user.ID, "email", email)
	return result, nil
}

func (as *authService) Login(ctx context.Context, in LoginInput, client ClientInfo) (*AuthResult, error) {
	email := validate.NormalizeEmail(in.Email)

	var list apperr.List
	if email == "" {
		list = append(list, apperr.Validation("email", "This field is required"))
	}
	if in.Password == "" {
		list = append(list, apperr.Validation("password", "This field is required"))
	}
	if err := list.Err(); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	users, err := as.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		burnPasswordCompare(in.Password)
		return nil, apperr.Unauthorized(invalidCredentials)
	}
	user := users[0]
	if !ComparePassword(user.Password, in.Password) {
		return nil, apperr.Unauthorized(invalidCredentials)
	}

	result, err := as.startSession(dbc, user, client)
	if err != nil {
		return nil, err
	}
	as.cacheSession(ctx, result)
	as.log.Info("User logged in", "user_id", user.ID)
	return result, nil
}

func (as *authService) startSession(dbc dbctx.Context, user *types.User, client ClientInfo) (*AuthResult, error) {
	now := as.now()
	session := &types.Session{
		UserID:    user.ID,
		ExpiresAt: now.Add(as.sessionTTL),
		UserAgent: truncate(client.UserAgent, 255),
		IP:        client.IP,
	}
	if _, err := as.sessionRepo.Create(dbc, []*types.Session{session}); err != nil {
		return nil, err
	}
	token, err := as.signer.Sign(user.ID, session.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		sessionID: session.ID,
	}, nil
}

func (as *authService) cacheSession(ctx context.Context, res *AuthResult) {
	if res == nil {
		return
	}
	err := as.sessionCache.Set(ctx, &cache.CachedSession{
		SessionID: res.sessionID,
		UserID:    res.User.ID,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	}, as.cacheTTL)
	if err != nil {
		// The database stays authoritative; a cold cache only costs a lookup.
		as.log.Warn("Failed to cache session", "session_id", res.sessionID, "error", err)
	}
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.SessionID == uuid.Nil {
		return apperr.Unauthorized("Not signed in")
	}
	if err := as.sessionRepo.FullDeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.SessionID}); err != nil {
		return err
	}
	if err := as.sessionCache.Delete(ctx, rd.SessionID); err != nil {
		as.log.Warn("Failed to evict session from cache", "session_id", rd.SessionID, "error", err)
	}
	as.log.Info("User logged out", "user_id", rd.UserID)
	return nil
}

func (as *authService) LogoutAll(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperr.Unauthorized("Not signed in")
	}
	return as.revokeUserSessions(ctx, rd.UserID)
}

func (as *authService) revokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	if err := as.sessionRepo.FullDeleteByUserIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID}); err != nil {
		return err
	}
	if err := as.sessionCache.DeleteUser(ctx, userID); err != nil {
		as.log.Warn("Failed to evict user sessions from cache", "user_id", userID, "error", err)
	}
	return nil
}

// ValidateToken resolves a bearer token to its session and user. Sessions past
// half their lifetime are extended and a fresh token is returned in
// RequestData.RenewedToken.
func (as *authService) ValidateToken(ctx context.Context, token string) (*ctxutil.RequestData, error) {
	unauthorized := apperr.Unauthorized("Invalid or expired session")
	if token == "" {
		return nil, unauthorized
	}
	userID, sessionID, err := as.signer.Parse(token)
	if err != nil {
		return nil, unauthorized.WithCause(err)
	}

	now := as.now()
	cached, err := as.sessionCache.Get(ctx, sessionID)
	if err != nil {
		as.log.Warn("Session cache read failed, falling back to database", "error", err)
		cached = nil
	}
	if cached != nil && (cached.UserID != userID || !now.Before(cached.ExpiresAt) || cached.User == nil) {
		cached = nil
	}

	if cached == nil {
		cached, err = as.loadSession(ctx, userID, sessionID, now)
		if err != nil {
			return nil, err
		}
		if cached == nil {
			return nil, unauthorized
		}
		if err := as.sessionCache.Set(ctx, cached, as.cacheTTL); err != nil {
			as.log.Warn("Failed to cache session", "session_id", sessionID, "error", err)
		}
	}

	rd := &ctxutil.RequestData{
		Token:     token,
		UserID:    cached.UserID,
		SessionID: cached.SessionID,
		User:      cached.User,
	}

	if cached.ExpiresAt.Sub(now) < as.sessionTTL/2 {
		renewed, err := as.renew(ctx, cached, now)
		if err != nil {
			// Renewal is best effort; the current token is still valid.
			as.log.Warn("Session renewal failed", "session_id", sessionID, "error", err)
		} else {
			rd.RenewedToken = renewed
		}
	}
	return rd, nil
}

func (as *authService) loadSession(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (*cache.CachedSession, error) {
	dbc := dbctx.Context{Ctx: ctx}
	sessions, err := as.sessionRepo.GetByIDs(dbc, []uuid.UUID{sessionID})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 || sessions[0].UserID != userID {
		return nil, nil
	}
	session := sessions[0]
	if session.Expired(now) {
		if err := as.sessionRepo.FullDeleteByIDs(dbc, []uuid.UUID{session.ID}); err != nil {
			as.log.Warn("Failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, nil
	}
	users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &cache.CachedSession{
		SessionID: session.ID,
		UserID:    userID,
		ExpiresAt: session.ExpiresAt,
		User:      users[0],
	}, nil
}

func (as *authService) renew(ctx context.Context, cached *cache.CachedSession, now time.Time) (string, error) {
	expiresAt := now.Add(as.sessionTTL)
	if err := as.sessionRepo.UpdateExpiry(dbctx.Context{Ctx: ctx}, cached.SessionID, expiresAt); err != nil {
		return "", err
	}
	token, err := as.signer.Sign(cached.UserID, cached.SessionID, now, expiresAt)
	if err != nil {
		return "", err
	}
	cached.ExpiresAt = expiresAt
	if err := as.sessionCache.Set(ctx, cached, as.cacheTTL); err != nil {
		as.log.Warn("Failed to cache renewed session", "session_id", cached.SessionID, "error", err)
	}
	return token, nil
}

func (as *authService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := as.sessionRepo.FullDeleteExpired(dbctx.Context{Ctx: ctx}, as.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		as.log.Info("Swept expired sessions", "count", n)
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
