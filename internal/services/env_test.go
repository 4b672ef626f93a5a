package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/cache"
	"github.com/yungbote/gtd-backend/internal/data/repos"
	"github.com/yungbote/gtd-backend/internal/data/repos/testutil"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

const testPassword = "Sup3rSecret"

type testEnv struct {
	db    *gorm.DB
	cache cache.SessionCache

	userRepo    repos.UserRepo
	sessionRepo repos.SessionRepo
	contextRepo repos.ContextRepo
	taskRepo    repos.TaskRepo
	projectRepo repos.ProjectRepo
	flagRepo    repos.FeatureFlagRepo

	flags    FeatureFlagService
	avatar   AvatarService
	auth     AuthService
	users    UserService
	contexts ContextService
	tasks    TaskService
	projects ProjectService
	overview OverviewService
	waitlist WaitlistService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := logger.Nop()

	e := &testEnv{
		db:          db,
		cache:       cache.NewMemorySessionCache(128, time.Hour),
		userRepo:    repos.NewUserRepo(db, log),
		sessionRepo: repos.NewSessionRepo(db, log),
		contextRepo: repos.NewContextRepo(db, log),
		taskRepo:    repos.NewTaskRepo(db, log),
		projectRepo: repos.NewProjectRepo(db, log),
		flagRepo:    repos.NewFeatureFlagRepo(db, log),
	}
	avatar, err := NewAvatarService(log, AvatarConfig{})
	if err != nil {
		t.Fatalf("NewAvatarService: %v", err)
	}
	e.avatar = avatar
	e.flags = NewFeatureFlagService(log, e.flagRepo)
	e.auth = NewAuthService(db, log, e.userRepo, e.sessionRepo, e.contextRepo, e.flags, avatar, e.cache, AuthConfig{
		JWTSecret:  "test-secret",
		Issuer:     "gtd-test",
		SessionTTL: 30 * 24 * time.Hour,
		CacheTTL:   time.Minute,
	})
	e.users = NewUserService(db, log, e.userRepo, e.sessionRepo, e.contextRepo, e.taskRepo, e.projectRepo, avatar, e.flags, e.cache)
	e.contexts = NewContextService(db, log, e.contextRepo, e.taskRepo)
	e.tasks = NewTaskService(db, log, e.taskRepo, e.contextRepo, e.projectRepo)
	e.projects = NewProjectService(db, log, e.projectRepo, e.taskRepo)
	e.overview = NewOverviewService(log, e.contextRepo, e.taskRepo, e.projectRepo)
	e.waitlist = NewWaitlistService(log, repos.NewWaitlistRepo(db, log))

	// Flags are global rows; put them back for databases shared between tests.
	t.Cleanup(func() {
		for key, on := range defaultFlags {
			_ = e.flags.Set(context.Background(), &types.FeatureFlag{Key: key, Enabled: on})
		}
	})
	return e
}

func uniqueEmail() string {
	return "user-" + uuid.NewString()[:8] + "@example.com"
}

// signup registers a fresh user and returns a context carrying their session,
// the way the auth middleware would.
func (e *testEnv) signup(t *testing.T) (*AuthResult, context.Context) {
	t.Helper()
	res, err := e.auth.Signup(context.Background(), SignupInput{
		Email:     uniqueEmail(),
		Password:  testPassword,
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, ClientInfo{UserAgent: "go-test", IP: "127.0.0.1"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	rd, err := e.auth.ValidateToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	return res, ctxutil.WithRequestData(context.Background(), rd)
}

func (e *testEnv) contextByRole(t *testing.T, ctx context.Context, role types.ContextRole) *types.Context {
	t.Helper()
	list, err := e.contexts.List(ctx)
	if err != nil {
		t.Fatalf("List contexts: %v", err)
	}
	for _, c := range list {
		if c.Role == role {
			return c.Context
		}
	}
	t.Fatalf("no %s context", role)
	return nil
}

func (e *testEnv) contextByName(t *testing.T, ctx context.Context, name string) *types.Context {
	t.Helper()
	list, err := e.contexts.List(ctx)
	if err != nil {
		t.Fatalf("List contexts: %v", err)
	}
	for _, c := range list {
		if c.Name == name {
			return c.Context
		}
	}
	t.Fatalf("no context named %q", name)
	return nil
}

// expectAppErr asserts err normalizes to a single error with the given status and field.
func expectAppErr(t *testing.T, err error, status int, field string) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d error, got nil", status)
	}
	list := apperr.Normalize(err)
	if len(list) == 0 {
		t.Fatalf("expected %d error, got %v", status, err)
	}
	for _, e := range list {
		if e.Status == status && e.Field == field {
			return e
		}
	}
	t.Fatalf("expected status %d field %q, got %+v", status, field, list)
	return nil
}
