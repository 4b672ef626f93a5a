package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
)

func TestSignupCreatesUserContextsAndSession(t *testing.T) {
	e := newTestEnv(t)
	res, ctx := e.signup(t)

	if res.Token == "" || res.User == nil || res.User.ID == uuid.Nil {
		t.Fatalf("incomplete result: %+v", res)
	}
	if res.User.Password == testPassword {
		t.Fatalf("password stored in clear")
	}
	if _, ok := e.avatar.ValidColor(res.User.AvatarColor); !ok {
		t.Fatalf("avatar color %q not from palette", res.User.AvatarColor)
	}
	if err := ensureContextInvariants(dbctx.Context{Ctx: ctx}, e.contextRepo, res.User.ID); err != nil {
		t.Fatalf("context invariants after signup: %v", err)
	}
	list, err := e.contexts.List(ctx)
	if err != nil || len(list) != len(types.DefaultContexts(res.User.ID)) {
		t.Fatalf("contexts: %d %v", len(list), err)
	}
	sessions, err := e.sessionRepo.GetByUserIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{res.User.ID})
	if err != nil || len(sessions) != 1 {
		t.Fatalf("sessions: %d %v", len(sessions), err)
	}
	if got := sessions[0].ExpiresAt.Sub(time.Now()); got < 29*24*time.Hour {
		t.Fatalf("session expires too early: %s", got)
	}
}

func TestSignupValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{"bad email", SignupInput{Email: "nope", Password: testPassword, FirstName: "A", LastName: "B"}, "email"},
		{"weak password", SignupInput{Email: uniqueEmail(), Password: "password", FirstName: "A", LastName: "B"}, "password"},
		{"short password", SignupInput{Email: uniqueEmail(), Password: "Ab1", FirstName: "A", LastName: "B"}, "password"},
		{"missing first name", SignupInput{Email: uniqueEmail(), Password: testPassword, FirstName: "  ", LastName: "B"}, "first_name"},
		{"long last name", SignupInput{Email: uniqueEmail(), Password: testPassword, FirstName: "A", LastName: strings.Repeat("x", 101)}, "last_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.auth.Signup(ctx, tc.in, ClientInfo{})
			expectAppErr(t, err, http.StatusUnprocessableEntity, tc.field)
		})
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	email := uniqueEmail()
	in := SignupInput{Email: email, Password: testPassword, FirstName: "A", LastName: "B"}
	if _, err := e.auth.Signup(ctx, in, ClientInfo{}); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	in.Email = "  " + strings.ToUpper(email) + " "
	_, err := e.auth.Signup(ctx, in, ClientInfo{})
	expectAppErr(t, err, http.StatusConflict, "email")
}

func TestSignupClosedPointsToWaitlist(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if err := e.flags.Set(ctx, &types.FeatureFlag{Key: types.FlagSignup, Enabled: false}); err != nil {
		t.Fatalf("Set flag: %v", err)
	}
	_, err := e.auth.Signup(ctx, SignupInput{Email: uniqueEmail(), Password: testPassword, FirstName: "A", LastName: "B"}, ClientInfo{})
	appErr := expectAppErr(t, err, http.StatusForbidden, "")
	if appErr.Data["waitlist"] != true {
		t.Fatalf("expected waitlist hint, got %+v", appErr.Data)
	}

	// Allow-listed emails still get in.
	invited := uniqueEmail()
	if err := e.flags.Set(ctx, &types.FeatureFlag{Key: types.FlagSignup, AllowedUsers: []string{invited}}); err != nil {
		t.Fatalf("Set flag: %v", err)
	}
	if _, err := e.auth.Signup(ctx, SignupInput{Email: invited, Password: testPassword, FirstName: "A", LastName: "B"}, ClientInfo{}); err != nil {
		t.Fatalf("allow-listed signup: %v", err)
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	res, _ := e.signup(t)
	ctx := context.Background()

	got, err := e.auth.Login(ctx, LoginInput{Email: res.User.Email, Password: testPassword}, ClientInfo{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.User.ID != res.User.ID || got.Token == "" || got.Token == res.Token {
		t.Fatalf("unexpected login result: %+v", got)
	}

	_, err = e.auth.Login(ctx, LoginInput{Email: res.User.Email, Password: "Wrong1234"}, ClientInfo{})
	wrong := expectAppErr(t, err, http.StatusUnauthorized, "")
	_, err = e.auth.Login(ctx, LoginInput{Email: uniqueEmail(), Password: testPassword}, ClientInfo{})
	unknown := expectAppErr(t, err, http.StatusUnauthorized, "")
	if wrong.Message != unknown.Message {
		t.Fatalf("unknown email distinguishable: %q vs %q", wrong.Message, unknown.Message)
	}

	_, err = e.auth.Login(ctx, LoginInput{}, ClientInfo{})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "email")
}

func TestValidateToken(t *testing.T) {
	e := newTestEnv(t)
	res, _ := e.signup(t)
	ctx := context.Background()

	rd, err := e.auth.ValidateToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if rd.UserID != res.User.ID || rd.User == nil || rd.RenewedToken != "" {
		t.Fatalf("unexpected request data: %+v", rd)
	}

	for _, bad := range []string{"", "garbage", res.Token + "x"} {
		_, err := e.auth.ValidateToken(ctx, bad)
		expectAppErr(t, err, http.StatusUnauthorized, "")
	}

	other := newTokenSigner("another-secret", "gtd-test")
	forged, err := other.Sign(res.User.ID, rd.SessionID, time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	_, err = e.auth.ValidateToken(ctx, forged)
	expectAppErr(t, err, http.StatusUnauthorized, "")
}

func TestValidateTokenFallsBackToDatabase(t *testing.T) {
	e := newTestEnv(t)
	res, ctx := e.signup(t)
	rd := ctxutil.GetRequestData(ctx)

	if err := e.cache.Delete(ctx, rd.SessionID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := e.auth.ValidateToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("ValidateToken after eviction: %v", err)
	}
	if got.SessionID != rd.SessionID {
		t.Fatalf("wrong session %s", got.SessionID)
	}
	cached, err := e.cache.Get(ctx, rd.SessionID)
	if err != nil || cached == nil {
		t.Fatalf("cache not refilled: %v %v", cached, err)
	}
}

func TestValidateTokenRenewsPastHalfLife(t *testing.T) {
	e := newTestEnv(t)
	res, ctx := e.signup(t)
	rd := ctxutil.GetRequestData(ctx)

	svc := e.auth.(*authService)
	later := time.Now().UTC().Add(20 * 24 * time.Hour)
	svc.now = func() time.Time { return later }

	got, err := e.auth.ValidateToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.RenewedToken == "" {
		t.Fatalf("expected a renewed token")
	}
	sessions, err := e.sessionRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.SessionID})
	if err != nil || len(sessions) != 1 {
		t.Fatalf("GetByIDs: %v", err)
	}
	if !sessions[0].ExpiresAt.After(later.Add(29 * 24 * time.Hour)) {
		t.Fatalf("expiry not extended: %s", sessions[0].ExpiresAt)
	}

	again, err := e.auth.ValidateToken(context.Background(), got.RenewedToken)
	if err != nil || again.SessionID != rd.SessionID {
		t.Fatalf("renewed token rejected: %v", err)
	}
}

func TestLogoutAndLogoutAll(t *testing.T) {
	e := newTestEnv(t)
	res, ctx := e.signup(t)

	second, err := e.auth.Login(context.Background(), LoginInput{Email: res.User.Email, Password: testPassword}, ClientInfo{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := e.auth.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := e.auth.ValidateToken(context.Background(), res.Token); err == nil {
		t.Fatalf("logged-out token still valid")
	}
	rd, err := e.auth.ValidateToken(context.Background(), second.Token)
	if err != nil {
		t.Fatalf("other session dropped by Logout: %v", err)
	}

	if err := e.auth.LogoutAll(ctxutil.WithRequestData(context.Background(), rd)); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	if _, err := e.auth.ValidateToken(context.Background(), second.Token); err == nil {
		t.Fatalf("token valid after LogoutAll")
	}

	expectAppErr(t, e.auth.Logout(context.Background()), http.StatusUnauthorized, "")
}

func TestSweepExpired(t *testing.T) {
	e := newTestEnv(t)
	res, _ := e.signup(t)

	svc := e.auth.(*authService)
	svc.now = func() time.Time { return time.Now().UTC().Add(31 * 24 * time.Hour) }
	n, err := e.auth.SweepExpired(context.Background())
	if err != nil || n < 1 {
		t.Fatalf("SweepExpired: %d %v", n, err)
	}
	_ = e.cache.DeleteUser(context.Background(), res.User.ID)
	svc.now = func() time.Time { return time.Now().UTC() }
	if _, err := e.auth.ValidateToken(context.Background(), res.Token); err == nil {
		t.Fatalf("swept session still valid")
	}
}
