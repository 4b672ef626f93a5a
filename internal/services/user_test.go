package services

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
)

func TestUpdateProfileRefreshesCachedUser(t *testing.T) {
	e := newTestEnv(t)
	_, ctx := e.signup(t)
	rd := ctxutil.GetRequestData(ctx)

	color := defaultAvatarColors[0]
	got, err := e.users.UpdateProfile(ctx, ProfileInput{FirstName: " Grace ", LastName: "Hopper", AvatarColor: color})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.FirstName != "Grace" || got.LastName != "Hopper" || got.AvatarColor != color {
		t.Fatalf("unexpected user: %+v", got)
	}
	cached, err := e.cache.Get(ctx, rd.SessionID)
	if err != nil || cached == nil || cached.User.FirstName != "Grace" {
		t.Fatalf("cache not refreshed: %+v %v", cached, err)
	}

	_, err = e.users.UpdateProfile(ctx, ProfileInput{FirstName: "A", LastName: "B", AvatarColor: "#123456"})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "avatar_color")
	_, err = e.users.UpdateProfile(ctx, ProfileInput{FirstName: "", LastName: "B"})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "first_name")
}

func TestUpdateEmail(t *testing.T) {
	e := newTestEnv(t)
	_, ctx := e.signup(t)
	taken, _ := e.signup(t)

	_, err := e.users.UpdateEmail(ctx, EmailChangeInput{Email: uniqueEmail(), CurrentPassword: "Wrong1234"})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "current_password")

	_, err = e.users.UpdateEmail(ctx, EmailChangeInput{Email: taken.User.Email, CurrentPassword: testPassword})
	expectAppErr(t, err, http.StatusConflict, "email")

	_, err = e.users.UpdateEmail(ctx, EmailChangeInput{Email: "not-an-email", CurrentPassword: testPassword})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "email")

	next := uniqueEmail()
	got, err := e.users.UpdateEmail(ctx, EmailChangeInput{Email: next, CurrentPassword: testPassword})
	if err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	if got.Email != next || got.EmailVerifiedAt != nil {
		t.Fatalf("unexpected user: %+v", got)
	}
	if _, err := e.auth.Login(context.Background(), LoginInput{Email: next, Password: testPassword}, ClientInfo{}); err != nil {
		t.Fatalf("login with new email: %v", err)
	}
}

func TestChangePasswordRevokesOtherSessions(t *testing.T) {
	e := newTestEnv(t)
	res, ctx := e.signup(t)
	other, err := e.auth.Login(context.Background(), LoginInput{Email: res.User.Email, Password: testPassword}, ClientInfo{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	err = e.users.ChangePassword(ctx, PasswordChangeInput{CurrentPassword: "Wrong1234", NewPassword: "N3wPassword"})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "current_password")
	err = e.users.ChangePassword(ctx, PasswordChangeInput{CurrentPassword: testPassword, NewPassword: "weak"})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "new_password")

	if err := e.users.ChangePassword(ctx, PasswordChangeInput{CurrentPassword: testPassword, NewPassword: "N3wPassword"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := e.auth.ValidateToken(context.Background(), res.Token); err != nil {
		t.Fatalf("current session revoked: %v", err)
	}
	if _, err := e.auth.ValidateToken(context.Background(), other.Token); err == nil {
		t.Fatalf("other session survived password change")
	}
	if _, err := e.auth.Login(context.Background(), LoginInput{Email: res.User.Email, Password: testPassword}, ClientInfo{}); err == nil {
		t.Fatalf("old password still accepted")
	}
	if _, err := e.auth.Login(context.Background(), LoginInput{Email: res.User.Email, Password: "N3wPassword"}, ClientInfo{}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestPreferences(t *testing.T) {
	e := newTestEnv(t)
	_, ctx := e.signup(t)
	work := e.contextByName(t, ctx, "Work")
	projects := e.contextByRole(t, ctx, types.RoleProjects)

	prefs, err := e.users.GetPreferences(ctx)
	if err != nil || prefs.Theme != "" {
		t.Fatalf("GetPreferences: %+v %v", prefs, err)
	}

	dark := "dark"
	show := true
	prefs, err = e.users.UpdatePreferences(ctx, PreferencesInput{
		Theme:            OptionalString{Set: true, Value: &dark},
		DefaultContextID: OptionalUUID{Set: true, Value: &work.ID},
		ShowCompleted:    &show,
	})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if prefs.Theme != "dark" || prefs.DefaultContextID == nil || *prefs.DefaultContextID != work.ID || !prefs.ShowCompleted {
		t.Fatalf("unexpected prefs: %+v", prefs)
	}

	// Unset fields are left alone; explicit null clears.
	prefs, err = e.users.UpdatePreferences(ctx, PreferencesInput{DefaultContextID: OptionalUUID{Set: true}})
	if err != nil || prefs.Theme != "dark" || prefs.DefaultContextID != nil {
		t.Fatalf("partial update: %+v %v", prefs, err)
	}

	neon := "neon"
	_, err = e.users.UpdatePreferences(ctx, PreferencesInput{Theme: OptionalString{Set: true, Value: &neon}})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "theme")
	_, err = e.users.UpdatePreferences(ctx, PreferencesInput{DefaultContextID: OptionalUUID{Set: true, Value: &projects.ID}})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "default_context_id")
	stranger := uuid.New()
	_, err = e.users.UpdatePreferences(ctx, PreferencesInput{DefaultContextID: OptionalUUID{Set: true, Value: &stranger}})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "default_context_id")
}

func TestDeleteAccount(t *testing.T) {
	e := newTestEnv(t)
	res, ctx := e.signup(t)
	if _, err := e.tasks.Create(ctx, TaskInput{Title: "Buy milk"}); err != nil {
		t.Fatalf("Create task: %v", err)
	}
	if _, err := e.projects.Create(ctx, ProjectInput{Title: "Move house"}); err != nil {
		t.Fatalf("Create project: %v", err)
	}

	err := e.users.DeleteAccount(ctx, DeleteAccountInput{Password: "Wrong1234"})
	expectAppErr(t, err, http.StatusUnprocessableEntity, "password")

	if err := e.users.DeleteAccount(ctx, DeleteAccountInput{Password: testPassword}); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := e.auth.ValidateToken(context.Background(), res.Token); err == nil {
		t.Fatalf("token valid after account deletion")
	}
	dbc := dbctx.Context{Ctx: context.Background()}
	users, _ := e.userRepo.GetByIDs(dbc, []uuid.UUID{res.User.ID})
	contexts, _ := e.contextRepo.GetByOwner(dbc, res.User.ID)
	projects, _ := e.projectRepo.ListByOwner(dbc, res.User.ID, true)
	if len(users)+len(contexts)+len(projects) != 0 {
		t.Fatalf("leftovers: users=%d contexts=%d projects=%d", len(users), len(contexts), len(projects))
	}
	if _, err := e.auth.Signup(context.Background(), SignupInput{
		Email: res.User.Email, Password: testPassword, FirstName: "A", LastName: "B",
	}, ClientInfo{}); err != nil {
		t.Fatalf("email not released: %v", err)
	}
}

func TestAvatar(t *testing.T) {
	e := newTestEnv(t)
	_, ctx := e.signup(t)

	raw, err := e.users.Avatar(ctx)
	if err != nil {
		t.Fatalf("Avatar: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != avatarSize || b.Dy() != avatarSize {
		t.Fatalf("unexpected size %v", b)
	}

	if err := e.flags.Set(ctx, &types.FeatureFlag{Key: types.FlagAvatar}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, err = e.users.Avatar(ctx)
	expectAppErr(t, err, http.StatusNotFound, "")
}
