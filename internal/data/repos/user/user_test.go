package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/gtd-backend/internal/data/repos/testutil"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{
			Email:     "userrepo@example.com",
			Password:  "pw",
			FirstName: "A",
			LastName:  "B",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: unexpected result: %+v", created)
	}
	id := created[0].ID

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(gotByIDs) != 1 || gotByIDs[0].ID != id {
		t.Fatalf("GetByIDs: unexpected result: %+v", gotByIDs)
	}

	gotByEmails, err := repo.GetByEmails(dbc, []string{created[0].Email})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(gotByEmails) != 1 || gotByEmails[0].Email != created[0].Email {
		t.Fatalf("GetByEmails: unexpected result: %+v", gotByEmails)
	}

	exists, err := repo.EmailExists(dbc, created[0].Email)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Fatalf("EmailExists: expected true")
	}

	exists, err = repo.EmailExists(dbc, "does-not-exist@example.com")
	if err != nil {
		t.Fatalf("EmailExists (missing): %v", err)
	}
	if exists {
		t.Fatalf("EmailExists (missing): expected false")
	}

	if err := repo.UpdateName(dbc, id, "Grace", "Hopper"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if err := repo.UpdateEmail(dbc, id, "grace@example.com"); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	if err := repo.UpdatePassword(dbc, id, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if err := repo.UpdatePreferences(dbc, id, datatypes.JSON([]byte(`{"theme":"dark"}`))); err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if err := repo.UpdateAvatarColor(dbc, id, "#336699"); err != nil {
		t.Fatalf("UpdateAvatarColor: %v", err)
	}

	got, err := repo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs after update: %v %+v", err, got)
	}
	u := got[0]
	if u.FirstName != "Grace" || u.LastName != "Hopper" || u.Email != "grace@example.com" {
		t.Fatalf("profile not updated: %+v", u)
	}
	if u.Password != "new-hash" || u.AvatarColor != "#336699" {
		t.Fatalf("password/avatar not updated: %+v", u)
	}
	if string(u.Preferences) != `{"theme":"dark"}` {
		t.Fatalf("preferences not updated: %s", string(u.Preferences))
	}

	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	var count int64
	if err := tx.Unscoped().Model(&types.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("FullDeleteByIDs: expected hard delete, %d rows left", count)
	}
}

func TestUserRepoEmptyInputs(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	users, err := repo.GetByIDs(dbc, nil)
	if err != nil || len(users) != 0 {
		t.Fatalf("GetByIDs(nil): %v %+v", err, users)
	}
	created, err := repo.Create(dbc, nil)
	if err != nil || len(created) != 0 {
		t.Fatalf("Create(nil): %v %+v", err, created)
	}
	if err := repo.FullDeleteByIDs(dbc, nil); err != nil {
		t.Fatalf("FullDeleteByIDs(nil): %v", err)
	}
}
