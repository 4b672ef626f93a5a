package gtd

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/gtd-backend/internal/data/repos/testutil"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
)

func TestContextRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewContextRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "contextrepo@example.com")

	created, err := repo.Create(dbc, types.DefaultContexts(u.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 6 {
		t.Fatalf("Create: expected 6 contexts, got %d", len(created))
	}

	list, err := repo.GetByOwner(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}
	wantOrder := []string{"Inbox", "Projects", "Waiting For", "Errands", "Home", "Work"}
	for i, c := range list {
		if c.Name != wantOrder[i] {
			t.Fatalf("GetByOwner: position %d got %q want %q", i, c.Name, wantOrder[i])
		}
	}

	inbox, err := repo.GetByOwnerAndRole(dbc, u.ID, types.RoleInbox)
	if err != nil {
		t.Fatalf("GetByOwnerAndRole: %v", err)
	}
	if inbox == nil || inbox.Name != "Inbox" {
		t.Fatalf("GetByOwnerAndRole: unexpected %+v", inbox)
	}
	missing, err := repo.GetByOwnerAndRole(dbc, uuid.New(), types.RoleInbox)
	if err != nil || missing != nil {
		t.Fatalf("GetByOwnerAndRole (missing): %v %+v", err, missing)
	}

	exists, err := repo.NameExists(dbc, u.ID, "  HOME ", uuid.Nil)
	if err != nil || !exists {
		t.Fatalf("NameExists: expected case-insensitive match, got %v %v", exists, err)
	}
	home := list[4]
	exists, err = repo.NameExists(dbc, u.ID, "home", home.ID)
	if err != nil || exists {
		t.Fatalf("NameExists (excluded self): got %v %v", exists, err)
	}

	if err := repo.Rename(dbc, home.ID, "House"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, err := repo.GetByIDs(dbc, []uuid.UUID{home.ID})
	if err != nil || len(got) != 1 || got[0].Name != "House" {
		t.Fatalf("GetByIDs after Rename: %v %+v", err, got)
	}

	testutil.SeedTask(t, ctx, tx, u.ID, inbox.ID, "a", 1)
	testutil.SeedTask(t, ctx, tx, u.ID, inbox.ID, "b", 2)
	done := testutil.SeedTask(t, ctx, tx, u.ID, home.ID, "c", 1)
	if err := tx.Model(done).Update("completed_at", done.CreatedAt).Error; err != nil {
		t.Fatalf("complete task: %v", err)
	}
	counts, err := repo.CountOpenTasksByOwner(dbc, u.ID)
	if err != nil {
		t.Fatalf("CountOpenTasksByOwner: %v", err)
	}
	if counts[inbox.ID] != 2 || counts[home.ID] != 0 {
		t.Fatalf("CountOpenTasksByOwner: unexpected %+v", counts)
	}

	if err := tx.Where("owner_id = ?", u.ID).Delete(&types.Task{}).Error; err != nil {
		t.Fatalf("clear tasks: %v", err)
	}
	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{home.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if err := repo.FullDeleteByOwner(dbc, u.ID); err != nil {
		t.Fatalf("FullDeleteByOwner: %v", err)
	}
	list, err = repo.GetByOwner(dbc, u.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("GetByOwner after delete: %v %d", err, len(list))
	}
}

func TestContextRepoRejectsSecondInbox(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewContextRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "secondinbox@example.com")
	if _, err := repo.Create(dbc, []*types.Context{{OwnerID: u.ID, Name: "Inbox", Role: types.RoleInbox}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Create(dbc, []*types.Context{{OwnerID: u.ID, Name: "Other Inbox", Role: types.RoleInbox}})
	if err == nil {
		t.Fatalf("expected unique violation for second INBOX")
	}
}

func TestContextNameExistsMatchesUniqueIndex(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewContextRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "ecole@example.com")
	if _, err := repo.Create(dbc, []*types.Context{{OwnerID: u.ID, Name: "École", Role: types.RoleNone}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	exists, err := repo.NameExists(dbc, u.ID, " ÉCOLE ", uuid.Nil)
	if err != nil || !exists {
		t.Fatalf("NameExists(ÉCOLE): got %v %v", exists, err)
	}
	if _, err := repo.Create(dbc, []*types.Context{{OwnerID: u.ID, Name: "ÉCOLE", Role: types.RoleNone}}); err == nil {
		t.Fatalf("unique index accepted a name NameExists reported taken")
	}
}
