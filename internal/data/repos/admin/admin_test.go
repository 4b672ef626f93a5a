package admin

import (
	"context"
	"testing"

	"github.com/yungbote/gtd-backend/internal/data/repos/testutil"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
)

func TestFeatureFlagRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewFeatureFlagRepo(db, testutil.Logger(t))

	if err := repo.Upsert(dbc, []*types.FeatureFlag{
		{Key: types.FlagSignup, Enabled: true},
		{Key: types.FlagAvatar, Enabled: false, AllowedUsers: []string{"beta@example.com"}},
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, []*types.FeatureFlag{
		{Key: types.FlagSignup, Enabled: false, Description: "closed beta"},
	}); err != nil {
		t.Fatalf("Upsert (update): %v", err)
	}

	flags, err := repo.GetByKeys(dbc, []string{types.FlagSignup})
	if err != nil {
		t.Fatalf("GetByKeys: %v", err)
	}
	if len(flags) != 1 || flags[0].Enabled || flags[0].Description != "closed beta" {
		t.Fatalf("GetByKeys: unexpected %+v", flags)
	}

	all, err := repo.List(dbc)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].Key != types.FlagAvatar {
		t.Fatalf("List: unexpected %+v", all)
	}
	if len(all[0].AllowedUsers) != 1 || all[0].AllowedUsers[0] != "beta@example.com" {
		t.Fatalf("List: allowed users lost: %+v", all[0].AllowedUsers)
	}
}

func TestWaitlistRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewWaitlistRepo(db, testutil.Logger(t))

	if _, err := repo.Create(dbc, &types.WaitlistEntry{Email: "wait@example.com", Note: "hi"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	exists, err := repo.EmailExists(dbc, "wait@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists: %v %v", exists, err)
	}
	exists, err = repo.EmailExists(dbc, "nobody@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists (missing): %v %v", exists, err)
	}
	entries, err := repo.List(dbc)
	if err != nil || len(entries) != 1 || entries[0].Note != "hi" {
		t.Fatalf("List: %v %+v", err, entries)
	}
}
