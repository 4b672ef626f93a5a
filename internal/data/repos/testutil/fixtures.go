package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gtd-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedContexts creates the default context set for a user, keyed by name.
func SeedContexts(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) map[string]*types.Context {
	tb.Helper()
	contexts := types.DefaultContexts(ownerID)
	if err := tx.WithContext(ctx).Create(&contexts).Error; err != nil {
		tb.Fatalf("seed contexts: %v", err)
	}
	out := make(map[string]*types.Context, len(contexts))
	for _, c := range contexts {
		out[c.Name] = c
	}
	return out
}

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, title string, order float64) *types.Project {
	tb.Helper()
	p := &types.Project{
		OwnerID: ownerID,
		Title:   title,
		Order:   order,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID, contextID uuid.UUID, title string, order float64) *types.Task {
	tb.Helper()
	t := &types.Task{
		OwnerID:   ownerID,
		ContextID: contextID,
		Title:     title,
		Order:     order,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return t
}
