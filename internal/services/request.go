package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
)

// requestUserID returns the signed-in user's id from the request context.
func requestUserID(ctx context.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(ctx)
	if id == uuid.Nil {
		return uuid.Nil, apperr.Unauthorized("Not signed in")
	}
	return id, nil
}
