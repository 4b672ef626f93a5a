package ctxutil

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/gtd-backend/internal/domain"
)

type requestDataKey struct{}

// RequestData is attached by the auth middleware once a session token checks out.
type RequestData struct {
	Token     string
	UserID    uuid.UUID
	SessionID uuid.UUID
	User      *types.User

	// RenewedToken is set when validation extended the session and minted a new token.
	RenewedToken string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// UserID returns the authenticated user id or uuid.Nil.
func UserID(ctx context.Context) uuid.UUID {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}
