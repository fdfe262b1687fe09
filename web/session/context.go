package session

import (
	"context"

	"github.com/libresign/libresign/models"
)

type idCtxKey struct{}

func WithWebSessionId(ctx context.Context, webSessionID string) context.Context {
	return context.WithValue(ctx, idCtxKey{}, webSessionID)
}

func WebSessionIdFromContext(ctx context.Context) (string, bool) {
	ctxVal := ctx.Value(idCtxKey{})
	val, ok := ctxVal.(string)
	return val, ok
}

type userCtxKey struct{}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	ctxVal := ctx.Value(userCtxKey{})
	val, ok := ctxVal.(*models.User)
	return val, ok
}
