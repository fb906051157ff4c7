package middlewares

import (
	"context"

	"github.com/dropDatabas3/authgate/internal/authz"
)

type ctxKey string

const (
	// ctxIdentityKey guarda la Identity del token validado
	ctxIdentityKey ctxKey = "identity"
	// ctxAccessTokenKey guarda el access token literal (para logout)
	ctxAccessTokenKey ctxKey = "access_token"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithIdentity inyecta la Identity en el contexto.
func WithIdentity(ctx context.Context, id authz.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

// GetIdentity obtiene la Identity del contexto.
// ok es false si el middleware de auth no se aplicó.
func GetIdentity(ctx context.Context) (authz.Identity, bool) {
	id, ok := ctx.Value(ctxIdentityKey).(authz.Identity)
	return id, ok
}

// withAccessToken inyecta el access token literal (interno).
func withAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxAccessTokenKey, token)
}

// GetAccessToken obtiene el access token literal del contexto.
func GetAccessToken(ctx context.Context) string {
	s, _ := ctx.Value(ctxAccessTokenKey).(string)
	return s
}

// setRequestID inyecta el request ID (interno).
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}
