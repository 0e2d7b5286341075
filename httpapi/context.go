package httpapi

import (
	"context"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/session"
)

type contextKey int

const claimsKey contextKey = iota

// withClaims stores the resolved session claims for the request.
func withClaims(ctx context.Context, claims session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// claimsFrom returns the session claims resolved by the session
// middleware, with ok reporting whether the request is authenticated.
func claimsFrom(ctx context.Context) (session.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(session.Claims)
	return claims, ok
}
