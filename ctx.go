package devconnect

import "context"

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AuthClaims in the given context.
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context.
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// SubjectID returns the authenticated subject id from the context, or
// the empty string when the request was not authenticated.
func SubjectID(ctx context.Context) string {
	if claims, ok := GetClaims(ctx); ok {
		return claims.UserID()
	}
	return ""
}
