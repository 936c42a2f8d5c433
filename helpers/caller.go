package helpers

import (
	"context"
	"net/http"
	"strings"

	"github.com/leetryscode/matchmakr-vg0-sub001/apperrors"
	"github.com/leetryscode/matchmakr-vg0-sub001/models"
)

// Identity headers set by the authenticating proxy.
const (
	CallerIDHeader   = "X-Caller-Id"
	CallerRoleHeader = "X-Caller-Role"
)

type callerKey struct{}

// WithCaller returns ctx carrying caller.
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored by CallerMiddleware.
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(models.Caller)
	return caller, ok
}

// CallerMiddleware rejects requests without a well-formed identity and
// stores the caller on the request context.
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := models.Caller{
			ID:   strings.TrimSpace(r.Header.Get(CallerIDHeader)),
			Role: models.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(CallerRoleHeader)))),
		}
		if caller.ID == "" || !caller.Role.Valid() {
			WriteError(w, apperrors.Unauthenticated("missing or invalid caller identity"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireRole returns the request's caller if it holds role.
func RequireRole(r *http.Request, role models.Role) (models.Caller, error) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		return models.Caller{}, apperrors.Unauthenticated("missing caller identity")
	}
	if caller.Role != role {
		return models.Caller{}, apperrors.Authorization("operation requires role " + string(role))
	}
	return caller, nil
}

// RequireCaller returns the request's caller regardless of role.
func RequireCaller(r *http.Request) (models.Caller, error) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		return models.Caller{}, apperrors.Unauthenticated("missing caller identity")
	}
	return caller, nil
}
