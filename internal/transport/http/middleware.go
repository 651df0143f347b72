package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/romariomartinez/ApiEcommerce/internal/domain"
)

// Identity headers set by the upstream auth gateway after token verification.
const (
	headerUserID = "X-User-Id"
	headerRoleID = "X-Role-Id"
)

type callerKey struct{}

// WithCaller extracts the verified caller identity into the request context.
// Requests without an identity are rejected before reaching any handler.
func WithCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
			return
		}
		roleID, err := strconv.Atoi(r.Header.Get(headerRoleID))
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing role")
			return
		}

		caller := domain.CallerContext{UserID: userID, RoleID: roleID}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

// RequireAdmin rejects non-administrator callers. It must run after WithCaller.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok || !caller.IsAdmin() {
			writeError(w, http.StatusForbidden, codeAccessDenied, "access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func CallerFromContext(ctx context.Context) (domain.CallerContext, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.CallerContext)
	return caller, ok
}
