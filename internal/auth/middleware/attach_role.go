package auth

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/mindengage-testprep/internal/rbac"
)

// ErrUnknownSubject is returned by a RoleSource when the token's subject no longer exists.
var ErrUnknownSubject = errors.New("unknown subject")

type RoleSource interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

// AttachRoleFromStore replaces the role claimed in the token with the stored one, so
// role changes and deleted accounts take effect before the token expires.
// allowClaimFallback keeps the claimed role when the store cannot be reached.
func AttachRoleFromStore(src RoleSource, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			claimRole := rbac.RoleFromContext(ctx) // set by JWTMiddleware

			role, err := src.RoleOf(ctx, sub)
			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))

			case errors.Is(err, ErrUnknownSubject):
				http.Error(w, "unknown account", http.StatusUnauthorized)

			default:
				log.Printf("auth: role lookup for %s failed: %v", sub, err)
				if allowClaimFallback && claimRole != "" {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
