package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/pkg/auth"
	"github.com/itcons/afisha/pkg/logger"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AdminFinder re-resolves admin accounts; the guard checks an admin
// still exists on every admin call. Other roles are looked up by their
// handlers instead.
type AdminFinder interface {
	FindAdminByID(ctx context.Context, id int64) (*domain.AdminAccount, error)
}

// Guard is the only authorization mechanism in the API: three coarse
// roles, no finer permissions. Tenant scoping happens in handlers by
// filtering queries on the organizer resolved from the token, never on
// a client-supplied id.
type Guard struct {
	tokens *auth.TokenService
	admins AdminFinder
}

func NewGuard(tokens *auth.TokenService, admins AdminFinder) *Guard {
	return &Guard{tokens: tokens, admins: admins}
}

// RequireAuth accepts any valid token and stores the claims in context.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := g.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireRole additionally enforces an exact role match (403 on
// mismatch) and, for admins, that the account still exists (404).
func (g *Guard) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := g.authenticate(w, r)
			if !ok {
				return
			}
			if claims.Role != role {
				response.Forbidden(w, "forbidden")
				return
			}
			if role == domain.RoleAdmin {
				admin, err := g.admins.FindAdminByID(r.Context(), claims.Sub)
				if err != nil {
					response.InternalError(w)
					return
				}
				if admin == nil {
					response.NotFound(w, "admin account not found")
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func (g *Guard) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		response.Unauthorized(w, "unauthorized")
		return nil, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		response.Unauthorized(w, "unauthorized")
		return nil, false
	}
	return claims, true
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, logger.AccountIDKey, claims.Sub)
}

// Claims returns the authenticated claims, or nil outside guarded routes.
func Claims(r *http.Request) *auth.Claims {
	v := r.Context().Value(claimsKey)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
