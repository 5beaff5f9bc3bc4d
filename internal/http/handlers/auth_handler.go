package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/middleware"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/internal/repo/postgres"
	"github.com/itcons/afisha/pkg/auth"
	"github.com/itcons/afisha/pkg/logger"
)

type AuthHandler struct {
	Accounts postgres.AccountRepo
	Tokens   *auth.TokenService
	Guard    *middleware.Guard
	Limiter  func(http.Handler) http.Handler
}

func NewAuthHandler(accounts postgres.AccountRepo, tokens *auth.TokenService, guard *middleware.Guard, limiter func(http.Handler) http.Handler) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Tokens: tokens, Guard: guard, Limiter: limiter}
}

func (h *AuthHandler) Register(r chi.Router) {
	if h.Limiter != nil {
		r.With(h.Limiter).Post("/login", h.login)
	} else {
		r.Post("/login", h.login)
	}
	r.With(h.Guard.RequireAuth).Get("/me", h.me)
}

// login resolves the submitted login across the three account tables in
// a fixed order (admin first, then organizer, then user), so the same
// string existing in two tables always authenticates the earlier role.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	login := strings.TrimSpace(in.Login)
	if login == "" || in.Password == "" {
		response.BadRequest(w, "login and password are required")
		return
	}

	account, err := h.Accounts.ResolveByLogin(r.Context(), login)
	if err != nil {
		response.InternalError(w)
		return
	}
	if account == nil {
		response.Unauthorized(w, "invalid credentials")
		return
	}
	if account.Status != domain.AccountActive {
		response.Forbidden(w, "account is blocked")
		return
	}
	match, err := argon2id.ComparePasswordAndHash(in.Password, account.PasswordHash)
	if err != nil || !match {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	token, err := h.Tokens.Issue(account.Role, account.ID, account.Login)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to issue token", "error", err)
		response.InternalError(w)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"role":  account.Role,
			"id":    account.ID,
			"login": account.Login,
		},
	})
}

// me re-resolves the token's account; a deleted account turns a valid
// token into a 404 rather than stale data.
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	ctx := r.Context()

	switch claims.Role {
	case domain.RoleAdmin:
		admin, err := h.Accounts.FindAdminByID(ctx, claims.Sub)
		if err != nil {
			response.InternalError(w)
			return
		}
		if admin == nil {
			response.NotFound(w, "account not found")
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{
			"role":       domain.RoleAdmin,
			"id":         admin.ID,
			"login":      admin.Email,
			"status":     admin.Status,
			"created_at": admin.CreatedAt.Format(time.RFC3339),
		})

	case domain.RoleOrganizer:
		org, err := h.Accounts.FindOrganizerByID(ctx, claims.Sub)
		if err != nil {
			response.InternalError(w)
			return
		}
		if org == nil {
			response.NotFound(w, "account not found")
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{
			"role":       domain.RoleOrganizer,
			"id":         org.ID,
			"login":      org.Login(),
			"email":      org.Email,
			"phone":      org.Phone,
			"status":     org.Status,
			"created_at": org.CreatedAt.Format(time.RFC3339),
		})

	case domain.RoleUser:
		user, err := h.Accounts.FindUserByID(ctx, claims.Sub)
		if err != nil {
			response.InternalError(w)
			return
		}
		if user == nil {
			response.NotFound(w, "account not found")
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{
			"role":       domain.RoleUser,
			"id":         user.ID,
			"login":      user.Login(),
			"email":      user.Email,
			"phone":      user.Phone,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"status":     user.Status,
			"created_at": user.CreatedAt.Format(time.RFC3339),
		})

	default:
		response.BadRequest(w, "unsupported role")
	}
}
