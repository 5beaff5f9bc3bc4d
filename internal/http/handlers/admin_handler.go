package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/middleware"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/internal/platform/mailer"
	"github.com/itcons/afisha/internal/repo/postgres"
	"github.com/itcons/afisha/pkg/events"
	"github.com/itcons/afisha/pkg/logger"
)

// AdminHandler covers the admin console: self lookup and account
// provisioning for users and organizers.
type AdminHandler struct {
	Accounts postgres.AccountRepo
	Mail     mailer.Service
	Bus      events.Publisher
}

func NewAdminHandler(accounts postgres.AccountRepo, mail mailer.Service, bus events.Publisher) *AdminHandler {
	return &AdminHandler{Accounts: accounts, Mail: mail, Bus: bus}
}

// Register mounts under the admin role guard.
func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/me", h.me)
	r.Post("/users", h.createUser)
}

func (h *AdminHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	admin, err := h.Accounts.FindAdminByID(r.Context(), claims.Sub)
	if err != nil {
		response.InternalError(w)
		return
	}
	if admin == nil {
		response.NotFound(w, "admin account not found")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"admin_id":   admin.ID,
		"login":      admin.Email,
		"role":       domain.RoleAdmin,
		"status":     admin.Status,
		"created_at": admin.CreatedAt.Format(time.RFC3339),
	})
}

// createUser provisions a user or organizer account. A login containing
// "@" is stored as email, anything else as phone; organizers must have
// an email. The submitted name is split into first/last for users, with
// "-" standing in when no last name was given.
func (h *AdminHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FullName string `json:"full_name"`
		Login    string `json:"login"`
		Password string `json:"password"`
		UserType string `json:"user_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	fullName := strings.TrimSpace(in.FullName)
	login := strings.TrimSpace(in.Login)
	userType := strings.ToLower(strings.TrimSpace(in.UserType))
	if fullName == "" || login == "" || in.Password == "" || userType == "" {
		response.BadRequest(w, "full_name, login, password, user_type are required")
		return
	}
	if userType != domain.RoleUser && userType != domain.RoleOrganizer {
		response.BadRequest(w, "user_type must be 'user' or 'organizer'")
		return
	}

	var email, phone *string
	if strings.Contains(login, "@") {
		email = &login
	} else {
		phone = &login
	}

	ctx := r.Context()
	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		response.InternalError(w)
		return
	}

	if userType == domain.RoleUser {
		if taken, err := h.loginTaken(ctx, h.Accounts.UserEmailExists, h.Accounts.UserPhoneExists, email, phone); err != nil {
			response.InternalError(w)
			return
		} else if taken != "" {
			response.Conflict(w, "user with this "+taken+" already exists")
			return
		}

		parts := strings.Fields(fullName)
		firstName := parts[0]
		lastName := "-"
		if len(parts) > 1 {
			lastName = strings.Join(parts[1:], " ")
		}

		account, err := h.Accounts.CreateUser(ctx, email, phone, hash, firstName, lastName)
		if err != nil {
			response.InternalError(w)
			return
		}
		h.notifyCreated(ctx, domain.RoleUser, account.ID, account.Login(), fullName, email, in.Password)
		response.JSON(w, http.StatusCreated, map[string]any{
			"id":        account.ID,
			"role":      domain.RoleUser,
			"login":     account.Login(),
			"full_name": strings.TrimSpace(account.FirstName + " " + account.LastName),
		})
		return
	}

	if taken, err := h.loginTaken(ctx, h.Accounts.OrganizerEmailExists, h.Accounts.OrganizerPhoneExists, email, phone); err != nil {
		response.InternalError(w)
		return
	} else if taken != "" {
		response.Conflict(w, "organizer with this "+taken+" already exists")
		return
	}
	if email == nil {
		response.BadRequest(w, "organizer login must be an email")
		return
	}

	account, err := h.Accounts.CreateOrganizer(ctx, *email, phone, hash)
	if err != nil {
		response.InternalError(w)
		return
	}
	h.notifyCreated(ctx, domain.RoleOrganizer, account.ID, account.Login(), fullName, email, in.Password)
	response.JSON(w, http.StatusCreated, map[string]any{
		"id":        account.ID,
		"role":      domain.RoleOrganizer,
		"login":     account.Login(),
		"full_name": fullName,
	})
}

func (h *AdminHandler) loginTaken(
	ctx context.Context,
	emailExists, phoneExists func(context.Context, string) (bool, error),
	email, phone *string,
) (string, error) {
	if email != nil {
		exists, err := emailExists(ctx, *email)
		if err != nil {
			return "", err
		}
		if exists {
			return "email", nil
		}
	}
	if phone != nil {
		exists, err := phoneExists(ctx, *phone)
		if err != nil {
			return "", err
		}
		if exists {
			return "phone", nil
		}
	}
	return "", nil
}

// notifyCreated is best-effort: publishing and mail never fail the
// request that created the account.
func (h *AdminHandler) notifyCreated(ctx context.Context, role string, id int64, login, fullName string, email *string, password string) {
	if h.Bus != nil {
		err := h.Bus.Publish(ctx, events.AccountCreated, events.AccountCreatedEvent{
			AccountID: id,
			Role:      role,
			Login:     login,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to publish account.created", "error", err)
		}
	}
	if h.Mail != nil && email != nil {
		go func(to, name, login, password string) {
			if err := h.Mail.SendCredentials(to, name, login, password); err != nil {
				logger.Warn("failed to send credentials email", "error", err, "to", to)
			}
		}(*email, fullName, login, password)
	}
}
