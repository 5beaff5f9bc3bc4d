package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/middleware"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/internal/platform/mailer"
	"github.com/itcons/afisha/internal/repo/postgres"
	"github.com/itcons/afisha/pkg/events"
	"github.com/itcons/afisha/pkg/logger"
)

// VerificationHandler runs the organizer verification workflow:
// organizers submit, admins review. The two route sets are mounted
// under their respective role guards.
type VerificationHandler struct {
	Accounts      postgres.AccountRepo
	Organizers    postgres.OrganizerRepo
	Verifications postgres.VerificationRepo
	Mail          mailer.Service
	Bus           events.Publisher
}

func NewVerificationHandler(
	accounts postgres.AccountRepo,
	organizers postgres.OrganizerRepo,
	verifications postgres.VerificationRepo,
	mail mailer.Service,
	bus events.Publisher,
) *VerificationHandler {
	return &VerificationHandler{
		Accounts:      accounts,
		Organizers:    organizers,
		Verifications: verifications,
		Mail:          mail,
		Bus:           bus,
	}
}

// RegisterOrganizer mounts under the organizer role guard.
func (h *VerificationHandler) RegisterOrganizer(r chi.Router) {
	r.Get("/verification", h.status)
	r.Post("/verification", h.submit)
}

// RegisterAdmin mounts under the admin role guard.
func (h *VerificationHandler) RegisterAdmin(r chi.Router) {
	r.Get("/verifications", h.listPending)
	r.Post("/verifications/{verificationID}/review", h.review)
}

func (h *VerificationHandler) status(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}
	v, err := h.Verifications.GetOrCreate(r.Context(), profile.ID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.JSON(w, http.StatusOK, v)
}

// submit moves the verification to submitted. Resubmission is allowed
// only after a rejection; a pending or approved state is a conflict.
func (h *VerificationHandler) submit(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}
	ctx := r.Context()
	v, err := h.Verifications.GetOrCreate(ctx, profile.ID)
	if err != nil {
		response.InternalError(w)
		return
	}
	if v.Pending() || v.Status == domain.VerificationApproved {
		response.Conflict(w, "verification already "+v.Status)
		return
	}

	now := time.Now().UTC()
	v.Status = domain.VerificationSubmitted
	v.SubmittedAt = &now
	v.ReviewedAt = nil
	v.RejectReason = nil
	v.ReviewedByAdminID = nil
	if err := h.Verifications.Update(ctx, v); err != nil {
		response.InternalError(w)
		return
	}

	if h.Bus != nil {
		err := h.Bus.Publish(ctx, events.VerificationSubmitted, events.VerificationSubmittedEvent{
			VerificationID: v.ID,
			OrganizerID:    v.ProfileID,
			SubmittedAt:    now,
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to publish verification submit", "error", err)
		}
	}
	response.JSON(w, http.StatusOK, v)
}

func (h *VerificationHandler) listPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Verifications.ListPending(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	if pending == nil {
		pending = []postgres.PendingVerification{}
	}
	response.JSON(w, http.StatusOK, map[string]any{"verifications": pending})
}

func (h *VerificationHandler) review(w http.ResponseWriter, r *http.Request) {
	verificationID, err := strconv.ParseInt(chi.URLParam(r, "verificationID"), 10, 64)
	if err != nil {
		response.NotFound(w, "verification not found")
		return
	}

	var in struct {
		Decision string `json:"decision"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if in.Decision != domain.VerificationApproved && in.Decision != domain.VerificationRejected {
		response.BadRequest(w, "decision must be 'approved' or 'rejected'")
		return
	}

	ctx := r.Context()
	v, err := h.Verifications.GetByID(ctx, verificationID)
	if err != nil {
		response.InternalError(w)
		return
	}
	if v == nil {
		response.NotFound(w, "verification not found")
		return
	}
	if !v.Pending() {
		response.Conflict(w, "verification is not awaiting review")
		return
	}

	claims := middleware.Claims(r)
	now := time.Now().UTC()
	v.Status = in.Decision
	v.ReviewedAt = &now
	v.ReviewedByAdminID = &claims.Sub
	v.RejectReason = nil
	if in.Decision == domain.VerificationRejected && in.Reason != "" {
		v.RejectReason = &in.Reason
	}
	if err := h.Verifications.Update(ctx, v); err != nil {
		response.InternalError(w)
		return
	}

	h.notifyReviewed(ctx, v)
	response.JSON(w, http.StatusOK, v)
}

func (h *VerificationHandler) notifyReviewed(ctx context.Context, v *domain.OrganizerVerification) {
	reason := ""
	if v.RejectReason != nil {
		reason = *v.RejectReason
	}
	if h.Bus != nil {
		err := h.Bus.Publish(ctx, events.VerificationReviewed, events.VerificationReviewedEvent{
			VerificationID: v.ID,
			OrganizerID:    v.ProfileID,
			Status:         v.Status,
			Reason:         reason,
			ReviewedAt:     *v.ReviewedAt,
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to publish verification review", "error", err)
		}
	}

	if h.Mail == nil {
		return
	}
	profile, err := h.Organizers.GetProfileByID(ctx, v.ProfileID)
	if err != nil || profile == nil {
		return
	}
	account, err := h.Accounts.FindOrganizerByID(ctx, profile.AccountID)
	if err != nil || account == nil || account.Email == "" {
		return
	}
	go func(email, name, status, reason string) {
		if err := h.Mail.SendVerificationResult(email, name, status, reason); err != nil {
			logger.Warn("failed to send verification result email", "error", err, "to", email)
		}
	}(account.Email, profile.DisplayName, v.Status, reason)
}
