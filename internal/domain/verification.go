package domain

import "time"

const (
	VerificationNotSubmitted = "not_submitted"
	VerificationSubmitted    = "submitted"
	VerificationInReview     = "in_review"
	VerificationApproved     = "approved"
	VerificationRejected     = "rejected"
)

type OrganizerVerification struct {
	ID                int64      `json:"verification_id"`
	ProfileID         int64      `json:"organizer_id"`
	Status            string     `json:"status"`
	SubmittedAt       *time.Time `json:"submitted_at"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	RejectReason      *string    `json:"reject_reason"`
	ReviewedByAdminID *int64     `json:"reviewed_by_admin_id"`
}

// Pending reports whether the verification is waiting on an admin.
func (v *OrganizerVerification) Pending() bool {
	return v.Status == VerificationSubmitted || v.Status == VerificationInReview
}
