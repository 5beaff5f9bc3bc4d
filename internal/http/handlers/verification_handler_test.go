package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/itcons/afisha/internal/domain"
)

func TestVerificationStatusStartsNotSubmitted(t *testing.T) {
	api := setupTestAPI(t)
	token := api.organizerToken(t, "org@example.com")

	status, body := api.doJSON(t, http.MethodGet, "/api/organizer/verification", token, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", status, body)
	}
	if body["status"] != domain.VerificationNotSubmitted {
		t.Fatalf("verification status = %v, want not_submitted", body["status"])
	}
	if body["submitted_at"] != nil {
		t.Fatalf("submitted_at = %v, want null", body["submitted_at"])
	}
}

func TestVerificationSubmitAndResubmitConflict(t *testing.T) {
	api := setupTestAPI(t)
	token := api.organizerToken(t, "org@example.com")

	status, body := api.doJSON(t, http.MethodPost, "/api/organizer/verification", token, nil)
	if status != http.StatusOK {
		t.Fatalf("submit status = %d, want 200 (%v)", status, body)
	}
	if body["status"] != domain.VerificationSubmitted {
		t.Fatalf("status = %v, want submitted", body["status"])
	}
	if body["submitted_at"] == nil {
		t.Fatal("submitted_at not set")
	}

	status, body = api.doJSON(t, http.MethodPost, "/api/organizer/verification", token, nil)
	if status != http.StatusConflict {
		t.Fatalf("resubmit status = %d, want 409", status)
	}
	if body["error"] != "verification already submitted" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestVerificationReviewFlow(t *testing.T) {
	api := setupTestAPI(t)
	orgToken := api.organizerToken(t, "org@example.com")
	admin := api.seedAdmin(t, "root@example.com")
	adminToken := api.token(t, domain.RoleAdmin, admin.ID, admin.Email)

	if status, _ := api.doJSON(t, http.MethodPost, "/api/organizer/verification", orgToken, nil); status != http.StatusOK {
		t.Fatalf("submit failed: %d", status)
	}

	status, body := api.doJSON(t, http.MethodGet, "/api/admin/verifications", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	pending := body["verifications"].([]interface{})
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	verifID := int64(pending[0].(map[string]interface{})["verification_id"].(float64))

	reviewPath := fmt.Sprintf("/api/admin/verifications/%d/review", verifID)
	status, body = api.doJSON(t, http.MethodPost, reviewPath, adminToken,
		map[string]string{"decision": "rejected", "reason": "документы не читаются"})
	if status != http.StatusOK {
		t.Fatalf("review status = %d (%v)", status, body)
	}
	if body["status"] != domain.VerificationRejected {
		t.Fatalf("status = %v, want rejected", body["status"])
	}
	if body["reject_reason"] != "документы не читаются" {
		t.Fatalf("reject_reason = %v", body["reject_reason"])
	}
	if int64(body["reviewed_by_admin_id"].(float64)) != admin.ID {
		t.Fatalf("reviewed_by_admin_id = %v", body["reviewed_by_admin_id"])
	}

	// Already reviewed: a second decision is a conflict.
	status, body = api.doJSON(t, http.MethodPost, reviewPath, adminToken,
		map[string]string{"decision": "approved"})
	if status != http.StatusConflict {
		t.Fatalf("second review status = %d, want 409", status)
	}
	if body["error"] != "verification is not awaiting review" {
		t.Fatalf("error = %v", body["error"])
	}

	// The organizer can resubmit after a rejection.
	status, body = api.doJSON(t, http.MethodPost, "/api/organizer/verification", orgToken, nil)
	if status != http.StatusOK {
		t.Fatalf("resubmit after rejection: status = %d", status)
	}
	if body["status"] != domain.VerificationSubmitted || body["reject_reason"] != nil {
		t.Fatalf("resubmit payload = %v", body)
	}
}

func TestVerificationReviewValidatesDecision(t *testing.T) {
	api := setupTestAPI(t)
	orgToken := api.organizerToken(t, "org@example.com")
	admin := api.seedAdmin(t, "root@example.com")
	adminToken := api.token(t, domain.RoleAdmin, admin.ID, admin.Email)

	if status, _ := api.doJSON(t, http.MethodPost, "/api/organizer/verification", orgToken, nil); status != http.StatusOK {
		t.Fatal("submit failed")
	}

	status, body := api.doJSON(t, http.MethodPost, "/api/admin/verifications/1/review", adminToken,
		map[string]string{"decision": "maybe"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body["error"] != "decision must be 'approved' or 'rejected'" {
		t.Fatalf("error = %v", body["error"])
	}

	status, _ = api.doJSON(t, http.MethodPost, "/api/admin/verifications/999/review", adminToken,
		map[string]string{"decision": "approved"})
	if status != http.StatusNotFound {
		t.Fatalf("missing verification: status = %d, want 404", status)
	}
}

func TestVerificationApprovedBlocksResubmit(t *testing.T) {
	api := setupTestAPI(t)
	orgToken := api.organizerToken(t, "org@example.com")
	admin := api.seedAdmin(t, "root@example.com")
	adminToken := api.token(t, domain.RoleAdmin, admin.ID, admin.Email)

	if status, _ := api.doJSON(t, http.MethodPost, "/api/organizer/verification", orgToken, nil); status != http.StatusOK {
		t.Fatal("submit failed")
	}
	status, _ := api.doJSON(t, http.MethodPost, "/api/admin/verifications/1/review", adminToken,
		map[string]string{"decision": "approved"})
	if status != http.StatusOK {
		t.Fatalf("approve status = %d", status)
	}

	status, body := api.doJSON(t, http.MethodPost, "/api/organizer/verification", orgToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("resubmit after approval: status = %d, want 409", status)
	}
	if body["error"] != "verification already approved" {
		t.Fatalf("error = %v", body["error"])
	}
}
