// Package handlers contains the HTTP endpoints. Each handler owns a
// chi subrouter and talks to storage through the repo interfaces, so
// tests swap in mocks without a database.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/middleware"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/internal/repo/postgres"
)

// requestOrigin rebuilds the scheme://host this request arrived on, for
// resolving relative media URLs into absolute ones.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// resolveOrganizerProfile loads the profile behind an organizer token,
// creating it on first touch. A token whose account no longer exists
// yields a 404, written by this helper.
func resolveOrganizerProfile(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	accounts postgres.AccountRepo,
	organizers postgres.OrganizerRepo,
) (*domain.OrganizerProfile, bool) {
	claims := middleware.Claims(r)
	account, err := accounts.FindOrganizerByID(ctx, claims.Sub)
	if err != nil {
		response.InternalError(w)
		return nil, false
	}
	if account == nil {
		response.NotFound(w, "organizer account not found")
		return nil, false
	}

	defaultName := account.Login()
	if defaultName == "" {
		defaultName = fmt.Sprintf("Организатор %d", account.ID)
	}
	profile, err := organizers.GetOrCreateProfile(ctx, account.ID, defaultName)
	if err != nil {
		response.InternalError(w)
		return nil, false
	}
	return profile, true
}
