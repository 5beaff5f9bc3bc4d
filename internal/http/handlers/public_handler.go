package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itcons/afisha/internal/catalog"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/internal/repo/postgres"
)

// PublicHandler serves the unauthenticated catalog surface.
type PublicHandler struct {
	Events postgres.EventRepo

	// now is swapped out in tests to pin the visibility cutoff.
	now func() time.Time
}

func NewPublicHandler(events postgres.EventRepo) *PublicHandler {
	return &PublicHandler{Events: events, now: time.Now}
}

func (h *PublicHandler) Register(r chi.Router) {
	r.Get("/events", h.listEvents)
}

// listEvents returns every event that still has a future session (or no
// sessions at all), with its earliest upcoming date and cheapest
// remaining ticket. Fully past events are dropped from the payload.
func (h *PublicHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.ListPublic(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	now := h.now()
	origin := requestOrigin(r)
	cards := make([]*catalog.PublicCard, 0, len(events))
	for _, e := range events {
		card, visible := catalog.BuildPublicCard(e, now, origin)
		if !visible {
			continue
		}
		cards = append(cards, card)
	}
	response.JSON(w, http.StatusOK, map[string]any{"events": cards})
}

// Health is mounted at /health on the root router.
func Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
