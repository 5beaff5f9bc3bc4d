package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/itcons/afisha/internal/catalog"
	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/internal/repo/postgres"
	"github.com/itcons/afisha/internal/storage"
	"github.com/itcons/afisha/pkg/events"
	"github.com/itcons/afisha/pkg/logger"
)

// EventsHandler is the organizer's own event CRUD. Every read and write
// is scoped to the profile resolved from the token; other organizers'
// event ids are indistinguishable from missing ones.
type EventsHandler struct {
	Accounts   postgres.AccountRepo
	Organizers postgres.OrganizerRepo
	Catalog    postgres.CatalogRepo
	Events     postgres.EventRepo
	Store      *storage.MediaStore
	Bus        events.Publisher
}

func NewEventsHandler(
	accounts postgres.AccountRepo,
	organizers postgres.OrganizerRepo,
	cat postgres.CatalogRepo,
	evts postgres.EventRepo,
	store *storage.MediaStore,
	bus events.Publisher,
) *EventsHandler {
	return &EventsHandler{
		Accounts:   accounts,
		Organizers: organizers,
		Catalog:    cat,
		Events:     evts,
		Store:      store,
		Bus:        bus,
	}
}

// Register mounts under the organizer role guard.
func (h *EventsHandler) Register(r chi.Router) {
	r.Get("/events", h.list)
	r.Post("/events", h.create)
	r.Get("/events/{eventID}", h.get)
	r.Put("/events/{eventID}", h.update)
}

type eventBody struct {
	Title        string                      `json:"title"`
	Description  string                      `json:"description"`
	Status       string                      `json:"status"`
	CategoryName string                      `json:"category_name"`
	VenueName    string                      `json:"venue_name"`
	VenueCity    string                      `json:"venue_city"`
	VenueAddress string                      `json:"venue_address"`
	AgeMin       catalog.IntOrNull           `json:"age_min"`
	AgeMax       catalog.IntOrNull           `json:"age_max"`
	StartsAt     string                      `json:"starts_at"`
	Sessions     []catalog.SessionPayload    `json:"sessions"`
	TicketTypes  []catalog.TicketTypePayload `json:"ticket_types"`
}

func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}
	list, err := h.Events.ListByOrganizer(r.Context(), profile.ID)
	if err != nil {
		response.InternalError(w)
		return
	}
	origin := requestOrigin(r)
	cards := make([]catalog.OwnerCard, 0, len(list))
	for _, e := range list {
		cards = append(cards, catalog.BuildOwnerCard(e, origin))
	}
	response.JSON(w, http.StatusOK, map[string]any{"events": cards})
}

func (h *EventsHandler) get(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}
	event, ok := h.ownedEvent(w, r, profile.ID)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, h.detailPayload(event, requestOrigin(r)))
}

func (h *EventsHandler) create(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}
	h.upsert(w, r, profile, nil)
}

func (h *EventsHandler) update(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}
	event, ok := h.ownedEvent(w, r, profile.ID)
	if !ok {
		return
	}
	h.upsert(w, r, profile, event)
}

// upsert is the shared create/update path. Sessions are always a full
// replace: the submitted set (plus the ticket templates attached to each
// new session) overwrites whatever existed, and an empty set clears the
// schedule.
func (h *EventsHandler) upsert(w http.ResponseWriter, r *http.Request, profile *domain.OrganizerProfile, existing *domain.Event) {
	var in eventBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		response.BadRequest(w, "title is required")
		return
	}
	ctx := r.Context()

	categoryName := strings.TrimSpace(in.CategoryName)
	if categoryName == "" {
		categoryName = "Без категории"
	}
	venueCity := strings.TrimSpace(in.VenueCity)
	if venueCity == "" {
		venueCity = "Не указан"
	}
	venueAddress := strings.TrimSpace(in.VenueAddress)
	if venueAddress == "" {
		venueAddress = "Не указан"
	}
	venueName := strings.TrimSpace(in.VenueName)
	if venueName == "" {
		venueName = venueCity + ", " + venueAddress
	}

	category, err := h.Catalog.GetOrCreateCategory(ctx, categoryName)
	if err != nil {
		response.InternalError(w)
		return
	}
	venue, err := h.Catalog.GetOrCreateVenue(ctx, venueName, venueCity, venueAddress)
	if err != nil {
		response.InternalError(w)
		return
	}

	event := existing
	if event == nil {
		event = &domain.Event{OrganizerID: profile.ID}
	}
	event.CategoryID = category.ID
	event.VenueID = venue.ID
	event.Title = title
	event.Description = nil
	if desc := strings.TrimSpace(in.Description); desc != "" {
		event.Description = &desc
	}
	event.Status = domain.NormalizeEventStatus(strings.TrimSpace(in.Status))
	event.AgeMin = in.AgeMin.Int
	event.AgeMax = in.AgeMax.Int

	isUpdate := existing != nil
	if isUpdate {
		err = h.Events.Update(ctx, event)
	} else {
		err = h.Events.Insert(ctx, event)
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	sessions := catalog.ParseSessions(in.Sessions, strings.TrimSpace(in.StartsAt), time.Local)
	tickets := catalog.ParseTicketTypes(in.TicketTypes)
	if err := h.Events.ReplaceSessions(ctx, event.ID, sessions, tickets); err != nil {
		response.InternalError(w)
		return
	}

	h.publishChange(ctx, event, isUpdate)

	fresh, err := h.Events.GetOwned(ctx, event.ID, profile.ID)
	if err != nil || fresh == nil {
		response.InternalError(w)
		return
	}
	status := http.StatusCreated
	if isUpdate {
		status = http.StatusOK
	}
	response.JSON(w, status, h.detailPayload(fresh, requestOrigin(r)))
}

func (h *EventsHandler) ownedEvent(w http.ResponseWriter, r *http.Request, profileID int64) (*domain.Event, bool) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		response.NotFound(w, "event not found")
		return nil, false
	}
	event, err := h.Events.GetOwned(r.Context(), eventID, profileID)
	if err != nil {
		response.InternalError(w)
		return nil, false
	}
	if event == nil {
		response.NotFound(w, "event not found")
		return nil, false
	}
	return event, true
}

func (h *EventsHandler) publishChange(ctx context.Context, e *domain.Event, isUpdate bool) {
	if h.Bus == nil {
		return
	}
	subject := events.EventCreated
	if isUpdate {
		subject = events.EventUpdated
	}
	err := h.Bus.Publish(ctx, subject, events.EventChangedEvent{
		EventID:     e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Status:      string(e.Status),
		ChangedAt:   time.Now().UTC(),
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to publish event change", "error", err, "subject", subject)
	}
}

// detailPayload is the full organizer-facing document: sessions ordered
// by start with their ticket types, plus the gallery. The cover is a
// column on the event, not a gallery entry.
func (h *EventsHandler) detailPayload(e *domain.Event, origin string) map[string]any {
	return eventDetailPayload(e, origin, h.Store)
}

func eventDetailPayload(e *domain.Event, origin string, store *storage.MediaStore) map[string]any {
	sessions := make([]map[string]any, 0, len(e.Sessions))
	for _, s := range e.Sessions {
		tickets := make([]map[string]any, 0, len(s.TicketTypes))
		for _, tt := range s.TicketTypes {
			tickets = append(tickets, map[string]any{
				"ticket_type_id": tt.ID,
				"name":           tt.Name,
				"price":          catalog.DecimalString(tt.Price),
				"currency":       tt.Currency,
				"qty_total":      tt.QtyTotal,
			})
		}
		session := map[string]any{
			"session_id":   s.ID,
			"starts_at":    s.StartsAt.Format(time.RFC3339),
			"ends_at":      nil,
			"capacity":     s.Capacity,
			"ticket_types": tickets,
		}
		if s.EndsAt != nil {
			session["ends_at"] = s.EndsAt.Format(time.RFC3339)
		}
		sessions = append(sessions, session)
	}

	images := make([]map[string]any, 0, len(e.Images))
	for _, img := range e.Images {
		url := store.URL(img.Path)
		images = append(images, map[string]any{
			"image_id":   img.ID,
			"url":        catalog.ResolveMediaURL(&url, origin),
			"sort_order": img.SortOrder,
		})
	}

	description := ""
	if e.Description != nil {
		description = *e.Description
	}

	return map[string]any{
		"event_id":        e.ID,
		"title":           e.Title,
		"status":          string(e.Status),
		"description":     description,
		"age_min":         e.AgeMin,
		"age_max":         e.AgeMax,
		"category_name":   e.CategoryName,
		"venue_name":      e.VenueName,
		"venue_city":      e.VenueCity,
		"venue_address":   e.VenueAddress,
		"cover_image_url": catalog.ResolveMediaURL(e.CoverImageURL, origin),
		"sessions":        sessions,
		"images":          images,
	}
}
