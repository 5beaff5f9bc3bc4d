package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventDraft        EventStatus = "draft"
	EventOnModeration EventStatus = "on_moderation"
	EventPublished    EventStatus = "published"
	EventRejected     EventStatus = "rejected"
	EventArchived     EventStatus = "archived"
)

// NormalizeEventStatus maps anything unrecognized (including empty) to
// draft rather than rejecting the request.
func NormalizeEventStatus(raw string) EventStatus {
	switch EventStatus(raw) {
	case EventDraft, EventOnModeration, EventPublished, EventRejected, EventArchived:
		return EventStatus(raw)
	default:
		return EventDraft
	}
}

type Category struct {
	ID   int64  `json:"category_id"`
	Name string `json:"name"`
}

// Venue is identified by its (name, city, address) natural key when
// resolving event payloads; the surrogate id is never client-supplied.
type Venue struct {
	ID      int64  `json:"venue_id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type TicketType struct {
	ID        int64           `json:"ticket_type_id"`
	SessionID int64           `json:"-"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	QtyTotal  *int            `json:"qty_total"`
}

type EventSession struct {
	ID          int64        `json:"session_id"`
	EventID     int64        `json:"-"`
	StartsAt    time.Time    `json:"starts_at"`
	EndsAt      *time.Time   `json:"ends_at"`
	Capacity    *int         `json:"capacity"`
	TicketTypes []TicketType `json:"ticket_types"`
}

// EventImage sort_order 0 is the cover slot; gallery images start at 1.
// Gallery numbering grows monotonically and is not compacted after
// deletions.
type EventImage struct {
	ID        int64  `json:"image_id"`
	EventID   int64  `json:"-"`
	Path      string `json:"-"`
	SortOrder int    `json:"sort_order"`
}

type Event struct {
	ID            int64       `json:"event_id"`
	OrganizerID   int64       `json:"-"`
	CategoryID    int64       `json:"-"`
	VenueID       int64       `json:"-"`
	Title         string      `json:"title"`
	Description   *string     `json:"description"`
	AgeMin        *int        `json:"age_min"`
	AgeMax        *int        `json:"age_max"`
	CoverImageURL *string     `json:"cover_image_url"`
	Status        EventStatus `json:"status"`

	// Joined relations, populated by the repository. There is no lazy
	// loading anywhere: what was not fetched is simply absent.
	CategoryName string         `json:"-"`
	VenueName    string         `json:"-"`
	VenueCity    string         `json:"-"`
	VenueAddress string         `json:"-"`
	Sessions     []EventSession `json:"-"`
	Images       []EventImage   `json:"-"`
}
