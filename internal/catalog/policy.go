// Package catalog holds the publication policy and payload normalization
// for events: which events the public listing shows, which session is
// displayed first, and what the cheapest remaining ticket costs.
package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/itcons/afisha/internal/domain"
)

// PublicCard is one entry of the public listing.
type PublicCard struct {
	EventID       int64      `json:"event_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Category      *string    `json:"category"`
	VenueName     *string    `json:"venue_name"`
	VenueCity     *string    `json:"venue_city"`
	VenueAddress  *string    `json:"venue_address"`
	StartsAt      *time.Time `json:"starts_at"`
	CoverImageURL *string    `json:"cover_image_url"`
	MinPrice      *string    `json:"min_price"`
}

// OwnerCard is one entry of the organizer's own listing. Unlike the
// public card it is not filtered by temporal state and shows the first
// session overall, past or not.
type OwnerCard struct {
	EventID       int64      `json:"event_id"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	Description   string     `json:"description"`
	Category      *string    `json:"category"`
	VenueName     *string    `json:"venue_name"`
	VenueCity     *string    `json:"venue_city"`
	VenueAddress  *string    `json:"venue_address"`
	CoverImageURL *string    `json:"cover_image_url"`
	StartsAt      *time.Time `json:"starts_at"`
	SessionsCount int        `json:"sessions_count"`
}

// FutureSessions returns the sessions starting at or after now, ordered
// by start time.
func FutureSessions(sessions []domain.EventSession, now time.Time) []domain.EventSession {
	var future []domain.EventSession
	for _, s := range sessions {
		if !s.StartsAt.Before(now) {
			future = append(future, s)
		}
	}
	sort.Slice(future, func(i, j int) bool { return future[i].StartsAt.Before(future[j].StartsAt) })
	return future
}

// MinFuturePrice returns the cheapest ticket across the given sessions,
// or nil when no session has a ticket type. Comparison is exact decimal,
// no float rounding.
func MinFuturePrice(sessions []domain.EventSession) *decimal.Decimal {
	var min *decimal.Decimal
	for _, s := range sessions {
		for _, tt := range s.TicketTypes {
			price := tt.Price
			if min == nil || price.LessThan(*min) {
				p := price
				min = &p
			}
		}
	}
	return min
}

// BuildPublicCard evaluates a single event against the visibility rule.
// The second return value is false when the event must be hidden: it has
// sessions and every one of them is in the past. An event with no
// sessions at all is always shown, with no start date.
//
// Status is deliberately not consulted: only temporal exhaustion hides
// an event from the public listing.
func BuildPublicCard(e *domain.Event, now time.Time, origin string) (*PublicCard, bool) {
	future := FutureSessions(e.Sessions, now)
	if len(e.Sessions) > 0 && len(future) == 0 {
		return nil, false
	}

	card := &PublicCard{
		EventID:       e.ID,
		Title:         e.Title,
		Description:   stringOrEmpty(e.Description),
		Status:        string(e.Status),
		Category:      nonEmpty(e.CategoryName),
		VenueName:     nonEmpty(e.VenueName),
		VenueCity:     nonEmpty(e.VenueCity),
		VenueAddress:  nonEmpty(e.VenueAddress),
		CoverImageURL: ResolveMediaURL(e.CoverImageURL, origin),
	}
	if len(future) > 0 {
		starts := future[0].StartsAt
		card.StartsAt = &starts
	}
	if min := MinFuturePrice(future); min != nil {
		s := DecimalString(*min)
		card.MinPrice = &s
	}
	return card, true
}

// DecimalString renders a price with the scale it carries, so 5.50 stays
// "5.50" instead of collapsing to "5.5". Decimal.String trims trailing
// zeros.
func DecimalString(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}
	return d.String()
}

// BuildOwnerCard builds the organizer-facing card for one of their own
// events. All events are shown regardless of session timing.
func BuildOwnerCard(e *domain.Event, origin string) OwnerCard {
	sessions := append([]domain.EventSession(nil), e.Sessions...)
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartsAt.Before(sessions[j].StartsAt) })

	card := OwnerCard{
		EventID:       e.ID,
		Title:         e.Title,
		Status:        string(e.Status),
		Description:   stringOrEmpty(e.Description),
		Category:      nonEmpty(e.CategoryName),
		VenueName:     nonEmpty(e.VenueName),
		VenueCity:     nonEmpty(e.VenueCity),
		VenueAddress:  nonEmpty(e.VenueAddress),
		CoverImageURL: ResolveMediaURL(e.CoverImageURL, origin),
		SessionsCount: len(sessions),
	}
	if len(sessions) > 0 {
		starts := sessions[0].StartsAt
		card.StartsAt = &starts
	}
	return card
}

// ResolveMediaURL leaves absolute URLs alone and resolves relative ones
// against the request origin.
func ResolveMediaURL(raw *string, origin string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	u := *raw
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return &u
	}
	resolved := strings.TrimSuffix(origin, "/") + "/" + strings.TrimPrefix(u, "/")
	return &resolved
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
