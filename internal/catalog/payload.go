package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// IntOrNull tolerates the looseness of frontend payloads: JSON numbers,
// numeric strings, "" and null all decode without failing the request.
type IntOrNull struct {
	Int *int
}

func (n *IntOrNull) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		n.Int = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			n.Int = nil
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			n.Int = nil
			return nil
		}
		n.Int = &v
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		n.Int = nil
		return nil
	}
	n.Int = &v
	return nil
}

func (n IntOrNull) MarshalJSON() ([]byte, error) {
	if n.Int == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Int)
}

// SessionPayload is one submitted session: a date plus wall-clock times
// in the server's local timezone.
type SessionPayload struct {
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Capacity  IntOrNull `json:"capacity"`
}

// TicketTypePayload is a ticket template; it is replicated onto every
// session of the same request.
type TicketTypePayload struct {
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Currency string           `json:"currency"`
	QtyTotal IntOrNull        `json:"qty_total"`
}

type SessionInput struct {
	StartsAt time.Time
	EndsAt   *time.Time
	Capacity *int
}

type TicketInput struct {
	Name     string
	Price    decimal.Decimal
	Currency string
	QtyTotal *int
}

// ParseSessions normalizes the submitted sessions. Entries missing a date
// or start time, or with unparseable values, are dropped silently rather
// than failing the whole request. When nothing parses and a bare
// starts_at was sent, a single session is built from it.
func ParseSessions(raw []SessionPayload, fallbackStartsAt string, loc *time.Location) []SessionInput {
	if loc == nil {
		loc = time.Local
	}
	var normalized []SessionInput
	for _, s := range raw {
		if s.Date == "" || s.StartTime == "" {
			continue
		}
		starts, err := parseLocalDateTime(s.Date, s.StartTime, loc)
		if err != nil {
			continue
		}
		in := SessionInput{StartsAt: starts, Capacity: s.Capacity.Int}
		if s.EndTime != "" {
			ends, err := parseLocalDateTime(s.Date, s.EndTime, loc)
			if err != nil {
				continue
			}
			in.EndsAt = &ends
		}
		normalized = append(normalized, in)
	}
	if len(normalized) == 0 && fallbackStartsAt != "" {
		if starts, err := parseFlexibleTimestamp(fallbackStartsAt, loc); err == nil {
			normalized = append(normalized, SessionInput{StartsAt: starts})
		}
	}
	return normalized
}

// ParseTicketTypes drops templates without a name or price and defaults
// the currency to RUB.
func ParseTicketTypes(raw []TicketTypePayload) []TicketInput {
	var out []TicketInput
	for _, t := range raw {
		if t.Name == "" || t.Price == nil {
			continue
		}
		currency := t.Currency
		if currency == "" {
			currency = "RUB"
		}
		out = append(out, TicketInput{
			Name:     t.Name,
			Price:    *t.Price,
			Currency: currency,
			QtyTotal: t.QtyTotal.Int,
		})
	}
	return out
}

func parseLocalDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	var lastErr error
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		t, err := time.ParseInLocation(layout, date+"T"+clock, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseFlexibleTimestamp accepts full RFC 3339 timestamps as well as
// naive local ones without a zone offset.
func parseFlexibleTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	var lastErr error
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
