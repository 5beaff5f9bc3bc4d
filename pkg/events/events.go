package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/itcons/afisha/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	n.conn.Close()
	return nil
}

// Noop stands in when no NATS_URL is configured; publishing is best-effort
// anyway, nothing downstream is required for request handling.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                       { return nil }

// Subjects.
const (
	AccountCreated        = "account.created"
	EventCreated          = "catalog.event.created"
	EventUpdated          = "catalog.event.updated"
	EventImagesUpdated    = "catalog.event.images.updated"
	VerificationSubmitted = "organizer.verification.submitted"
	VerificationReviewed  = "organizer.verification.reviewed"
)

type AccountCreatedEvent struct {
	AccountID int64     `json:"account_id"`
	Role      string    `json:"role"`
	Login     string    `json:"login"`
	CreatedAt time.Time `json:"created_at"`
}

type EventChangedEvent struct {
	EventID     int64     `json:"event_id"`
	OrganizerID int64     `json:"organizer_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	ChangedAt   time.Time `json:"changed_at"`
}

type EventImagesUpdatedEvent struct {
	EventID      int64     `json:"event_id"`
	GalleryCount int       `json:"gallery_count"`
	HasCover     bool      `json:"has_cover"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type VerificationSubmittedEvent struct {
	VerificationID int64     `json:"verification_id"`
	OrganizerID    int64     `json:"organizer_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type VerificationReviewedEvent struct {
	VerificationID int64     `json:"verification_id"`
	OrganizerID    int64     `json:"organizer_id"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	ReviewedAt     time.Time `json:"reviewed_at"`
}
