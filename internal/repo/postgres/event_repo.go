package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/itcons/afisha/internal/catalog"
	"github.com/itcons/afisha/internal/domain"
)

type EventRepo interface {
	ListPublic(ctx context.Context) ([]*domain.Event, error)
	ListByOrganizer(ctx context.Context, profileID int64) ([]*domain.Event, error)
	GetOwned(ctx context.Context, eventID, profileID int64) (*domain.Event, error)
	Insert(ctx context.Context, e *domain.Event) error
	Update(ctx context.Context, e *domain.Event) error
	// ReplaceSessions deletes every existing session of the event (ticket
	// types go with them) and recreates the submitted set, attaching each
	// ticket template to each new session. Not transactional: a crash in
	// the middle can leave the event without sessions, which matches the
	// update model this API promises (full replace, last write wins).
	ReplaceSessions(ctx context.Context, eventID int64, sessions []catalog.SessionInput, tickets []catalog.TicketInput) error
	SetCoverURL(ctx context.Context, eventID int64, url *string) error
}

type EventRepoImpl struct{ pool *pgxpool.Pool }

func NewEventRepo(pool *pgxpool.Pool) *EventRepoImpl { return &EventRepoImpl{pool: pool} }

const eventSelect = `SELECT e.event_id, e.organizer_id, e.category_id, e.venue_id,
e.title, e.description, e.age_min, e.age_max, e.cover_image_url, e.status,
c.name, v.name, v.city, v.address
FROM event e
JOIN category c ON c.category_id = e.category_id
JOIN venue v ON v.venue_id = e.venue_id`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.CategoryID, &e.VenueID,
		&e.Title, &e.Description, &e.AgeMin, &e.AgeMax, &e.CoverImageURL, &e.Status,
		&e.CategoryName, &e.VenueName, &e.VenueCity, &e.VenueAddress,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepoImpl) ListPublic(ctx context.Context) ([]*domain.Event, error) {
	events, err := r.list(ctx, eventSelect+` ORDER BY e.event_id`)
	if err != nil {
		return nil, err
	}
	if err := r.attachSessions(ctx, events, true); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepoImpl) ListByOrganizer(ctx context.Context, profileID int64) ([]*domain.Event, error) {
	events, err := r.list(ctx, eventSelect+` WHERE e.organizer_id=$1 ORDER BY e.event_id DESC`, profileID)
	if err != nil {
		return nil, err
	}
	if err := r.attachSessions(ctx, events, false); err != nil {
		return nil, err
	}
	return events, nil
}

// GetOwned scopes the lookup to the owning organizer; someone else's
// event id behaves exactly like a missing one.
func (r *EventRepoImpl) GetOwned(ctx context.Context, eventID, profileID int64) (*domain.Event, error) {
	qctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	e, err := scanEvent(r.pool.QueryRow(qctx, eventSelect+` WHERE e.event_id=$1 AND e.organizer_id=$2`, eventID, profileID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	events := []*domain.Event{e}
	if err := r.attachSessions(ctx, events, true); err != nil {
		return nil, err
	}
	if err := r.attachGallery(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EventRepoImpl) Insert(ctx context.Context, e *domain.Event) error {
	const q = `INSERT INTO event (organizer_id, category_id, venue_id, title, description, age_min, age_max, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING event_id`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.pool.QueryRow(ctx, q,
		e.OrganizerID, e.CategoryID, e.VenueID, e.Title, e.Description, e.AgeMin, e.AgeMax, e.Status,
	).Scan(&e.ID)
}

func (r *EventRepoImpl) Update(ctx context.Context, e *domain.Event) error {
	const q = `UPDATE event SET
category_id=$2, venue_id=$3, title=$4, description=$5, age_min=$6, age_max=$7, status=$8
WHERE event_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, e.ID, e.CategoryID, e.VenueID, e.Title, e.Description, e.AgeMin, e.AgeMax, e.Status)
	return err
}

func (r *EventRepoImpl) ReplaceSessions(ctx context.Context, eventID int64, sessions []catalog.SessionInput, tickets []catalog.TicketInput) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `DELETE FROM event_session WHERE event_id=$1`, eventID); err != nil {
		return err
	}

	for _, s := range sessions {
		var sessionID int64
		err := r.pool.QueryRow(ctx,
			`INSERT INTO event_session (event_id, starts_at, ends_at, capacity) VALUES ($1,$2,$3,$4) RETURNING session_id`,
			eventID, s.StartsAt, s.EndsAt, s.Capacity,
		).Scan(&sessionID)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			_, err := r.pool.Exec(ctx,
				`INSERT INTO ticket_type (session_id, name, price, currency, qty_total) VALUES ($1,$2,$3::numeric,$4,$5)`,
				sessionID, t.Name, t.Price.String(), t.Currency, t.QtyTotal,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *EventRepoImpl) SetCoverURL(ctx context.Context, eventID int64, url *string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, `UPDATE event SET cover_image_url=$2 WHERE event_id=$1`, eventID, url)
	return err
}

func (r *EventRepoImpl) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventRepoImpl) attachSessions(ctx context.Context, events []*domain.Event, withTickets bool) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Event, len(events))
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.pool.Query(qctx,
		`SELECT session_id, event_id, starts_at, ends_at, capacity
FROM event_session WHERE event_id = ANY($1) ORDER BY starts_at, session_id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	sessionOwner := make(map[int64]*domain.Event)
	var sessionIDs []int64
	for rows.Next() {
		var s domain.EventSession
		if err := rows.Scan(&s.ID, &s.EventID, &s.StartsAt, &s.EndsAt, &s.Capacity); err != nil {
			return err
		}
		e := byID[s.EventID]
		e.Sessions = append(e.Sessions, s)
		sessionOwner[s.ID] = e
		sessionIDs = append(sessionIDs, s.ID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !withTickets || len(sessionIDs) == 0 {
		return nil
	}

	trows, err := r.pool.Query(qctx,
		`SELECT ticket_type_id, session_id, name, price::text, currency, qty_total
FROM ticket_type WHERE session_id = ANY($1) ORDER BY ticket_type_id`, sessionIDs)
	if err != nil {
		return err
	}
	defer trows.Close()

	for trows.Next() {
		var tt domain.TicketType
		var price string
		if err := trows.Scan(&tt.ID, &tt.SessionID, &tt.Name, &price, &tt.Currency, &tt.QtyTotal); err != nil {
			return err
		}
		tt.Price, err = decimal.NewFromString(price)
		if err != nil {
			return err
		}
		e := sessionOwner[tt.SessionID]
		for i := range e.Sessions {
			if e.Sessions[i].ID == tt.SessionID {
				e.Sessions[i].TicketTypes = append(e.Sessions[i].TicketTypes, tt)
				break
			}
		}
	}
	return trows.Err()
}

func (r *EventRepoImpl) attachGallery(ctx context.Context, e *domain.Event) error {
	const q = `SELECT image_id, event_id, path, sort_order
FROM event_image WHERE event_id=$1 AND sort_order > 0 ORDER BY sort_order, image_id`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, e.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var img domain.EventImage
		if err := rows.Scan(&img.ID, &img.EventID, &img.Path, &img.SortOrder); err != nil {
			return err
		}
		e.Images = append(e.Images, img)
	}
	return rows.Err()
}
