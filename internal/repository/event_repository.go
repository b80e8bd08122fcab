package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-booking/internal/model"
)

// EventRepo provides CRUD operations for events. All timestamp fields are
// assumed to be stored in UTC. Deleting an event cascades to its
// reservations inside one transaction.
type EventRepo struct{ DB *sql.DB }

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventCols = "id, title, description, category, starts_at, ends_at, type, capacity, img, owner_id, location_id, created_at, updated_at"

// Create inserts a new event. A duplicate title yields ErrConflict.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) (uint64, error) {
	e.Title = strings.TrimSpace(e.Title)
	res, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO events (title, description, category, starts_at, ends_at, type, capacity, img, owner_id, location_id) VALUES (?,?,?,?,?,?,?,?,?,?)",
		e.Title, e.Description, e.Category, e.StartsAt, e.EndsAt, string(e.Type),
		e.Capacity, e.Img, e.OwnerID, e.LocationID)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	e.ID = uint64(id)
	return e.ID, nil
}

func scanEvent(row *sql.Row) (model.Event, error) {
	var e model.Event
	var typ string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.StartsAt, &e.EndsAt,
		&typ, &e.Capacity, &e.Img, &e.OwnerID, &e.LocationID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	e.Type = model.EventType(typ)
	return e, err
}

// GetByID fetches an event by primary key.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	return scanEvent(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+eventCols+" FROM events WHERE id=? LIMIT 1", id))
}

// GetByIDForUpdate fetches an event by primary key and locks its row for the
// duration of the surrounding transaction. Admission operations take this
// lock before counting reservations so that concurrent count-then-insert
// sequences against the same event serialize instead of racing.
func (r *EventRepo) GetByIDForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	return scanEvent(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+eventCols+" FROM events WHERE id=? LIMIT 1 FOR UPDATE", id))
}

// GetByTitle fetches an event by its unique title.
func (r *EventRepo) GetByTitle(ctx context.Context, title string) (model.Event, error) {
	return scanEvent(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+eventCols+" FROM events WHERE title=? LIMIT 1", strings.TrimSpace(title)))
}

// Update persists the mutable fields of an event.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	_, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"UPDATE events SET title=?, description=?, category=?, starts_at=?, ends_at=?, type=?, capacity=?, img=?, location_id=? WHERE id=?",
		e.Title, e.Description, e.Category, e.StartsAt, e.EndsAt, string(e.Type),
		e.Capacity, e.Img, e.LocationID, e.ID)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// DeleteByIDAndOwner removes an event owned by ownerID together with its
// reservations. Returns ErrEventNotFound when the id does not exist and
// ErrForbidden when the event belongs to another organizer.
func (r *EventRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	return withTx(ctx, r.DB, func(ctx context.Context) error {
		ev, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ev.OwnerID != ownerID {
			return ErrForbidden
		}
		q := dbtx(ctx, r.DB)
		if _, err := q.ExecContext(ctx, "DELETE FROM reservations WHERE event_id=?", id); err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
		return err
	})
}

// List returns one page of events ordered by id.
func (r *EventRepo) List(ctx context.Context, page, perPage int) ([]model.Event, bool, error) {
	return r.list(ctx,
		"SELECT "+eventCols+" FROM events ORDER BY id LIMIT ? OFFSET ?",
		perPage, perPage+1, (page-1)*perPage)
}

// ListPublicByOwner returns one page of an organizer's public events. Private
// events are never exposed through the browse surface.
func (r *EventRepo) ListPublicByOwner(ctx context.Context, ownerID uint64, page, perPage int) ([]model.Event, bool, error) {
	return r.list(ctx,
		"SELECT "+eventCols+" FROM events WHERE owner_id=? AND type='public' ORDER BY id LIMIT ? OFFSET ?",
		perPage, ownerID, perPage+1, (page-1)*perPage)
}

func (r *EventRepo) list(ctx context.Context, query string, perPage int, args ...any) ([]model.Event, bool, error) {
	rows, err := dbtx(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		var typ string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.StartsAt,
			&e.EndsAt, &typ, &e.Capacity, &e.Img, &e.OwnerID, &e.LocationID,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, false, err
		}
		e.Type = model.EventType(typ)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	hasNext := len(out) > perPage
	if hasNext {
		out = out[:perPage]
	}
	return out, hasNext, nil
}
