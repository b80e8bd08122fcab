package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-booking/internal/model"
)

// LocationRepo provides CRUD operations for locations. Deleting a location
// cascades through its events down to their reservations; the whole cascade
// runs in one transaction so a partial failure leaves no orphans.
type LocationRepo struct{ DB *sql.DB }

// NewLocationRepo returns a LocationRepo bound to the given database.
func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{DB: db} }

const locationCols = "id, name, address, capacity, owner_id, created_at, updated_at"

// Create inserts a new location. A duplicate address yields ErrConflict.
func (r *LocationRepo) Create(ctx context.Context, l *model.Location) (uint64, error) {
	l.Address = strings.TrimSpace(l.Address)
	res, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO locations (name, address, capacity, owner_id) VALUES (?,?,?,?)",
		l.Name, l.Address, l.Capacity, l.OwnerID)
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
	l.ID = uint64(id)
	return l.ID, nil
}

func scanLocation(row *sql.Row) (model.Location, error) {
	var l model.Location
	err := row.Scan(&l.ID, &l.Name, &l.Address, &l.Capacity, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Location{}, ErrLocationNotFound
	}
	return l, err
}

// GetByID fetches a location by primary key.
func (r *LocationRepo) GetByID(ctx context.Context, id uint64) (model.Location, error) {
	return scanLocation(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+locationCols+" FROM locations WHERE id=? LIMIT 1", id))
}

// GetByIDAndOwner fetches a location only when it belongs to the given owner.
func (r *LocationRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (model.Location, error) {
	return scanLocation(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+locationCols+" FROM locations WHERE id=? AND owner_id=? LIMIT 1", id, ownerID))
}

// Update persists the mutable fields of a location.
func (r *LocationRepo) Update(ctx context.Context, l *model.Location) error {
	_, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"UPDATE locations SET name=?, address=?, capacity=? WHERE id=?",
		l.Name, l.Address, l.Capacity, l.ID)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// DeleteByIDAndOwner removes a location owned by ownerID together with its
// events and their reservations. Returns ErrLocationNotFound when the id
// does not exist and ErrForbidden when it belongs to another organizer.
func (r *LocationRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	return withTx(ctx, r.DB, func(ctx context.Context) error {
		loc, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if loc.OwnerID != ownerID {
			return ErrForbidden
		}
		q := dbtx(ctx, r.DB)
		if _, err := q.ExecContext(ctx,
			"DELETE FROM reservations WHERE event_id IN (SELECT id FROM events WHERE location_id=?)", id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM events WHERE location_id=?", id); err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, "DELETE FROM locations WHERE id=?", id)
		return err
	})
}

// List returns one page of locations ordered by id.
func (r *LocationRepo) List(ctx context.Context, page, perPage int) ([]model.Location, bool, error) {
	return r.list(ctx,
		"SELECT "+locationCols+" FROM locations ORDER BY id LIMIT ? OFFSET ?",
		perPage, perPage+1, (page-1)*perPage)
}

// ListByOwner returns one page of the owner's locations ordered by id.
func (r *LocationRepo) ListByOwner(ctx context.Context, ownerID uint64, page, perPage int) ([]model.Location, bool, error) {
	return r.list(ctx,
		"SELECT "+locationCols+" FROM locations WHERE owner_id=? ORDER BY id LIMIT ? OFFSET ?",
		perPage, ownerID, perPage+1, (page-1)*perPage)
}

func (r *LocationRepo) list(ctx context.Context, query string, perPage int, args ...any) ([]model.Location, bool, error) {
	rows, err := dbtx(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.Capacity, &l.OwnerID,
			&l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, false, err
		}
		out = append(out, l)
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
