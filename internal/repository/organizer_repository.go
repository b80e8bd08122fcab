package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-booking/internal/model"
)

// OrganizerRepo provides CRUD operations for organizers. Organizers are the
// owning side of locations and events; they never hold reservations.
type OrganizerRepo struct{ DB *sql.DB }

// NewOrganizerRepo returns an OrganizerRepo bound to the given database.
func NewOrganizerRepo(db *sql.DB) *OrganizerRepo { return &OrganizerRepo{DB: db} }

// Create inserts a new organizer and returns its ID. The email is
// normalized to lowercase; a duplicate email yields ErrEmailExists.
func (r *OrganizerRepo) Create(ctx context.Context, o *model.Organizer) (uint64, error) {
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	res, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO organizers (firstname, lastname, email, phone, password_hash) VALUES (?,?,?,?,?)",
		o.FirstName, o.LastName, o.Email, o.Phone, o.PasswordHash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	o.ID = uint64(id)
	return o.ID, nil
}

const organizerCols = "id, firstname, lastname, email, phone, password_hash, created_at, updated_at"

func scanOrganizer(row *sql.Row) (model.Organizer, error) {
	var o model.Organizer
	err := row.Scan(&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.Phone,
		&o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Organizer{}, ErrOrganizerNotFound
	}
	return o, err
}

// GetByEmail fetches an organizer by normalized email.
func (r *OrganizerRepo) GetByEmail(ctx context.Context, email string) (model.Organizer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanOrganizer(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+organizerCols+" FROM organizers WHERE email=? LIMIT 1", email))
}

// GetByID fetches an organizer by primary key.
func (r *OrganizerRepo) GetByID(ctx context.Context, id uint64) (model.Organizer, error) {
	return scanOrganizer(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+organizerCols+" FROM organizers WHERE id=? LIMIT 1", id))
}

// Update persists the mutable profile fields of an organizer.
func (r *OrganizerRepo) Update(ctx context.Context, o *model.Organizer) error {
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	_, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"UPDATE organizers SET firstname=?, lastname=?, email=?, phone=?, password_hash=? WHERE id=?",
		o.FirstName, o.LastName, o.Email, o.Phone, o.PasswordHash, o.ID)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// List returns one page of organizers ordered by id. hasNext reports whether
// another page follows.
func (r *OrganizerRepo) List(ctx context.Context, page, perPage int) ([]model.Organizer, bool, error) {
	offset := (page - 1) * perPage
	rows, err := dbtx(ctx, r.DB).QueryContext(ctx,
		"SELECT "+organizerCols+" FROM organizers ORDER BY id LIMIT ? OFFSET ?",
		perPage+1, offset)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []model.Organizer
	for rows.Next() {
		var o model.Organizer
		if err := rows.Scan(&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.Phone,
			&o.PasswordHash, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, false, err
		}
		out = append(out, o)
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
