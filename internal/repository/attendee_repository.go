package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-booking/internal/model"
)

// AttendeeRepo provides CRUD operations for attendees, including the
// pre-provisioned accounts created by private-event invitation batches.
type AttendeeRepo struct{ DB *sql.DB }

// NewAttendeeRepo returns an AttendeeRepo bound to the given database.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo { return &AttendeeRepo{DB: db} }

const attendeeCols = "id, firstname, lastname, email, phone, signup_code, password_hash, created_at, updated_at"

// Create inserts a fully registered attendee and returns its ID. A duplicate
// email yields ErrEmailExists.
func (r *AttendeeRepo) Create(ctx context.Context, a *model.Attendee) (uint64, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	res, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO attendees (firstname, lastname, email, phone, signup_code, password_hash) VALUES (?,?,?,?,?,?)",
		a.FirstName, a.LastName, a.Email, a.Phone, a.SignupCode, a.PasswordHash)
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
	a.ID = uint64(id)
	return a.ID, nil
}

func scanAttendee(row *sql.Row) (model.Attendee, error) {
	var a model.Attendee
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Phone,
		&a.SignupCode, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attendee{}, ErrAttendeeNotFound
	}
	return a, err
}

// GetByEmail fetches an attendee by normalized email.
func (r *AttendeeRepo) GetByEmail(ctx context.Context, email string) (model.Attendee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanAttendee(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+attendeeCols+" FROM attendees WHERE email=? LIMIT 1", email))
}

// GetByID fetches an attendee by primary key.
func (r *AttendeeRepo) GetByID(ctx context.Context, id uint64) (model.Attendee, error) {
	return scanAttendee(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+attendeeCols+" FROM attendees WHERE id=? LIMIT 1", id))
}

// Update persists the mutable fields of an attendee.
func (r *AttendeeRepo) Update(ctx context.Context, a *model.Attendee) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	_, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"UPDATE attendees SET firstname=?, lastname=?, email=?, phone=?, signup_code=?, password_hash=? WHERE id=?",
		a.FirstName, a.LastName, a.Email, a.Phone, a.SignupCode, a.PasswordHash, a.ID)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// ClaimSignup completes registration for an attendee that was provisioned by
// an invitation batch. The email and signup code must match an existing row;
// on success the profile fields and password hash are stored and the signup
// code is cleared so it cannot be replayed.
func (r *AttendeeRepo) ClaimSignup(ctx context.Context, email, code string, a *model.Attendee) (model.Attendee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := scanAttendee(dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+attendeeCols+" FROM attendees WHERE email=? AND signup_code=? LIMIT 1",
		email, code))
	if err != nil {
		return model.Attendee{}, err
	}
	existing.FirstName = a.FirstName
	existing.LastName = a.LastName
	existing.Phone = a.Phone
	existing.PasswordHash = a.PasswordHash
	existing.SignupCode = ""
	if err := r.Update(ctx, &existing); err != nil {
		return model.Attendee{}, err
	}
	return existing, nil
}
