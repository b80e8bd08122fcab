package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-booking/internal/model"
)

// ReservationRepo provides CRUD operations for reservations. A reservation
// claims one capacity unit of an event once its status is INVITED; the
// (event_id, attendee_id) pair is unique. All timestamp fields are assumed
// to be stored in UTC.
type ReservationRepo struct{ DB *sql.DB }

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationCols = "id, event_id, attendee_id, status, created_at, updated_at"

// Create inserts a reservation for the (event, attendee) pair. The unique
// key on the pair turns a concurrent double-insert into ErrConflict.
func (r *ReservationRepo) Create(ctx context.Context, eventID, attendeeID uint64, status model.ReservationStatus) (model.Reservation, error) {
	res, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO reservations (event_id, attendee_id, status) VALUES (?,?,?)",
		eventID, attendeeID, string(status))
	if err != nil {
		if isDuplicate(err) {
			return model.Reservation{}, ErrConflict
		}
		return model.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	return model.Reservation{
		ID:         uint64(id),
		EventID:    eventID,
		AttendeeID: attendeeID,
		Status:     status,
	}, nil
}

// Find returns the reservation for the (event, attendee) pair, or nil when
// none exists.
func (r *ReservationRepo) Find(ctx context.Context, eventID, attendeeID uint64) (*model.Reservation, error) {
	var res model.Reservation
	var status string
	err := dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE event_id=? AND attendee_id=? LIMIT 1",
		eventID, attendeeID).
		Scan(&res.ID, &res.EventID, &res.AttendeeID, &status, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	return &res, nil
}

// SetStatus updates a reservation's status. Missing rows yield
// ErrReservationNotFound.
func (r *ReservationRepo) SetStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	res, err := dbtx(ctx, r.DB).ExecContext(ctx,
		"UPDATE reservations SET status=? WHERE id=?", string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// Delete removes a reservation by id, freeing its capacity unit implicitly.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := dbtx(ctx, r.DB).ExecContext(ctx, "DELETE FROM reservations WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// CountByStatus counts an event's reservations in the given status. Counting
// INVITED rows inside an event-locked transaction is the capacity check.
func (r *ReservationRepo) CountByStatus(ctx context.Context, eventID uint64, status model.ReservationStatus) (int, error) {
	var n int
	err := dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE event_id=? AND status=?",
		eventID, string(status)).Scan(&n)
	return n, err
}

// CountByEvent counts all of an event's reservations regardless of status.
// The bulk-invitation quota pre-check uses this total.
func (r *ReservationRepo) CountByEvent(ctx context.Context, eventID uint64) (int, error) {
	var n int
	err := dbtx(ctx, r.DB).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE event_id=?", eventID).Scan(&n)
	return n, err
}

// ReservationWithAttendee pairs a reservation with the attendee holding it,
// for the per-event reservation listing.
type ReservationWithAttendee struct {
	Reservation model.Reservation
	Attendee    model.Attendee
}

// ListByEvent returns every reservation of an event together with its
// attendee, ordered by reservation id.
func (r *ReservationRepo) ListByEvent(ctx context.Context, eventID uint64) ([]ReservationWithAttendee, error) {
	rows, err := dbtx(ctx, r.DB).QueryContext(ctx, `
SELECT r.id, r.event_id, r.attendee_id, r.status, r.created_at, r.updated_at,
       a.id, a.firstname, a.lastname, a.email, a.phone, a.signup_code, a.password_hash, a.created_at, a.updated_at
FROM reservations r
JOIN attendees a ON a.id = r.attendee_id
WHERE r.event_id = ?
ORDER BY r.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReservationWithAttendee
	for rows.Next() {
		var ra ReservationWithAttendee
		var status string
		if err := rows.Scan(
			&ra.Reservation.ID, &ra.Reservation.EventID, &ra.Reservation.AttendeeID,
			&status, &ra.Reservation.CreatedAt, &ra.Reservation.UpdatedAt,
			&ra.Attendee.ID, &ra.Attendee.FirstName, &ra.Attendee.LastName,
			&ra.Attendee.Email, &ra.Attendee.Phone, &ra.Attendee.SignupCode,
			&ra.Attendee.PasswordHash, &ra.Attendee.CreatedAt, &ra.Attendee.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ra.Reservation.Status = model.ReservationStatus(status)
		out = append(out, ra)
	}
	return out, rows.Err()
}
