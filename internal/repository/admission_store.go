package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/utils"
)

// AdmissionStore aggregates the repositories the admission engine needs and
// adds the concurrency-control primitive: WithEventLock runs a function
// inside a transaction that holds an exclusive row lock on the event, so
// count-then-insert sequences against the same event serialize. It satisfies
// service.AdmissionStore.
type AdmissionStore struct {
	DB           *sql.DB
	Events       *EventRepo
	Attendees    *AttendeeRepo
	Reservations *ReservationRepo
}

// NewAdmissionStore wires an AdmissionStore from its repositories.
func NewAdmissionStore(db *sql.DB, events *EventRepo, attendees *AttendeeRepo, reservations *ReservationRepo) *AdmissionStore {
	if db == nil || events == nil || attendees == nil || reservations == nil {
		panic("nil dependency passed to NewAdmissionStore")
	}
	return &AdmissionStore{DB: db, Events: events, Attendees: attendees, Reservations: reservations}
}

// GetEvent fetches an event without locking.
func (s *AdmissionStore) GetEvent(ctx context.Context, id uint64) (model.Event, error) {
	return s.Events.GetByID(ctx, id)
}

// WithEventLock begins a transaction, locks the event row with SELECT ...
// FOR UPDATE and passes the locked event to fn. Repository calls made from
// fn join the transaction through the context. The lock is released on
// commit or rollback.
func (s *AdmissionStore) WithEventLock(ctx context.Context, eventID uint64, fn func(ctx context.Context, ev model.Event) error) error {
	return withTx(ctx, s.DB, func(ctx context.Context) error {
		ev, err := s.Events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		return fn(ctx, ev)
	})
}

// CountInvited counts the reservations that claim capacity on the event.
func (s *AdmissionStore) CountInvited(ctx context.Context, eventID uint64) (int, error) {
	return s.Reservations.CountByStatus(ctx, eventID, model.ReservationInvited)
}

// CountAll counts every reservation of the event regardless of status.
func (s *AdmissionStore) CountAll(ctx context.Context, eventID uint64) (int, error) {
	return s.Reservations.CountByEvent(ctx, eventID)
}

// FindReservation returns the (event, attendee) reservation or nil.
func (s *AdmissionStore) FindReservation(ctx context.Context, eventID, attendeeID uint64) (*model.Reservation, error) {
	return s.Reservations.Find(ctx, eventID, attendeeID)
}

// CreateReservation inserts a reservation for the pair.
func (s *AdmissionStore) CreateReservation(ctx context.Context, eventID, attendeeID uint64, status model.ReservationStatus) (model.Reservation, error) {
	return s.Reservations.Create(ctx, eventID, attendeeID, status)
}

// SetReservationStatus updates a reservation's status.
func (s *AdmissionStore) SetReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	return s.Reservations.SetStatus(ctx, id, status)
}

// DeleteReservation removes a reservation by id.
func (s *AdmissionStore) DeleteReservation(ctx context.Context, id uint64) error {
	return s.Reservations.Delete(ctx, id)
}

// FindAttendeeByEmail returns the attendee with the given email or nil.
func (s *AdmissionStore) FindAttendeeByEmail(ctx context.Context, email string) (*model.Attendee, error) {
	a, err := s.Attendees.GetByEmail(ctx, email)
	if errors.Is(err, ErrAttendeeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ProvisionAttendee creates a blank attendee record for an invited email
// address with a fresh one-time signup code. The profile fields and password
// hash stay empty until the invitee claims the account.
func (s *AdmissionStore) ProvisionAttendee(ctx context.Context, email string) (model.Attendee, error) {
	code, err := utils.NewSignupCode()
	if err != nil {
		return model.Attendee{}, err
	}
	a := model.Attendee{
		Email:      strings.ToLower(strings.TrimSpace(email)),
		SignupCode: code,
	}
	if _, err := s.Attendees.Create(ctx, &a); err != nil {
		return model.Attendee{}, err
	}
	return a, nil
}

// ListReservations returns an event's reservations with their attendees.
func (s *AdmissionStore) ListReservations(ctx context.Context, eventID uint64) ([]ReservationWithAttendee, error) {
	return s.Reservations.ListByEvent(ctx, eventID)
}
