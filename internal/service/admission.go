package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/queue"
	"github.com/iliyamo/event-booking/internal/repository"
)

// AdmissionStore is the persistence surface the admission engine runs on.
// WithEventLock must execute fn inside a transaction that holds an exclusive
// lock on the event row; every count-then-write in this package happens under
// that lock so concurrent admissions against the same event serialize instead
// of overshooting capacity. The production implementation is
// repository.AdmissionStore; tests use an in-memory fake.
type AdmissionStore interface {
	GetEvent(ctx context.Context, id uint64) (model.Event, error)
	WithEventLock(ctx context.Context, eventID uint64, fn func(ctx context.Context, ev model.Event) error) error
	CountInvited(ctx context.Context, eventID uint64) (int, error)
	CountAll(ctx context.Context, eventID uint64) (int, error)
	FindReservation(ctx context.Context, eventID, attendeeID uint64) (*model.Reservation, error)
	CreateReservation(ctx context.Context, eventID, attendeeID uint64, status model.ReservationStatus) (model.Reservation, error)
	SetReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error
	DeleteReservation(ctx context.Context, id uint64) error
	FindAttendeeByEmail(ctx context.Context, email string) (*model.Attendee, error)
	ProvisionAttendee(ctx context.Context, email string) (model.Attendee, error)
	ListReservations(ctx context.Context, eventID uint64) ([]repository.ReservationWithAttendee, error)
}

// AdmissionService enforces the reservation lifecycle: PENDING to INVITED
// under a capacity check, any state to deleted on cancellation, and the
// bulk-invitation workflow for private events.
type AdmissionService struct {
	store     AdmissionStore
	publisher queue.Publisher
	signupURL string
	now       func() time.Time
}

// NewAdmissionService constructs the engine. signupURL is the base URL
// embedded in invitation emails; the signup code and invited address are
// appended as query parameters.
func NewAdmissionService(store AdmissionStore, publisher queue.Publisher, signupURL string, opts ...AdmissionOption) *AdmissionService {
	if store == nil || publisher == nil {
		panic("nil dependency passed to NewAdmissionService")
	}
	s := &AdmissionService{
		store:     store,
		publisher: publisher,
		signupURL: signupURL,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AdmissionOption customizes an AdmissionService.
type AdmissionOption func(*AdmissionService)

// WithNow overrides the engine's clock. Used by tests to pin event-end
// comparisons.
func WithNow(now func() time.Time) AdmissionOption {
	return func(s *AdmissionService) { s.now = now }
}

// Book admits an attendee to a public event. The INVITED count and the
// insert run under the event lock; when the count has reached capacity the
// booking fails with ErrCapacityFull and no row is created. An attendee may
// hold at most one reservation per event.
func (s *AdmissionService) Book(ctx context.Context, eventID, attendeeID uint64) (model.Reservation, error) {
	var out model.Reservation
	err := s.store.WithEventLock(ctx, eventID, func(ctx context.Context, ev model.Event) error {
		if ev.Type != model.EventPublic {
			return ErrNotPublic
		}
		if ev.Ended(s.now()) {
			return ErrEventEnded
		}
		existing, err := s.store.FindReservation(ctx, eventID, attendeeID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyReserved
		}
		invited, err := s.store.CountInvited(ctx, eventID)
		if err != nil {
			return err
		}
		if invited >= int(ev.Capacity) {
			return ErrCapacityFull
		}
		out, err = s.store.CreateReservation(ctx, eventID, attendeeID, model.ReservationInvited)
		return err
	})
	return out, err
}

// BulkInvite runs the private-event invitation workflow for the owning
// organizer. The whole-batch quota is checked up front so an oversized list
// is rejected before any write; because each row then commits independently,
// the pre-check alone cannot hold under concurrent batches, so every row
// re-validates the quota inside its own event-locked transaction before
// inserting. A failure partway through leaves the already-processed rows in
// place and the returned slice reflects exactly those rows.
func (s *AdmissionService) BulkInvite(ctx context.Context, eventID, organizerID uint64, emails []string) ([]model.Reservation, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Type != model.EventPrivate {
		return nil, ErrNotPrivate
	}
	if ev.OwnerID != organizerID {
		return nil, repository.ErrForbidden
	}
	if ev.Ended(s.now()) {
		return nil, ErrEventEnded
	}

	distinct := dedupeEmails(emails)

	existing, err := s.store.CountAll(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if existing+len(distinct) > int(ev.Capacity) {
		return nil, ErrQuotaExceeded
	}

	processed := make([]model.Reservation, 0, len(distinct))
	for _, email := range distinct {
		res, err := s.inviteOne(ctx, eventID, email)
		if err != nil {
			return processed, err
		}
		processed = append(processed, res)
	}
	return processed, nil
}

// inviteOne processes a single invitee: reuse the attendee's existing
// reservation, create a PENDING one, or provision a brand-new attendee and
// mail them a signup link. The lookup, the quota re-count and the insert run
// under the event lock so concurrent batches against the same event cannot
// jointly overshoot the capacity between count and insert. The enqueue is
// best-effort after the row commits; a publish failure is logged and never
// fails the batch.
func (s *AdmissionService) inviteOne(ctx context.Context, eventID uint64, email string) (model.Reservation, error) {
	var out model.Reservation
	var job *queue.InvitationEmail

	err := s.store.WithEventLock(ctx, eventID, func(ctx context.Context, ev model.Event) error {
		attendee, err := s.store.FindAttendeeByEmail(ctx, email)
		if err != nil {
			return err
		}

		if attendee != nil {
			existing, err := s.store.FindReservation(ctx, ev.ID, attendee.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				out = *existing
				return nil
			}
		}

		total, err := s.store.CountAll(ctx, ev.ID)
		if err != nil {
			return err
		}
		if total >= int(ev.Capacity) {
			return ErrQuotaExceeded
		}

		if attendee != nil {
			out, err = s.store.CreateReservation(ctx, ev.ID, attendee.ID, model.ReservationPending)
			return err
		}

		provisioned, err := s.store.ProvisionAttendee(ctx, email)
		if err != nil {
			return err
		}
		out, err = s.store.CreateReservation(ctx, ev.ID, provisioned.ID, model.ReservationPending)
		if err != nil {
			return err
		}
		job = &queue.InvitationEmail{
			To:         provisioned.Email,
			Subject:    "Your confirm link",
			Body:       fmt.Sprintf("Here is your confirm link: %s", s.signupLink(provisioned)),
			SignupCode: provisioned.SignupCode,
			EventID:    ev.ID,
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	if job != nil {
		if err := s.publisher.PublishInvitation(ctx, *job); err != nil {
			log.Printf("admission: enqueue invitation for %s failed: %v", job.To, err)
		}
	}
	return out, nil
}

func (s *AdmissionService) signupLink(a model.Attendee) string {
	v := url.Values{}
	v.Set("signup_code", a.SignupCode)
	v.Set("mail", a.Email)
	return s.signupURL + "?" + v.Encode()
}

// Confirm transitions the attendee's PENDING reservation to INVITED. The
// INVITED count is re-checked under the event lock because capacity can fill
// between invitation and confirmation; when full, the reservation stays
// PENDING and ErrCapacityFull is returned.
func (s *AdmissionService) Confirm(ctx context.Context, eventID, attendeeID uint64) error {
	return s.store.WithEventLock(ctx, eventID, func(ctx context.Context, ev model.Event) error {
		if ev.Ended(s.now()) {
			return ErrEventEnded
		}
		res, err := s.store.FindReservation(ctx, eventID, attendeeID)
		if err != nil {
			return err
		}
		if res == nil || res.Status != model.ReservationPending {
			return repository.ErrReservationNotFound
		}
		invited, err := s.store.CountInvited(ctx, eventID)
		if err != nil {
			return err
		}
		if invited >= int(ev.Capacity) {
			return ErrCapacityFull
		}
		return s.store.SetReservationStatus(ctx, res.ID, model.ReservationInvited)
	})
}

// Cancel deletes the attendee's reservation on the event regardless of its
// status, freeing one capacity unit. On private events the caller must
// already participate, otherwise ErrForbidden.
func (s *AdmissionService) Cancel(ctx context.Context, eventID, attendeeID uint64) error {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	res, err := s.store.FindReservation(ctx, eventID, attendeeID)
	if err != nil {
		return err
	}
	if ev.Type == model.EventPrivate && res == nil {
		return repository.ErrForbidden
	}
	if res == nil {
		return repository.ErrReservationNotFound
	}
	return s.store.DeleteReservation(ctx, res.ID)
}

// ListReservations returns an event's reservations with their attendees.
// Attendees may inspect a private event's list only when they hold a
// reservation on it themselves; organizers may always look.
func (s *AdmissionService) ListReservations(ctx context.Context, eventID uint64, callerRole model.Role, callerID uint64) ([]repository.ReservationWithAttendee, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	switch callerRole {
	case model.RoleAttendee:
		if ev.Type == model.EventPrivate {
			res, err := s.store.FindReservation(ctx, eventID, callerID)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, repository.ErrForbidden
			}
		}
	case model.RoleOrganizer:
		// organizers can always inspect
	default:
		return nil, repository.ErrForbidden
	}
	return s.store.ListReservations(ctx, eventID)
}
