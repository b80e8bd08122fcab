package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/queue"
	"github.com/iliyamo/event-booking/internal/repository"
)

// fakeStore is an in-memory AdmissionStore. WithEventLock takes a per-event
// mutex so concurrent admissions serialize the same way the row lock does in
// production.
type fakeStore struct {
	mu           sync.Mutex
	eventLocks   map[uint64]*sync.Mutex
	events       map[uint64]model.Event
	attendees    map[uint64]model.Attendee
	reservations map[uint64]model.Reservation
	nextID       uint64

	// beforeLock, when set, runs before each WithEventLock acquisition.
	// Tests use it to interleave a competing write at the exact point a
	// racing admission would land.
	beforeLock func()
}

func newFakeStore(events ...model.Event) *fakeStore {
	s := &fakeStore{
		eventLocks:   make(map[uint64]*sync.Mutex),
		events:       make(map[uint64]model.Event),
		attendees:    make(map[uint64]model.Attendee),
		reservations: make(map[uint64]model.Reservation),
		nextID:       1000,
	}
	for _, ev := range events {
		s.events[ev.ID] = ev
	}
	return s
}

func (s *fakeStore) addAttendee(a model.Attendee) model.Attendee {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	s.attendees[a.ID] = a
	return a
}

func (s *fakeStore) GetEvent(_ context.Context, id uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	return ev, nil
}

func (s *fakeStore) WithEventLock(ctx context.Context, eventID uint64, fn func(ctx context.Context, ev model.Event) error) error {
	if s.beforeLock != nil {
		s.beforeLock()
	}
	s.mu.Lock()
	lock, ok := s.eventLocks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		s.eventLocks[eventID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	return fn(ctx, ev)
}

func (s *fakeStore) CountInvited(_ context.Context, eventID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.EventID == eventID && r.Status == model.ReservationInvited {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountAll(_ context.Context, eventID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) FindReservation(_ context.Context, eventID, attendeeID uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.EventID == eventID && r.AttendeeID == attendeeID {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateReservation(_ context.Context, eventID, attendeeID uint64, status model.ReservationStatus) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.EventID == eventID && r.AttendeeID == attendeeID {
			return model.Reservation{}, repository.ErrConflict
		}
	}
	s.nextID++
	r := model.Reservation{ID: s.nextID, EventID: eventID, AttendeeID: attendeeID, Status: status}
	s.reservations[r.ID] = r
	return r, nil
}

func (s *fakeStore) SetReservationStatus(_ context.Context, id uint64, status model.ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Status = status
	s.reservations[id] = r
	return nil
}

func (s *fakeStore) DeleteReservation(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return repository.ErrReservationNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s *fakeStore) FindAttendeeByEmail(_ context.Context, email string) (*model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attendees {
		if a.Email == email {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ProvisionAttendee(_ context.Context, email string) (model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a := model.Attendee{ID: s.nextID, Email: email, SignupCode: fmt.Sprintf("CODE%028d", s.nextID)}
	s.attendees[a.ID] = a
	return a, nil
}

func (s *fakeStore) ListReservations(_ context.Context, eventID uint64) ([]repository.ReservationWithAttendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ReservationWithAttendee
	for _, r := range s.reservations {
		if r.EventID != eventID {
			continue
		}
		out = append(out, repository.ReservationWithAttendee{
			Reservation: r,
			Attendee:    s.attendees[r.AttendeeID],
		})
	}
	return out, nil
}

// fakePublisher records published invitation jobs.
type fakePublisher struct {
	mu   sync.Mutex
	jobs []queue.InvitationEmail
	fail bool
}

func (p *fakePublisher) PublishInvitation(_ context.Context, job queue.InvitationEmail) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("broker down")
	}
	p.jobs = append(p.jobs, job)
	return nil
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func publicEvent(id uint64, capacity uint32) model.Event {
	return model.Event{
		ID: id, Title: fmt.Sprintf("event-%d", id), Type: model.EventPublic,
		Capacity: capacity, OwnerID: 1,
		StartsAt: testNow.Add(24 * time.Hour), EndsAt: testNow.Add(26 * time.Hour),
	}
}

func privateEvent(id uint64, capacity uint32) model.Event {
	ev := publicEvent(id, capacity)
	ev.Type = model.EventPrivate
	return ev
}

func newTestService(store *fakeStore) (*AdmissionService, *fakePublisher) {
	pub := &fakePublisher{}
	svc := NewAdmissionService(store, pub, "http://localhost:3000/signup",
		WithNow(func() time.Time { return testNow }))
	return svc, pub
}

func TestBookAdmitsUntilCapacity(t *testing.T) {
	store := newFakeStore(publicEvent(1, 2))
	svc, _ := newTestService(store)
	ctx := context.Background()

	r1, err := svc.Book(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationInvited, r1.Status)

	_, err = svc.Book(ctx, 1, 11)
	require.NoError(t, err)

	// Third booking hits capacity and must not leave a row behind.
	_, err = svc.Book(ctx, 1, 12)
	require.ErrorIs(t, err, ErrCapacityFull)
	res, err := store.FindReservation(ctx, 1, 12)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestBookRejectsDuplicateAndNonPublic(t *testing.T) {
	store := newFakeStore(publicEvent(1, 5), privateEvent(2, 5))
	svc, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.Book(ctx, 1, 10)
	require.NoError(t, err)
	_, err = svc.Book(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrAlreadyReserved)

	_, err = svc.Book(ctx, 2, 10)
	assert.ErrorIs(t, err, ErrNotPublic)

	_, err = svc.Book(ctx, 99, 10)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestBookRejectsEndedEvent(t *testing.T) {
	ev := publicEvent(1, 5)
	ev.StartsAt = testNow.Add(-3 * time.Hour)
	ev.EndsAt = testNow.Add(-time.Hour)
	store := newFakeStore(ev)
	svc, _ := newTestService(store)

	_, err := svc.Book(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrEventEnded)
}

func TestConcurrentBookingNeverOvershoots(t *testing.T) {
	const capacity = 5
	store := newFakeStore(publicEvent(1, capacity))
	svc, _ := newTestService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(attendee uint64) {
			defer wg.Done()
			if _, err := svc.Book(ctx, 1, attendee); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(uint64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, capacity, admitted)
	invited, err := store.CountInvited(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, capacity, invited)
}

func TestBulkInviteProvisionsAndDeduplicates(t *testing.T) {
	store := newFakeStore(privateEvent(1, 10))
	known := store.addAttendee(model.Attendee{Email: "a@example.com"})
	svc, pub := newTestService(store)
	ctx := context.Background()

	processed, err := svc.BulkInvite(ctx, 1, 1,
		[]string{"a@example.com", "b@example.com", "a@example.com"})
	require.NoError(t, err)
	require.Len(t, processed, 2)

	// Known attendee gets a PENDING reservation, no email.
	resA, err := store.FindReservation(ctx, 1, known.ID)
	require.NoError(t, err)
	require.NotNil(t, resA)
	assert.Equal(t, model.ReservationPending, resA.Status)

	// Unknown address is provisioned with a signup code and mailed once.
	require.Len(t, pub.jobs, 1)
	job := pub.jobs[0]
	assert.Equal(t, "b@example.com", job.To)
	assert.Equal(t, "Your confirm link", job.Subject)
	assert.Contains(t, job.Body, "Here is your confirm link: ")
	assert.Contains(t, job.Body, "signup_code="+job.SignupCode)
	assert.Contains(t, job.Body, "mail=b%40example.com")
	assert.NotEmpty(t, job.SignupCode)

	provisioned, err := store.FindAttendeeByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	require.NotNil(t, provisioned)
	assert.Empty(t, provisioned.PasswordHash)
}

func TestBulkInviteQuotaCheckedBeforeAnyWrite(t *testing.T) {
	store := newFakeStore(privateEvent(1, 2))
	svc, pub := newTestService(store)
	ctx := context.Background()

	_, err := svc.BulkInvite(ctx, 1, 1,
		[]string{"a@example.com", "b@example.com", "c@example.com"})
	require.ErrorIs(t, err, ErrQuotaExceeded)

	total, err := store.CountAll(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pub.jobs)
}

func TestBulkInviteReusesExistingReservation(t *testing.T) {
	store := newFakeStore(privateEvent(1, 5))
	a := store.addAttendee(model.Attendee{Email: "a@example.com"})
	existing, err := store.CreateReservation(context.Background(), 1, a.ID, model.ReservationInvited)
	require.NoError(t, err)

	svc, _ := newTestService(store)
	processed, err := svc.BulkInvite(context.Background(), 1, 1, []string{"a@example.com"})
	require.NoError(t, err)
	require.Len(t, processed, 1)
	assert.Equal(t, existing.ID, processed[0].ID)
	assert.Equal(t, model.ReservationInvited, processed[0].Status)
}

func TestBulkInviteAuthorization(t *testing.T) {
	store := newFakeStore(privateEvent(1, 5), publicEvent(2, 5))
	svc, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.BulkInvite(ctx, 1, 2, []string{"a@example.com"})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = svc.BulkInvite(ctx, 2, 1, []string{"a@example.com"})
	assert.ErrorIs(t, err, ErrNotPrivate)
}

func TestBulkInviteRejectsEndedEvent(t *testing.T) {
	ev := privateEvent(1, 5)
	ev.StartsAt = testNow.Add(-3 * time.Hour)
	ev.EndsAt = testNow.Add(-time.Hour)
	store := newFakeStore(ev)
	svc, pub := newTestService(store)

	_, err := svc.BulkInvite(context.Background(), 1, 1, []string{"a@example.com"})
	require.ErrorIs(t, err, ErrEventEnded)

	total, err := store.CountAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pub.jobs)
}

func TestConcurrentBulkInvitesNeverExceedQuota(t *testing.T) {
	const capacity = 2
	store := newFakeStore(privateEvent(1, capacity))
	svc, _ := newTestService(store)
	ctx := context.Background()

	// Each batch passes the whole-batch pre-check on its own; only the
	// per-row re-count under the event lock keeps their sum within quota.
	batches := [][]string{
		{"a@example.com", "b@example.com"},
		{"c@example.com", "d@example.com"},
		{"e@example.com", "f@example.com"},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	quotaErrs := 0
	for _, emails := range batches {
		wg.Add(1)
		go func(emails []string) {
			defer wg.Done()
			processed, err := svc.BulkInvite(ctx, 1, 1, emails)
			mu.Lock()
			defer mu.Unlock()
			admitted += len(processed)
			if err != nil {
				assert.ErrorIs(t, err, ErrQuotaExceeded)
				quotaErrs++
			}
		}(emails)
	}
	wg.Wait()

	assert.Equal(t, capacity, admitted)
	assert.GreaterOrEqual(t, quotaErrs, 1)
	total, err := store.CountAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, capacity, total)
}

func TestBulkInviteRecountsQuotaPerRow(t *testing.T) {
	store := newFakeStore(privateEvent(1, 2))
	svc, _ := newTestService(store)
	ctx := context.Background()

	// A competing admission lands after the batch's pre-check but before
	// its rows insert: one foreign reservation appears the moment the
	// first row goes for the event lock. The pre-check saw 0+2 <= 2, so
	// only the per-row re-count can keep the total within capacity.
	rival := store.addAttendee(model.Attendee{Email: "rival@example.com"})
	fired := false
	store.beforeLock = func() {
		if fired {
			return
		}
		fired = true
		_, err := store.CreateReservation(ctx, 1, rival.ID, model.ReservationInvited)
		require.NoError(t, err)
	}

	processed, err := svc.BulkInvite(ctx, 1, 1, []string{"x@example.com", "y@example.com"})
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Len(t, processed, 1)

	total, err := store.CountAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestBulkInvitePublishFailureDoesNotFailBatch(t *testing.T) {
	store := newFakeStore(privateEvent(1, 5))
	svc, pub := newTestService(store)
	pub.fail = true

	processed, err := svc.BulkInvite(context.Background(), 1, 1, []string{"x@example.com"})
	require.NoError(t, err)
	assert.Len(t, processed, 1)
}

func TestConfirmTransitionsPendingToInvited(t *testing.T) {
	store := newFakeStore(privateEvent(1, 2))
	a := store.addAttendee(model.Attendee{Email: "a@example.com"})
	pending, err := store.CreateReservation(context.Background(), 1, a.ID, model.ReservationPending)
	require.NoError(t, err)

	svc, _ := newTestService(store)
	require.NoError(t, svc.Confirm(context.Background(), 1, a.ID))

	got, err := store.FindReservation(context.Background(), 1, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pending.ID, got.ID)
	assert.Equal(t, model.ReservationInvited, got.Status)
}

func TestConfirmAtFullCapacityLeavesPending(t *testing.T) {
	store := newFakeStore(privateEvent(1, 1))
	winner := store.addAttendee(model.Attendee{Email: "w@example.com"})
	loser := store.addAttendee(model.Attendee{Email: "l@example.com"})
	ctx := context.Background()
	_, err := store.CreateReservation(ctx, 1, winner.ID, model.ReservationInvited)
	require.NoError(t, err)
	_, err = store.CreateReservation(ctx, 1, loser.ID, model.ReservationPending)
	require.NoError(t, err)

	svc, _ := newTestService(store)
	err = svc.Confirm(ctx, 1, loser.ID)
	require.ErrorIs(t, err, ErrCapacityFull)

	got, err := store.FindReservation(ctx, 1, loser.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.ReservationPending, got.Status)
}

func TestConfirmWithoutPendingReservation(t *testing.T) {
	store := newFakeStore(privateEvent(1, 5))
	a := store.addAttendee(model.Attendee{Email: "a@example.com"})
	ctx := context.Background()

	svc, _ := newTestService(store)
	assert.ErrorIs(t, svc.Confirm(ctx, 1, a.ID), repository.ErrReservationNotFound)

	// Already-INVITED reservations cannot be confirmed again.
	_, err := store.CreateReservation(ctx, 1, a.ID, model.ReservationInvited)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Confirm(ctx, 1, a.ID), repository.ErrReservationNotFound)
}

func TestCancelRules(t *testing.T) {
	store := newFakeStore(privateEvent(1, 5), publicEvent(2, 5))
	a := store.addAttendee(model.Attendee{Email: "a@example.com"})
	ctx := context.Background()
	svc, _ := newTestService(store)

	// Non-participant on a private event is rejected before the existence check.
	assert.ErrorIs(t, svc.Cancel(ctx, 1, a.ID), repository.ErrForbidden)

	// Public event without a reservation reports not found.
	assert.ErrorIs(t, svc.Cancel(ctx, 2, a.ID), repository.ErrReservationNotFound)

	_, err := store.CreateReservation(ctx, 1, a.ID, model.ReservationInvited)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, 1, a.ID))

	got, err := store.FindReservation(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCancelFreesCapacity(t *testing.T) {
	store := newFakeStore(publicEvent(1, 1))
	svc, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.Book(ctx, 1, 10)
	require.NoError(t, err)
	_, err = svc.Book(ctx, 1, 11)
	require.ErrorIs(t, err, ErrCapacityFull)

	require.NoError(t, svc.Cancel(ctx, 1, 10))
	_, err = svc.Book(ctx, 1, 11)
	require.NoError(t, err)
}

func TestListReservationsVisibility(t *testing.T) {
	store := newFakeStore(privateEvent(1, 5))
	member := store.addAttendee(model.Attendee{Email: "in@example.com"})
	outsider := store.addAttendee(model.Attendee{Email: "out@example.com"})
	ctx := context.Background()
	_, err := store.CreateReservation(ctx, 1, member.ID, model.ReservationInvited)
	require.NoError(t, err)

	svc, _ := newTestService(store)

	entries, err := svc.ListReservations(ctx, 1, model.RoleOrganizer, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = svc.ListReservations(ctx, 1, model.RoleAttendee, member.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.True(t, strings.EqualFold(entries[0].Attendee.Email, "in@example.com"))

	_, err = svc.ListReservations(ctx, 1, model.RoleAttendee, outsider.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestCapacityInvariantAfterMixedSequence(t *testing.T) {
	store := newFakeStore(publicEvent(1, 3))
	svc, _ := newTestService(store)
	ctx := context.Background()

	for i := uint64(0); i < 6; i++ {
		_, _ = svc.Book(ctx, 1, 10+i)
	}
	_ = svc.Cancel(ctx, 1, 11)
	_, _ = svc.Book(ctx, 1, 30)

	invited, err := store.CountInvited(ctx, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, invited, 3)
	assert.Equal(t, 3, invited)
}
