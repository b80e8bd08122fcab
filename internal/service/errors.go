// Package service implements the admission engine: the reservation lifecycle
// rules that convert capacity requests into durable reservations under a
// fixed per-event capacity.
package service

import "errors"

// ErrCapacityFull is returned when an admission would exceed the event's
// capacity. Handlers translate this into an HTTP 409 response.
var ErrCapacityFull = errors.New("event capacity is full")

// ErrQuotaExceeded is returned when a bulk-invitation batch would exceed the
// event's capacity. The whole batch is rejected before any row is written.
var ErrQuotaExceeded = errors.New("invitation quota exceeded")

// ErrEventEnded is returned for admissions attempted after the event's end
// time.
var ErrEventEnded = errors.New("event has ended")

// ErrAlreadyReserved is returned when the attendee already holds a
// reservation on the event; at most one reservation exists per pair.
var ErrAlreadyReserved = errors.New("reservation already exists for this event")

// ErrNotPublic is returned when direct booking is attempted on a private
// event; private events admit only through invitation batches.
var ErrNotPublic = errors.New("event is not public")

// ErrNotPrivate is returned when a bulk invitation targets a public event.
var ErrNotPrivate = errors.New("event is not private")
