// Package repository implements MySQL persistence for the event-booking
// entities. This file defines sentinel errors shared across repositories so
// that handlers can map failure scenarios onto HTTP responses with errors.Is
// switches instead of string matching.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own or, for private events, do not participate in.
// Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of conflicting
// state. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists signals a unique-constraint violation on an email column.
var ErrEmailExists = errors.New("email already exists")

// Not-found sentinels, one per entity, so handlers can report which lookup
// failed without inspecting SQL errors.
var (
	ErrOrganizerNotFound   = errors.New("organizer not found")
	ErrAttendeeNotFound    = errors.New("attendee not found")
	ErrLocationNotFound    = errors.New("location not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// isDuplicate reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
