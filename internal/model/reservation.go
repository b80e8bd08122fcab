package model

import "time"

// ReservationStatus is the state of a reservation. PENDING reservations were
// created by an invitation batch and do not count against the hard capacity
// check; INVITED reservations each claim one capacity unit. The only
// transition is PENDING to INVITED; either state may be deleted.
type ReservationStatus string

const (
	ReservationPending ReservationStatus = "PENDING"
	ReservationInvited ReservationStatus = "INVITED"
)

// Reservation represents a row in the `reservations` table. At most one
// reservation exists per (event, attendee) pair; the pair is unique in the
// schema and re-checked before every insert.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event this reservation claims a slot on.
//  AttendeeID – attendee holding the reservation.
//  Status     – PENDING or INVITED.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Reservation struct {
	ID         uint64            // reservations.id
	EventID    uint64            // reservations.event_id
	AttendeeID uint64            // reservations.attendee_id
	Status     ReservationStatus // reservations.status
	CreatedAt  time.Time         // reservations.created_at
	UpdatedAt  time.Time         // reservations.updated_at
}
