package model

import "time"

// EventType distinguishes the two admission paths: public events are booked
// directly by attendees, private events admit only invited attendees.
type EventType string

const (
	EventPublic  EventType = "public"
	EventPrivate EventType = "private"
)

// ParseEventType validates a raw type value against the closed set.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventPublic:
		return EventPublic, true
	case EventPrivate:
		return EventPrivate, true
	}
	return "", false
}

// Event represents a row in the `events` table. Events are owned by an
// organizer, held at one of that organizer's locations, and carry a fixed
// capacity that bounds the number of INVITED reservations. EndsAt must not
// precede StartsAt.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – unique event title.
//  Description – free-form description.
//  Category    – free-form category label.
//  StartsAt    – when the event begins.
//  EndsAt      – when the event ends; admissions are rejected afterwards.
//  Type        – public or private.
//  Capacity    – maximum number of INVITED reservations.
//  Img         – blob-store path of the uploaded event image, if any.
//  OwnerID     – organizer that owns the event.
//  LocationID  – location where the event is held.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Event struct {
	ID          uint64    // events.id
	Title       string    // events.title
	Description string    // events.description
	Category    string    // events.category
	StartsAt    time.Time // events.starts_at
	EndsAt      time.Time // events.ends_at
	Type        EventType // events.type
	Capacity    uint32    // events.capacity
	Img         string    // events.img
	OwnerID     uint64    // events.owner_id
	LocationID  uint64    // events.location_id
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}

// Ended reports whether the event's end time has passed at the given instant.
func (e Event) Ended(now time.Time) bool {
	return now.After(e.EndsAt)
}
