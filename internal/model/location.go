package model

import "time"

// Location represents a row in the `locations` table. A location belongs to
// exactly one organizer; deleting it cascades to the events held there.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the venue.
//  Address   – unique postal address.
//  Capacity  – physical capacity of the venue.
//  OwnerID   – organizer that owns this location.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Location struct {
	ID        uint64    // locations.id
	Name      string    // locations.name
	Address   string    // locations.address
	Capacity  uint32    // locations.capacity
	OwnerID   uint64    // locations.owner_id
	CreatedAt time.Time // locations.created_at
	UpdatedAt time.Time // locations.updated_at
}
