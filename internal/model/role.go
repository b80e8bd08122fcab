package model

// Role is the closed set of principal kinds known to the service. Every
// authorization decision matches on one of these two values; there is no
// free-form role string anywhere above the persistence layer.
type Role string

const (
	// RoleOrganizer marks users who own locations and events and may run
	// private-event invitation batches.
	RoleOrganizer Role = "ORGANIZER"
	// RoleAttendee marks users who book, confirm and cancel reservations.
	RoleAttendee Role = "ATTENDEE"
)

// ParseRole maps a raw claim value onto the closed role set. The boolean is
// false for anything that is not exactly one of the known roles.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOrganizer:
		return RoleOrganizer, true
	case RoleAttendee:
		return RoleAttendee, true
	}
	return "", false
}
