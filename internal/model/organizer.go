package model

import "time"

// Organizer represents a row in the `organizers` table. Organizers own
// locations and events and are the only principals allowed to mutate them.
//
// Fields:
//  ID           – primary key identifier.
//  FirstName    – given name.
//  LastName     – family name.
//  Email        – unique email address, stored lowercase.
//  Phone        – contact phone number.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Organizer struct {
	ID           uint64    // organizers.id
	FirstName    string    // organizers.firstname
	LastName     string    // organizers.lastname
	Email        string    // organizers.email
	Phone        string    // organizers.phone
	PasswordHash string    // organizers.password_hash
	CreatedAt    time.Time // organizers.created_at
	UpdatedAt    time.Time // organizers.updated_at
}
