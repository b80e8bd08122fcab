package model

import "time"

// Attendee represents a row in the `attendees` table. An attendee either
// registers directly (profile and password set at signup) or is provisioned
// by a private-event invitation batch, in which case the profile fields and
// password hash stay empty and SignupCode holds the one-time token that lets
// the invited person claim the account later.
//
// Fields:
//  ID           – primary key identifier.
//  FirstName    – given name (empty for a pre-provisioned account).
//  LastName     – family name (empty for a pre-provisioned account).
//  Email        – unique email address, stored lowercase.
//  Phone        – contact phone number.
//  SignupCode   – one-time 32-character claim token; empty once signup completes.
//  PasswordHash – bcrypt hashed password; empty until signup completes.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Attendee struct {
	ID           uint64    // attendees.id
	FirstName    string    // attendees.firstname
	LastName     string    // attendees.lastname
	Email        string    // attendees.email
	Phone        string    // attendees.phone
	SignupCode   string    // attendees.signup_code
	PasswordHash string    // attendees.password_hash
	CreatedAt    time.Time // attendees.created_at
	UpdatedAt    time.Time // attendees.updated_at
}

// Provisioned reports whether this account was created by an invitation and
// has not been claimed yet.
func (a Attendee) Provisioned() bool {
	return a.PasswordHash == "" && a.SignupCode != ""
}
