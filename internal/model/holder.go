package model

import "time"

// Holder is an account allowed to reserve seats.  Most holder management
// lives in the users service; this service keeps only what it needs to
// authenticate reservation requests and attribute seats to a buyer.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – login identifier, stored lowercase.
//  PasswordHash – bcrypt hash of the password.
//  Role         – HOLDER, ADMIN or SERVICE.
//  IsActive     – soft-disable flag.
type Holder struct {
	ID           uint64    // holders.id
	Email        string    // holders.email
	PasswordHash string    // holders.password_hash
	Role         string    // holders.role
	IsActive     bool      // holders.is_active
	CreatedAt    time.Time // holders.created_at
	UpdatedAt    time.Time // holders.updated_at
}
