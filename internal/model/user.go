package model

import "time"

// User is the read model for a player profile.  Accounts are created
// and managed by the identity service; this application only joins
// profiles into check-in listings and resolves notification targets.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name.
//  Email     – contact address.
//  CreatedAt – account creation timestamp.
type User struct {
	ID        uint64    // users.id
	Name      string    // users.name
	Email     string    // users.email
	CreatedAt time.Time // users.created_at
}
