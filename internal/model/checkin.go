package model

import "time"

// Checkin records a player's declaration of presence at an instance.
// Deactivation is a soft delete: Active is cleared but the row is kept
// so that history (and the re-check-in-creates-a-new-row property)
// survives.  The store enforces at most one active check-in per
// (instance, user).
//
// Fields:
//  ID         – primary key identifier.
//  InstanceID – instance the player checked in to.
//  UserID     – player who checked in.
//  Active     – whether the check-in is currently live.
//  CreatedAt  – when the player checked in.
type Checkin struct {
	ID         uint64    // checkins.id
	InstanceID uint64    // checkins.instance_id
	UserID     uint64    // checkins.user_id
	Active     bool      // checkins.active (1 or NULL in the store)
	CreatedAt  time.Time // checkins.created_at
}

// CheckinWithUser joins a check-in with the player's profile for
// listings.  Ordering by CreatedAt ascending gives first-come-first-
// served ordering, which later pairing relies on.
type CheckinWithUser struct {
	Checkin
	UserName  string // users.name
	UserEmail string // users.email
}
