package model

import "time"

// Partnership request status values.  pending is the only non-terminal
// state; accepted requests materialize a Partnership in the same
// transaction that flips the status.
const (
	RequestPending   = "PENDING"
	RequestAccepted  = "ACCEPTED"
	RequestRejected  = "REJECTED"
	RequestCancelled = "CANCELLED"
)

// PartnershipRequest is a directed invitation from one checked-in
// player to another to form a team for the night.
//
// Fields:
//  ID          – primary key identifier.
//  InstanceID  – instance the request belongs to.
//  RequesterID – player who sent the request.
//  RequestedID – player being invited.
//  Status      – PENDING, ACCEPTED, REJECTED or CANCELLED.
//  CreatedAt   – when the request was sent.
//  UpdatedAt   – last status change.
type PartnershipRequest struct {
	ID          uint64    // partnership_requests.id
	InstanceID  uint64    // partnership_requests.instance_id
	RequesterID uint64    // partnership_requests.requester_id
	RequestedID uint64    // partnership_requests.requested_id
	Status      string    // partnership_requests.status
	CreatedAt   time.Time // partnership_requests.created_at
	UpdatedAt   time.Time // partnership_requests.updated_at
}

// Partnership is a confirmed pairing of two players for one instance.
// The store writes one partnership_players row per member in the same
// transaction as the partnership itself; the unique
// (instance_id, user_id, active) index on that member table is the
// authority for the at-most-one-active-partnership-per-player
// invariant.
//
// Fields:
//  ID         – primary key identifier.
//  InstanceID – instance the partnership belongs to.
//  Player1ID  – first member (the accepted request's requester).
//  Player2ID  – second member (the accepted request's requested player).
//  Active     – whether the partnership is currently live.
//  CreatedAt  – when the partnership was confirmed.
type Partnership struct {
	ID         uint64    // partnerships.id
	InstanceID uint64    // partnerships.instance_id
	Player1ID  uint64    // partnerships.player1_id
	Player2ID  uint64    // partnerships.player2_id
	Active     bool      // partnerships.active (1 or NULL in the store)
	CreatedAt  time.Time // partnerships.created_at
}

// Has reports whether userID is one of the partnership's members.
func (p Partnership) Has(userID uint64) bool {
	return p.Player1ID == userID || p.Player2ID == userID
}
