package model

import "time"

// PushSubscription is one registered device endpoint capable of
// receiving Web Push messages for a user.  A delivery failure with a
// terminal transport error (endpoint gone) deactivates the row instead
// of deleting it, so future dispatches skip it while history remains.
// The store enforces a unique (user_id, endpoint) pair.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the device.
//  Endpoint   – push service URL for the device.
//  P256dh     – client public key for payload encryption.
//  Auth       – client auth secret for payload encryption.
//  Active     – whether the subscription should still be dispatched to.
//  CreatedAt  – when the device registered.
//  LastUsedAt – last successful delivery (nil until first success).
type PushSubscription struct {
	ID         uint64     // push_subscriptions.id
	UserID     uint64     // push_subscriptions.user_id
	Endpoint   string     // push_subscriptions.endpoint
	P256dh     string     // push_subscriptions.p256dh
	Auth       string     // push_subscriptions.auth
	Active     bool       // push_subscriptions.active
	CreatedAt  time.Time  // push_subscriptions.created_at
	LastUsedAt *time.Time // push_subscriptions.last_used_at (nullable)
}
