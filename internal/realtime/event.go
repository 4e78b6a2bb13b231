// Package realtime implements the per-instance event fan-out layer:
// a process-wide registry of subscribers keyed by instance id, plus a
// Redis pub/sub bridge so that several server processes share one
// logical channel per instance.  Events are deliberately minimal, a
// kind and an instance id.  Subscribers re-fetch authoritative state
// when notified instead of trusting event payloads.
package realtime

import "fmt"

// EventKind identifies what category of session state changed.
type EventKind string

// The closed set of event kinds.  Components that mutate state publish
// exactly one of these per successful mutation.
const (
	CheckinsChanged              EventKind = "checkins_changed"
	PartnershipRequestsChanged   EventKind = "partnership_requests_changed"
	ConfirmedPartnershipsChanged EventKind = "confirmed_partnerships_changed"
	MatchesChanged               EventKind = "matches_changed"
	InstanceStatusChanged        EventKind = "instance_status_changed"
)

// Event is the unit of fan-out.  It carries no payload beyond
// "something of this kind changed on this instance".
type Event struct {
	Kind       EventKind `json:"kind"`
	InstanceID uint64    `json:"instance_id"`
}

// ChannelName returns the deterministic broadcast channel name for an
// instance.  Both the in-process registry and the Redis bridge key off
// this name.
func ChannelName(instanceID uint64) string {
	return fmt.Sprintf("session.events.%d", instanceID)
}
