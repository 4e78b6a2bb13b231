// Package queue defines the notification events exchanged over the
// message broker and the background consumer that turns them into push
// deliveries.  Mutating requests publish an event after commit and
// return immediately; the broker decouples them from delivery latency
// and failures.
package queue

import "github.com/courtside/league-night/internal/push"

// NotificationEvent asks the dispatch consumer to push one templated
// notification to a set of users.  Kind selects the template; the
// remaining fields parameterize it and are only meaningful for the
// kinds that use them.
type NotificationEvent struct {
	Kind          string   `json:"kind"`
	InstanceID    uint64   `json:"instance_id"`
	UserIDs       []uint64 `json:"user_ids"`
	CourtNumber   int      `json:"court_number,omitempty"`
	Team1Score    int      `json:"team1_score,omitempty"`
	Team2Score    int      `json:"team2_score,omitempty"`
	Positive      bool     `json:"positive,omitempty"`
	RequesterName string   `json:"requester_name,omitempty"`
}

// Notification renders the event's template.  Unknown kinds return
// false so the consumer can reject the message without retrying.
func (e NotificationEvent) Notification() (push.Notification, bool) {
	switch e.Kind {
	case push.KindMatchAssigned:
		return push.MatchAssigned(e.InstanceID, e.CourtNumber), true
	case push.KindScorePending:
		return push.ScorePending(e.InstanceID, e.Team1Score, e.Team2Score), true
	case push.KindScoreResolved:
		return push.ScoreResolved(e.InstanceID, e.Positive), true
	case push.KindPartnershipRequested:
		return push.PartnershipRequested(e.InstanceID, e.RequesterName), true
	case push.KindPartnershipAnswered:
		return push.PartnershipAnswered(e.InstanceID, e.Positive), true
	}
	return push.Notification{}, false
}
