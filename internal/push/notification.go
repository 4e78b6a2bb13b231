// Package push implements the notification dispatch layer: fixed
// notification templates keyed to session events, and a dispatcher
// that delivers them to every registered device of a user over Web
// Push, retiring endpoints the push service reports as gone.
package push

import "fmt"

// Notification kinds.  Each corresponds to one triggering session
// event and one template below.
const (
	KindMatchAssigned        = "match_assigned"
	KindScorePending         = "score_pending"
	KindScoreResolved        = "score_resolved"
	KindPartnershipRequested = "partnership_requested"
	KindPartnershipAnswered  = "partnership_answered"
)

// Action is one tappable response on a notification.  The action ids
// map back into the workflow routes (confirm/dispute a score, accept/
// decline a partnership request).
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is the JSON payload delivered to a device.  Link is a
// deep-link into the client for the relevant instance view.
type Notification struct {
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Link    string   `json:"link"`
	Actions []Action `json:"actions,omitempty"`
}

// MatchAssigned announces a new court assignment to all four players.
func MatchAssigned(instanceID uint64, courtNumber int) Notification {
	return Notification{
		Kind:  KindMatchAssigned,
		Title: "Match assigned",
		Body:  fmt.Sprintf("You're up on court %d", courtNumber),
		Link:  fmt.Sprintf("/night/%d/matches", instanceID),
	}
}

// ScorePending asks the non-submitting team to confirm or dispute a
// submitted score.
func ScorePending(instanceID uint64, team1Score, team2Score int) Notification {
	return Notification{
		Kind:  KindScorePending,
		Title: "Score submitted",
		Body:  fmt.Sprintf("The other team reported %d-%d. Confirm?", team1Score, team2Score),
		Link:  fmt.Sprintf("/night/%d/matches", instanceID),
		Actions: []Action{
			{Action: "confirm", Title: "Confirm"},
			{Action: "dispute", Title: "Dispute"},
		},
	}
}

// ScoreResolved reports the confirmation or dispute outcome back to
// the submitting team.
func ScoreResolved(instanceID uint64, confirmed bool) Notification {
	body := "Your score was confirmed."
	if !confirmed {
		body = "Your score was disputed. Please resubmit."
	}
	return Notification{
		Kind:  KindScoreResolved,
		Title: "Score update",
		Body:  body,
		Link:  fmt.Sprintf("/night/%d/matches", instanceID),
	}
}

// PartnershipRequested invites the requested player to answer.
func PartnershipRequested(instanceID uint64, requesterName string) Notification {
	return Notification{
		Kind:  KindPartnershipRequested,
		Title: "Partner request",
		Body:  fmt.Sprintf("%s wants to partner with you tonight", requesterName),
		Link:  fmt.Sprintf("/night/%d/partners", instanceID),
		Actions: []Action{
			{Action: "accept", Title: "Accept"},
			{Action: "decline", Title: "Decline"},
		},
	}
}

// PartnershipAnswered reports the answer back to the requester.
func PartnershipAnswered(instanceID uint64, accepted bool) Notification {
	body := "Your partner request was accepted."
	if !accepted {
		body = "Your partner request was declined."
	}
	return Notification{
		Kind:  KindPartnershipAnswered,
		Title: "Partner request update",
		Body:  body,
		Link:  fmt.Sprintf("/night/%d/partners", instanceID),
	}
}
