// Package session implements the coordination core for a league
// night: instance lifecycle resolution, the check-in registry, the
// partnership matching protocol and the match/scoring workflow.  The
// services operate over narrow store interfaces and rely on the
// store's uniqueness constraints rather than locks for race safety:
// read-then-write operations re-validate before committing and treat
// a constraint violation as an expected, recoverable Conflict.
package session

import (
	"errors"

	"github.com/courtside/league-night/internal/repository"
)

// Error taxonomy for the coordination core.  Services wrap these with
// fmt.Errorf("%w: reason") so handlers can map the class with
// errors.Is while surfacing a precise reason to the client.
var (
	// ErrInvalidArgument flags malformed or missing input.  Never
	// retried; surfaced to the caller verbatim.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPreconditionFailed flags a referenced entity that exists but
	// is not in a valid state for the operation (a player who is not
	// checked in, a match that has not started).
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrConflict and ErrNotFound are shared with the store layer so
	// that repository results flow through errors.Is unchanged:
	// a duplicate-key violation in the store is the same Conflict the
	// core hands to its caller.
	ErrConflict = repository.ErrConflict
	ErrNotFound = repository.ErrNotFound

	// ErrConfiguration flags malformed league template data, such as a
	// slot index with no template or a template with no courts.
	ErrConfiguration = errors.New("configuration error")
)
