// Package repository implements the MySQL-backed store for the league
// night domain.  This file defines error values reused across the
// repositories.  Uniqueness constraints in the schema are the
// authority for the concurrency invariants (one active check-in per
// player, one active partnership per player, one instance per league
// per date); a duplicate-key violation therefore is not a fault but an
// expected "someone else won the race" outcome, and every repository
// translates it into ErrConflict so that callers can catch it with
// errors.Is and react.
package repository

import (
	"errors"
	"strings"
)

// ErrConflict is returned when a write would violate one of the
// schema's uniqueness or state invariants, including the case where a
// concurrent caller committed first.  Handlers translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when a referenced row does not exist, or no
// active row exists where an active one is required.  Handlers
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// isDuplicate reports whether err is a MySQL duplicate-entry error
// (error number 1062).  The substring check mirrors how the driver
// surfaces the error text and keeps driver-specific error types out of
// the call sites.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
