package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/session"
)

// All endpoints answer with a uniform envelope so clients never have
// to guess the shape of a response: {success, data?, error?}.  The
// error string carries the precise reason produced by the core (for
// example "conflict: already checked in") so the client can update its
// UI without re-deriving state.

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ok writes a success envelope.
func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// fail maps a core error onto the HTTP status taxonomy and writes a
// failure envelope.  400 invalid input, 404 not found, 409 conflict or
// failed precondition, 500 for configuration problems and anything
// unexpected.  Unexpected errors are not echoed to the client.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, envelope{Error: err.Error()})
	case errors.Is(err, session.ErrNotFound):
		return c.JSON(http.StatusNotFound, envelope{Error: err.Error()})
	case errors.Is(err, session.ErrConflict), errors.Is(err, session.ErrPreconditionFailed):
		return c.JSON(http.StatusConflict, envelope{Error: err.Error()})
	case errors.Is(err, session.ErrConfiguration):
		return c.JSON(http.StatusInternalServerError, envelope{Error: err.Error()})
	}
	c.Logger().Errorf("unexpected error: %v", err)
	return c.JSON(http.StatusInternalServerError, envelope{Error: "internal error"})
}

// failBadRequest is a shortcut for input the handler rejects before
// reaching the core.
func failBadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, envelope{Error: msg})
}

// getUserID extracts the authenticated user's id from the context,
// where the JWT middleware stored it.  Tokens from the identity
// service carry the subject as a string.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
