package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/session"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestFailStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"invalid argument", fmt.Errorf("%w: scores must be non-negative", session.ErrInvalidArgument), http.StatusBadRequest, "scores must be non-negative"},
		{"not found", fmt.Errorf("%w: no active check-in", session.ErrNotFound), http.StatusNotFound, "no active check-in"},
		{"conflict", fmt.Errorf("%w: already checked in", session.ErrConflict), http.StatusConflict, "already checked in"},
		{"failed precondition", fmt.Errorf("%w: you are not checked in", session.ErrPreconditionFailed), http.StatusConflict, "you are not checked in"},
		{"configuration", fmt.Errorf("%w: league 1 has no slot 7", session.ErrConfiguration), http.StatusInternalServerError, "has no slot"},
		{"unexpected", errors.New("driver: bad connection"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			if err := fail(c, tc.err); err != nil {
				t.Fatalf("fail returned %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var env envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("bad envelope: %v", err)
			}
			if env.Success {
				t.Errorf("success = true on a failure response")
			}
			if !strings.Contains(env.Error, tc.wantError) {
				t.Errorf("error %q does not mention %q", env.Error, tc.wantError)
			}
		})
	}
}

func TestFailHidesUnexpectedDetail(t *testing.T) {
	c, rec := newTestContext(t)
	if err := fail(c, errors.New("dsn user:secret@tcp(db)/x")); err != nil {
		t.Fatalf("fail returned %v", err)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("internal error detail leaked to the client: %s", rec.Body.String())
	}
}

func TestGetUserID(t *testing.T) {
	cases := []struct {
		name    string
		value   any
		want    uint64
		wantErr bool
	}{
		{"string subject", "42", 42, false},
		{"numeric claim", float64(7), 7, false},
		{"uint64", uint64(9), 9, false},
		{"garbage", "not-a-number", 0, true},
		{"missing", nil, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, err := getUserID(c)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("got %d, want error", got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %d, %v; want %d", got, err, tc.want)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	c, _ := newTestContext(t)
	c.SetParamNames("id")
	c.SetParamValues("12")
	if n, ok := pathID(c, "id"); !ok || n != 12 {
		t.Fatalf("pathID = %d, %v; want 12, true", n, ok)
	}

	for _, bad := range []string{"0", "-3", "abc", ""} {
		c, _ := newTestContext(t)
		c.SetParamNames("id")
		c.SetParamValues(bad)
		if _, ok := pathID(c, "id"); ok {
			t.Errorf("pathID accepted %q", bad)
		}
	}
}
