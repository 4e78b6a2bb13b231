package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/session"
)

// MatchHandler exposes match generation and the scoring workflow.
type MatchHandler struct {
	Matches *session.MatchService
}

// NewMatchHandler constructs a MatchHandler.
func NewMatchHandler(matches *session.MatchService) *MatchHandler {
	if matches == nil {
		panic("nil service passed to NewMatchHandler")
	}
	return &MatchHandler{Matches: matches}
}

func matchJSON(m *model.Match) echo.Map {
	return echo.Map{
		"id":           m.ID,
		"instance_id":  m.InstanceID,
		"court_number": m.CourtNumber,
		"status":       m.Status,
		"team1":        echo.Map{"partnership_id": m.Team1PartnershipID, "players": m.Team1Players},
		"team2":        echo.Map{"partnership_id": m.Team2PartnershipID, "players": m.Team2Players},
		"created_at":   m.CreatedAt,
	}
}

func scoreJSON(sc *model.MatchScore) echo.Map {
	return echo.Map{
		"id":                sc.ID,
		"match_id":          sc.MatchID,
		"submitted_by_team": sc.SubmittedByTeam,
		"team1_score":       sc.Team1Score,
		"team2_score":       sc.Team2Score,
		"status":            sc.Status,
	}
}

// Generate handles POST /v1/instances/:id/matches.  Waiting
// partnerships are paired two at a time onto free courts.
func (h *MatchHandler) Generate(c echo.Context) error {
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	created, err := h.Matches.GenerateMatches(c.Request().Context(), instanceID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(created))
	for _, m := range created {
		out = append(out, matchJSON(m))
	}
	return ok(c, http.StatusCreated, out)
}

// List handles GET /v1/instances/:id/matches.
func (h *MatchHandler) List(c echo.Context) error {
	instanceID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid instance id")
	}
	list, err := h.Matches.ListMatches(c.Request().Context(), instanceID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for i := range list {
		out = append(out, matchJSON(&list[i]))
	}
	return ok(c, http.StatusOK, out)
}

// Start handles POST /v1/matches/:id/start.
func (h *MatchHandler) Start(c echo.Context) error {
	matchID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid match id")
	}
	m, err := h.Matches.StartMatch(c.Request().Context(), matchID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, matchJSON(m))
}

// SubmitScore handles POST /v1/matches/:id/score.  The submitter's
// team is derived from the authenticated player.
func (h *MatchHandler) SubmitScore(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	matchID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid match id")
	}
	var body struct {
		Team1Score *int `json:"team1_score"`
		Team2Score *int `json:"team2_score"`
	}
	if err := c.Bind(&body); err != nil {
		return failBadRequest(c, "invalid request body")
	}
	if body.Team1Score == nil || body.Team2Score == nil {
		return failBadRequest(c, "team1_score and team2_score are required")
	}
	sc, err := h.Matches.SubmitScore(c.Request().Context(), matchID, userID, *body.Team1Score, *body.Team2Score)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, scoreJSON(sc))
}

// ConfirmScore handles POST /v1/matches/:id/score/confirm.  Only a
// player on the non-submitting team may confirm; the match completes.
func (h *MatchHandler) ConfirmScore(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	matchID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid match id")
	}
	sc, err := h.Matches.ConfirmScore(c.Request().Context(), matchID, userID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, scoreJSON(sc))
}

// DisputeScore handles POST /v1/matches/:id/score/dispute.  Clears
// the pending score so the match can be rescored.
func (h *MatchHandler) DisputeScore(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "unauthorized"})
	}
	matchID, okID := pathID(c, "id")
	if !okID {
		return failBadRequest(c, "invalid match id")
	}
	if err := h.Matches.DisputeScore(c.Request().Context(), matchID, userID); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}
