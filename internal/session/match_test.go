package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/push"
)

func pship(id, p1, p2 uint64) model.Partnership {
	return model.Partnership{ID: id, InstanceID: 1, Player1ID: p1, Player2ID: p2, Active: true}
}

func TestPlanMatches(t *testing.T) {
	four := []model.Partnership{pship(10, 1, 2), pship(11, 3, 4), pship(12, 5, 6), pship(13, 7, 8)}

	cases := []struct {
		name         string
		partnerships []model.Partnership
		engaged      map[uint64]bool
		occupied     map[int]bool
		courtCount   int
		wantPairs    [][2]uint64 // team1/team2 partnership ids per match
		wantCourts   []int
	}{
		{
			name:         "pairs in confirmation order",
			partnerships: four,
			courtCount:   4,
			wantPairs:    [][2]uint64{{10, 11}, {12, 13}},
			wantCourts:   []int{1, 2},
		},
		{
			name:         "odd partnership left waiting",
			partnerships: four[:3],
			courtCount:   4,
			wantPairs:    [][2]uint64{{10, 11}},
			wantCourts:   []int{1},
		},
		{
			name:         "occupied courts skipped",
			partnerships: four[:2],
			occupied:     map[int]bool{1: true, 2: true},
			courtCount:   4,
			wantPairs:    [][2]uint64{{10, 11}},
			wantCourts:   []int{3},
		},
		{
			name:         "no free court means no matches",
			partnerships: four[:2],
			occupied:     map[int]bool{1: true, 2: true},
			courtCount:   2,
		},
		{
			name:         "courts run out before partnerships",
			partnerships: four,
			courtCount:   1,
			wantPairs:    [][2]uint64{{10, 11}},
			wantCourts:   []int{1},
		},
		{
			name:         "engaged partnerships excluded",
			partnerships: four,
			engaged:      map[uint64]bool{10: true, 12: true},
			courtCount:   4,
			wantPairs:    [][2]uint64{{11, 13}},
			wantCourts:   []int{1},
		},
		{
			name:         "single partnership waits",
			partnerships: four[:1],
			courtCount:   4,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PlanMatches(1, tc.partnerships, tc.engaged, tc.occupied, tc.courtCount)
			if len(got) != len(tc.wantPairs) {
				t.Fatalf("%d matches planned, want %d", len(got), len(tc.wantPairs))
			}
			for i, m := range got {
				if m.Team1PartnershipID != tc.wantPairs[i][0] || m.Team2PartnershipID != tc.wantPairs[i][1] {
					t.Errorf("match %d pairs %d vs %d, want %d vs %d",
						i, m.Team1PartnershipID, m.Team2PartnershipID, tc.wantPairs[i][0], tc.wantPairs[i][1])
				}
				if m.CourtNumber != tc.wantCourts[i] {
					t.Errorf("match %d on court %d, want %d", i, m.CourtNumber, tc.wantCourts[i])
				}
				if m.Status != model.MatchQueued {
					t.Errorf("match %d status %s, want %s", i, m.Status, model.MatchQueued)
				}
			}
		})
	}
}

type matchFixture struct {
	ms     *memStore
	events *eventLog
	notes  *noteLog
	svc    *MatchService
	in     *model.Instance
	pa, pb *model.Partnership
}

// newMatchFixture seeds an in-progress instance with two confirmed
// partnerships: players 1+2 and players 3+4.
func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()
	ms := newMemStore()
	ms.seedLeague(1, "league")
	in := ms.seedInstance(1, "2026-01-07", model.InstanceInProgress, 2)
	ctx := context.Background()

	ps := partnershipStore{ms}
	var pairs []*model.Partnership
	for _, duo := range [][2]uint64{{1, 2}, {3, 4}} {
		req := &model.PartnershipRequest{InstanceID: in.ID, RequesterID: duo[0], RequestedID: duo[1]}
		if err := ps.CreateRequest(ctx, req); err != nil {
			t.Fatalf("seed request: %v", err)
		}
		p, err := ps.Accept(ctx, req)
		if err != nil {
			t.Fatalf("seed accept: %v", err)
		}
		pairs = append(pairs, p)
	}

	events := &eventLog{}
	notes := &noteLog{}
	svc := NewMatchService(instanceStore{ms}, ps, matchStore{ms}, events, notes)
	return &matchFixture{ms: ms, events: events, notes: notes, svc: svc, in: in, pa: pairs[0], pb: pairs[1]}
}

// generate creates the round's matches and returns the single match
// the two seeded partnerships produce.
func (f *matchFixture) generate(t *testing.T) *model.Match {
	t.Helper()
	created, err := f.svc.GenerateMatches(context.Background(), f.in.ID)
	if err != nil {
		t.Fatalf("GenerateMatches: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("%d matches created, want 1", len(created))
	}
	return created[0]
}

// started generates and starts the round's match.
func (f *matchFixture) started(t *testing.T) *model.Match {
	t.Helper()
	m := f.generate(t)
	m, err := f.svc.StartMatch(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	return m
}

func TestGenerateMatches(t *testing.T) {
	f := newMatchFixture(t)
	m := f.generate(t)

	if m.Team1Players != [2]uint64{1, 2} || m.Team2Players != [2]uint64{3, 4} {
		t.Errorf("teams %v vs %v, want 1+2 vs 3+4", m.Team1Players, m.Team2Players)
	}
	notes := f.notes.byKind(push.KindMatchAssigned)
	if len(notes) != 1 {
		t.Fatalf("%d assignment notifications, want 1", len(notes))
	}
	if len(notes[0].UserIDs) != 4 {
		t.Errorf("assignment targets %v, want all four players", notes[0].UserIDs)
	}
	if notes[0].CourtNumber != m.CourtNumber {
		t.Errorf("assignment court %d, want %d", notes[0].CourtNumber, m.CourtNumber)
	}

	// Both partnerships are now engaged; another generation is empty.
	again, err := f.svc.GenerateMatches(context.Background(), f.in.ID)
	if err != nil {
		t.Fatalf("second GenerateMatches: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second round created %d matches, want 0", len(again))
	}
}

func TestConcurrentGenerateMatchesOneRound(t *testing.T) {
	f := newMatchFixture(t)

	// Two organizers generate at the same moment.  Both read the same
	// waiting partnerships and the same free court; the store's live
	// court uniqueness lets only one batch land.
	const workers = 2
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ms, err := f.svc.GenerateMatches(context.Background(), f.in.ID)
			if err != nil {
				if !errors.Is(err, ErrConflict) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			created += len(ms)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if created > 1 {
		t.Fatalf("%d matches created across concurrent generations, want at most 1", created)
	}
	all, err := (matchStore{f.ms}).ListByInstance(context.Background(), f.in.ID)
	if err != nil {
		t.Fatalf("ListByInstance: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("store holds %d matches, want exactly 1", len(all))
	}
}

func TestGenerateMatchesOnCompletedNight(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()
	is := instanceStore{f.ms}
	if err := is.UpdateStatus(ctx, f.in.ID, model.InstanceInProgress, model.InstanceCompleted); err != nil {
		t.Fatalf("seed status: %v", err)
	}
	if _, err := f.svc.GenerateMatches(ctx, f.in.ID); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("got %v, want ErrPreconditionFailed", err)
	}
}

func TestStartMatch(t *testing.T) {
	f := newMatchFixture(t)
	m := f.generate(t)
	ctx := context.Background()

	started, err := f.svc.StartMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if started.Status != model.MatchInProgress {
		t.Fatalf("status = %s, want %s", started.Status, model.MatchInProgress)
	}
	if _, err := f.svc.StartMatch(ctx, m.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("double start: got %v, want ErrConflict", err)
	}
}

func TestSubmitScore(t *testing.T) {
	f := newMatchFixture(t)
	m := f.started(t)
	ctx := context.Background()

	sc, err := f.svc.SubmitScore(ctx, m.ID, 1, 21, 15)
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if sc.Status != model.ScorePending || sc.SubmittedByTeam != 1 {
		t.Fatalf("score = %+v, want pending from team 1", sc)
	}

	// The opposing team is asked to confirm.
	notes := f.notes.byKind(push.KindScorePending)
	if len(notes) != 1 {
		t.Fatalf("%d pending-score notifications, want 1", len(notes))
	}
	if got := notes[0].UserIDs; len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("notification targets %v, want [3 4]", got)
	}

	// One pending score at a time, whoever submits it.
	if _, err := f.svc.SubmitScore(ctx, m.ID, 3, 15, 21); !errors.Is(err, ErrConflict) {
		t.Fatalf("second submission: got %v, want ErrConflict", err)
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	f := newMatchFixture(t)
	m := f.generate(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitScore(ctx, m.ID, 1, -1, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative score: got %v, want ErrInvalidArgument", err)
	}
	if _, err := f.svc.SubmitScore(ctx, m.ID, 9, 21, 15); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("non-member: got %v, want ErrInvalidArgument", err)
	}
	// Match is still queued.
	if _, err := f.svc.SubmitScore(ctx, m.ID, 1, 21, 15); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("queued match: got %v, want ErrPreconditionFailed", err)
	}
}

func TestConfirmScore(t *testing.T) {
	f := newMatchFixture(t)
	m := f.started(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitScore(ctx, m.ID, 1, 21, 15); err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}

	// The submitting team cannot confirm its own score.
	if _, err := f.svc.ConfirmScore(ctx, m.ID, 2); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("same-team confirm: got %v, want ErrInvalidArgument", err)
	}
	// Nor can an outsider.
	if _, err := f.svc.ConfirmScore(ctx, m.ID, 9); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("outsider confirm: got %v, want ErrInvalidArgument", err)
	}

	sc, err := f.svc.ConfirmScore(ctx, m.ID, 3)
	if err != nil {
		t.Fatalf("ConfirmScore: %v", err)
	}
	if sc.Status != model.ScoreConfirmed {
		t.Fatalf("score status = %s, want %s", sc.Status, model.ScoreConfirmed)
	}

	// Confirmation completes the match.
	got, err := (matchStore{f.ms}).GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.MatchCompleted {
		t.Fatalf("match status = %s, want %s", got.Status, model.MatchCompleted)
	}

	// The submitting team hears the result stands.
	notes := f.notes.byKind(push.KindScoreResolved)
	if len(notes) != 1 || !notes[0].Positive {
		t.Fatalf("resolved notifications = %+v, want one positive", notes)
	}
	if got := notes[0].UserIDs; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("notification targets %v, want [1 2]", got)
	}

	// Nothing left to confirm.
	if _, err := f.svc.ConfirmScore(ctx, m.ID, 3); !errors.Is(err, ErrConflict) {
		t.Fatalf("second confirm: got %v, want ErrConflict", err)
	}
}

func TestDisputeScoreAllowsResubmission(t *testing.T) {
	f := newMatchFixture(t)
	m := f.started(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitScore(ctx, m.ID, 1, 21, 15); err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if err := f.svc.DisputeScore(ctx, m.ID, 4); err != nil {
		t.Fatalf("DisputeScore: %v", err)
	}

	// The match stays in progress and either team may submit again.
	got, err := (matchStore{f.ms}).GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.MatchInProgress {
		t.Fatalf("match status = %s, want %s", got.Status, model.MatchInProgress)
	}
	if _, err := f.svc.SubmitScore(ctx, m.ID, 3, 15, 21); err != nil {
		t.Fatalf("resubmit after dispute: %v", err)
	}

	notes := f.notes.byKind(push.KindScoreResolved)
	if len(notes) != 1 || notes[0].Positive {
		t.Fatalf("resolved notifications = %+v, want one negative", notes)
	}
}

func TestConfirmWithoutPendingScore(t *testing.T) {
	f := newMatchFixture(t)
	m := f.started(t)

	if _, err := f.svc.ConfirmScore(context.Background(), m.ID, 3); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestCompletedMatchReleasesPartnerships(t *testing.T) {
	f := newMatchFixture(t)
	m := f.started(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitScore(ctx, m.ID, 1, 21, 15); err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if _, err := f.svc.ConfirmScore(ctx, m.ID, 3); err != nil {
		t.Fatalf("ConfirmScore: %v", err)
	}

	// Both partnerships are free for another round on the same court.
	next := f.generate(t)
	if next.ID == m.ID {
		t.Fatalf("expected a fresh match")
	}
	if next.CourtNumber != m.CourtNumber {
		t.Errorf("court %d, want the freed court %d", next.CourtNumber, m.CourtNumber)
	}
}
