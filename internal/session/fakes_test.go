package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/courtside/league-night/internal/model"
	"github.com/courtside/league-night/internal/queue"
	"github.com/courtside/league-night/internal/realtime"
)

// memStore is an in-memory implementation of every store interface the
// services consume.  It enforces the same uniqueness rules the MySQL
// schema does and reports violations as ErrConflict, so the services'
// race handling can be exercised without a database.  All methods are
// safe for concurrent use.
type memStore struct {
	mu     sync.Mutex
	nextID uint64

	leagues   map[uint64]*model.League
	templates map[uint64][]model.LeagueDayTemplate
	users     map[uint64]*model.User

	instances      map[uint64]*model.Instance
	instanceByDate map[string]uint64 // "leagueID|date" -> instance id

	checkins []*model.Checkin

	requests     map[uint64]*model.PartnershipRequest
	partnerships map[uint64]*model.Partnership
	partnerOf    map[string]uint64 // "instanceID|userID" -> active partnership id

	matches map[uint64]*model.Match
	scores  map[uint64]*model.MatchScore

	// beforeInstanceStatusUpdate, when set, runs at the top of
	// UpdateStatus so tests can interleave a competing write.
	beforeInstanceStatusUpdate func()
}

func newMemStore() *memStore {
	return &memStore{
		leagues:        make(map[uint64]*model.League),
		templates:      make(map[uint64][]model.LeagueDayTemplate),
		users:          make(map[uint64]*model.User),
		instances:      make(map[uint64]*model.Instance),
		instanceByDate: make(map[string]uint64),
		requests:       make(map[uint64]*model.PartnershipRequest),
		partnerships:   make(map[uint64]*model.Partnership),
		partnerOf:      make(map[string]uint64),
		matches:        make(map[uint64]*model.Match),
		scores:         make(map[uint64]*model.MatchScore),
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func instanceDateKey(leagueID uint64, date string) string {
	return fmt.Sprintf("%d|%s", leagueID, date)
}

func memberKey(instanceID, userID uint64) string {
	return fmt.Sprintf("%d|%d", instanceID, userID)
}

// --- LeagueStore ---

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.League, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leagues[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memStore) ListDayTemplates(ctx context.Context, leagueID uint64) ([]model.LeagueDayTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.LeagueDayTemplate(nil), m.templates[leagueID]...), nil
}

// --- InstanceStore ---

// instanceStore wraps memStore so that its GetByID does not collide
// with the league accessor of the same name.
type instanceStore struct{ *memStore }

func (s instanceStore) GetByID(ctx context.Context, id uint64) (*model.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.instances[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (s instanceStore) GetByLeagueAndDate(ctx context.Context, leagueID uint64, date string) (*model.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.instanceByDate[instanceDateKey(leagueID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.instances[id]
	return &cp, nil
}

func (s instanceStore) Create(ctx context.Context, in *model.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := instanceDateKey(in.LeagueID, in.Date)
	if _, exists := s.instanceByDate[key]; exists {
		return ErrConflict
	}
	in.ID = s.id()
	in.CreatedAt = time.Now()
	cp := *in
	s.instances[in.ID] = &cp
	s.instanceByDate[key] = in.ID
	return nil
}

func (s instanceStore) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	if s.beforeInstanceStatusUpdate != nil {
		s.beforeInstanceStatusUpdate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.instances[id]
	if !ok || in.Status != from {
		return ErrConflict
	}
	in.Status = to
	return nil
}

// --- CheckinStore ---

func (m *memStore) CreateCheckin(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ci := range m.checkins {
		if ci.Active && ci.InstanceID == instanceID && ci.UserID == userID {
			return nil, ErrConflict
		}
	}
	ci := &model.Checkin{
		ID:         m.id(),
		InstanceID: instanceID,
		UserID:     userID,
		Active:     true,
		CreatedAt:  time.Now(),
	}
	m.checkins = append(m.checkins, ci)
	cp := *ci
	return &cp, nil
}

func (m *memStore) DeactivateCheckin(ctx context.Context, instanceID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ci := range m.checkins {
		if ci.Active && ci.InstanceID == instanceID && ci.UserID == userID {
			ci.Active = false
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) GetActiveCheckin(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ci := range m.checkins {
		if ci.Active && ci.InstanceID == instanceID && ci.UserID == userID {
			cp := *ci
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListActiveCheckins(ctx context.Context, instanceID uint64) ([]model.CheckinWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CheckinWithUser
	for _, ci := range m.checkins {
		if ci.Active && ci.InstanceID == instanceID {
			row := model.CheckinWithUser{Checkin: *ci}
			if u, ok := m.users[ci.UserID]; ok {
				row.UserName = u.Name
				row.UserEmail = u.Email
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// checkinStore adapts the memStore checkin methods to the interface
// method names.
type checkinStore struct{ *memStore }

func (s checkinStore) Create(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error) {
	return s.CreateCheckin(ctx, instanceID, userID)
}

func (s checkinStore) Deactivate(ctx context.Context, instanceID, userID uint64) error {
	return s.DeactivateCheckin(ctx, instanceID, userID)
}

func (s checkinStore) GetActive(ctx context.Context, instanceID, userID uint64) (*model.Checkin, error) {
	return s.GetActiveCheckin(ctx, instanceID, userID)
}

func (s checkinStore) ListActive(ctx context.Context, instanceID uint64) ([]model.CheckinWithUser, error) {
	return s.ListActiveCheckins(ctx, instanceID)
}

// --- PartnershipStore ---

type partnershipStore struct{ *memStore }

func (s partnershipStore) GetRequest(ctx context.Context, id uint64) (*model.PartnershipRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s partnershipStore) CreateRequest(ctx context.Context, req *model.PartnershipRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = s.id()
	req.Status = model.RequestPending
	req.CreatedAt = time.Now()
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s partnershipStore) HasPendingBetween(ctx context.Context, instanceID, a, b uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.InstanceID != instanceID || req.Status != model.RequestPending {
			continue
		}
		if (req.RequesterID == a && req.RequestedID == b) || (req.RequesterID == b && req.RequestedID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (s partnershipStore) ListRequests(ctx context.Context, instanceID uint64) ([]model.PartnershipRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PartnershipRequest
	for id := uint64(1); id <= s.nextID; id++ {
		if req, ok := s.requests[id]; ok && req.InstanceID == instanceID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (s partnershipStore) UpdateRequestStatus(ctx context.Context, id uint64, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.Status != from {
		return ErrConflict
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	return nil
}

func (s partnershipStore) Accept(ctx context.Context, req *model.PartnershipRequest) (*model.Partnership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[req.ID]
	if !ok || stored.Status != model.RequestPending {
		return nil, ErrConflict
	}
	k1 := memberKey(req.InstanceID, req.RequesterID)
	k2 := memberKey(req.InstanceID, req.RequestedID)
	if _, taken := s.partnerOf[k1]; taken {
		return nil, ErrConflict
	}
	if _, taken := s.partnerOf[k2]; taken {
		return nil, ErrConflict
	}
	stored.Status = model.RequestAccepted
	stored.UpdatedAt = time.Now()
	p := &model.Partnership{
		ID:         s.id(),
		InstanceID: req.InstanceID,
		Player1ID:  req.RequesterID,
		Player2ID:  req.RequestedID,
		Active:     true,
		CreatedAt:  time.Now(),
	}
	s.partnerships[p.ID] = p
	s.partnerOf[k1] = p.ID
	s.partnerOf[k2] = p.ID
	cp := *p
	return &cp, nil
}

func (s partnershipStore) GetPartnership(ctx context.Context, id uint64) (*model.Partnership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partnerships[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s partnershipStore) GetActiveForUser(ctx context.Context, instanceID, userID uint64) (*model.Partnership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.partnerOf[memberKey(instanceID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.partnerships[id]
	return &cp, nil
}

func (s partnershipStore) ListActive(ctx context.Context, instanceID uint64) ([]model.Partnership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Partnership
	for id := uint64(1); id <= s.nextID; id++ {
		if p, ok := s.partnerships[id]; ok && p.Active && p.InstanceID == instanceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s partnershipStore) Deactivate(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partnerships[id]
	if !ok || !p.Active {
		return ErrNotFound
	}
	p.Active = false
	delete(s.partnerOf, memberKey(p.InstanceID, p.Player1ID))
	delete(s.partnerOf, memberKey(p.InstanceID, p.Player2ID))
	return nil
}

// --- MatchStore ---

type matchStore struct{ *memStore }

func (s matchStore) GetByID(ctx context.Context, id uint64) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s matchStore) ListByInstance(ctx context.Context, instanceID uint64) ([]model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Match
	for id := uint64(1); id <= s.nextID; id++ {
		if m, ok := s.matches[id]; ok && m.InstanceID == instanceID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// CreateBatch mirrors the live-court uniqueness of the store: a court
// already held by a queued or in-progress match rejects the whole
// batch with ErrConflict.
func (s matchStore) CreateBatch(ctx context.Context, matches []*model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, nm := range matches {
		for _, existing := range s.matches {
			live := existing.Status == model.MatchQueued || existing.Status == model.MatchInProgress
			if live && existing.InstanceID == nm.InstanceID && existing.CourtNumber == nm.CourtNumber {
				return ErrConflict
			}
		}
	}
	for _, nm := range matches {
		nm.ID = s.id()
		nm.CreatedAt = time.Now()
		cp := *nm
		s.matches[nm.ID] = &cp
	}
	return nil
}

func (s matchStore) EngagedPartnershipIDs(ctx context.Context, instanceID uint64) (map[uint64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]bool)
	for _, m := range s.matches {
		if m.InstanceID != instanceID {
			continue
		}
		if m.Status == model.MatchQueued || m.Status == model.MatchInProgress {
			out[m.Team1PartnershipID] = true
			out[m.Team2PartnershipID] = true
		}
	}
	return out, nil
}

func (s matchStore) OccupiedCourts(ctx context.Context, instanceID uint64) (map[int]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]bool)
	for _, m := range s.matches {
		if m.InstanceID != instanceID {
			continue
		}
		if m.Status == model.MatchQueued || m.Status == model.MatchInProgress {
			out[m.CourtNumber] = true
		}
	}
	return out, nil
}

func (s matchStore) HasBlockingMatch(ctx context.Context, partnershipID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.Team1PartnershipID != partnershipID && m.Team2PartnershipID != partnershipID {
			continue
		}
		if m.Status == model.MatchInProgress || m.Status == model.MatchCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (s matchStore) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok || m.Status != from {
		return ErrConflict
	}
	m.Status = to
	return nil
}

func (s matchStore) CreatePendingScore(ctx context.Context, sc *model.MatchScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.scores {
		if existing.MatchID == sc.MatchID && existing.Status == model.ScorePending {
			return ErrConflict
		}
	}
	sc.ID = s.id()
	sc.Status = model.ScorePending
	sc.SubmittedAt = time.Now()
	cp := *sc
	s.scores[sc.ID] = &cp
	return nil
}

func (s matchStore) GetPendingScore(ctx context.Context, matchID uint64) (*model.MatchScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.scores {
		if sc.MatchID == matchID && sc.Status == model.ScorePending {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s matchStore) ConfirmScore(ctx context.Context, matchID, scoreID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scores[scoreID]
	if !ok || sc.Status != model.ScorePending {
		return ErrConflict
	}
	m, ok := s.matches[matchID]
	if !ok || m.Status != model.MatchInProgress {
		return ErrConflict
	}
	now := time.Now()
	sc.Status = model.ScoreConfirmed
	sc.ResolvedAt = &now
	m.Status = model.MatchCompleted
	return nil
}

func (s matchStore) DisputeScore(ctx context.Context, scoreID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scores[scoreID]
	if !ok || sc.Status != model.ScorePending {
		return ErrConflict
	}
	now := time.Now()
	sc.Status = model.ScoreDisputed
	sc.ResolvedAt = &now
	return nil
}

// --- UserStore ---

type userStore struct{ *memStore }

func (s userStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// --- recorders ---

// eventLog records published realtime events.
type eventLog struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (l *eventLog) Publish(ctx context.Context, e realtime.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(kind realtime.EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// noteLog records enqueued notification events.
type noteLog struct {
	mu     sync.Mutex
	events []queue.NotificationEvent
	err    error // returned from PublishNotification when set
}

func (l *noteLog) PublishNotification(ctx context.Context, e queue.NotificationEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.events = append(l.events, e)
	return nil
}

func (l *noteLog) byKind(kind string) []queue.NotificationEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []queue.NotificationEvent
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// --- seeding helpers ---

func (m *memStore) seedLeague(id uint64, name string, tpls ...model.LeagueDayTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leagues[id] = &model.League{ID: id, Name: name, CreatedAt: time.Now()}
	m.templates[id] = tpls
}

func (m *memStore) seedUser(id uint64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &model.User{ID: id, Name: name, Email: fmt.Sprintf("%s@club.test", name)}
}

func (m *memStore) seedInstance(leagueID uint64, date, status string, courtCount int) *model.Instance {
	in := &model.Instance{
		LeagueID:   leagueID,
		Date:       date,
		StartTime:  "19:00",
		CourtCount: courtCount,
		Status:     status,
	}
	if err := (instanceStore{m}).Create(context.Background(), in); err != nil {
		panic(err)
	}
	return in
}
