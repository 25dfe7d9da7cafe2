package assessment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/cogcat/internal/apperr"
	"github.com/abhisek/cogcat/internal/irt"
	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/profile"
)

type memChildren map[string]int

func (m memChildren) AgeMonths(_ context.Context, childID string) (int, error) {
	age, ok := m[childID]
	if !ok {
		return 0, apperr.NotFound("child age", "child %q not found", childID)
	}
	return age, nil
}

type memBank struct {
	items []itembank.TestItem

	// failFindAt makes the nth FindEligible call fail as busy storage.
	failFindAt int
	finds      int
}

func (b *memBank) FindEligible(_ context.Context, domain itembank.Domain, minAge, maxAge int, exclude []string) ([]itembank.TestItem, error) {
	if b.failFindAt > 0 {
		b.finds++
		if b.finds == b.failFindAt {
			return nil, apperr.Transient("find items", errors.New("database is locked"))
		}
	}
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []itembank.TestItem
	for _, it := range b.items {
		if it.Domain != domain || !it.Active || skip[it.ID] {
			continue
		}
		if it.MinAgeMonths <= maxAge && it.MaxAgeMonths >= minAge {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *memBank) Get(_ context.Context, id string) (*itembank.TestItem, error) {
	for i := range b.items {
		if b.items[i].ID == id {
			it := b.items[i]
			return &it, nil
		}
	}
	return nil, apperr.NotFound("get item", "item %q not found", id)
}

// uniformBank returns n identical math items answered by "a".
func uniformBank(n int, params irt.ItemParams) *memBank {
	b := &memBank{}
	for i := 0; i < n; i++ {
		b.items = append(b.items, itembank.TestItem{
			ID:           fmt.Sprintf("item-%02d", i),
			Domain:       itembank.DomainMath,
			Params:       params,
			MinAgeMonths: 0,
			MaxAgeMonths: 240,
			Active:       true,
			Content: itembank.Content{
				Type:          "multiple_choice",
				Prompt:        fmt.Sprintf("question %d", i),
				CorrectAnswer: itembank.ScalarAnswer("a"),
			},
		})
	}
	return b
}

type memSessions struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	responses map[string][]ResponseRecord
	folds     []profileCall
	appends   int

	// beforeAppend runs inside AppendResponse with the lock held.
	beforeAppend func(s *Session)

	// appendErr, when it returns an error, fails AppendResponse before
	// anything is written.
	appendErr func(rec *ResponseRecord, upd SessionUpdate) error
}

func newMemSessions() *memSessions {
	return &memSessions{
		sessions:  make(map[string]*Session),
		responses: make(map[string][]ResponseRecord),
	}
}

func (m *memSessions) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.NotFound("get session", "assessment %q not found", id)
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) ListByChild(_ context.Context, childID string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.ChildID == childID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (m *memSessions) Responses(_ context.Context, id string) ([]ResponseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ResponseRecord(nil), m.responses[id]...), nil
}

func (m *memSessions) AppendResponse(_ context.Context, rec *ResponseRecord, upd SessionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[rec.AssessmentID]
	if !ok {
		return apperr.NotFound("append response", "assessment %q not found", rec.AssessmentID)
	}
	if m.appendErr != nil {
		if err := m.appendErr(rec, upd); err != nil {
			return err
		}
	}
	if m.beforeAppend != nil {
		m.beforeAppend(s)
	}
	if s.Status != StatusInProgress || s.ItemsAdministered != upd.ExpectedItems {
		return apperr.InvalidState("append response", "session changed concurrently")
	}
	for _, r := range m.responses[rec.AssessmentID] {
		if r.ItemID == rec.ItemID || r.ItemSequence == rec.ItemSequence {
			return apperr.Validation("append response", "duplicate response")
		}
	}
	m.responses[rec.AssessmentID] = append(m.responses[rec.AssessmentID], *rec)
	s.Theta, s.SE, s.ItemsAdministered = upd.Theta, upd.SE, upd.ItemsAdministered
	if c := upd.Completion; c != nil {
		s.Status = StatusCompleted
		s.StoppingReason = c.Reason
		raw, pct, at := c.RawScore, c.Percentile, c.CompletedAt
		s.RawScore, s.Percentile, s.CompletedAt = &raw, &pct, &at
		m.folds = append(m.folds, profileCall{s.ChildID, s.Domain, upd.Theta, c.Percentile})
	}
	m.appends++
	return nil
}

func (m *memSessions) records(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses[id])
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type profileCall struct {
	ChildID    string
	Domain     itembank.Domain
	Score      float64
	Percentile int
}

type memProfiles struct {
	mu       sync.Mutex
	recorded []string
	err      error
}

func (m *memProfiles) Record(_ context.Context, childID string) (*profile.CognitiveProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, childID)
	if m.err != nil {
		return nil, m.err
	}
	return &profile.CognitiveProfile{ChildID: childID}, nil
}

type memEvents struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (m *memEvents) AppendAssessmentEvent(_ context.Context, ev Event) error {
	if m.fail {
		return errors.New("event log unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memEvents) kinds() []EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventKind, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Kind
	}
	return out
}

type fixture struct {
	engine   *Engine
	bank     *memBank
	sessions *memSessions
	profiles *memProfiles
	events   *memEvents
}

func newFixture(bank *memBank, cfg Config) (*fixture, error) {
	f := &fixture{
		bank:     bank,
		sessions: newMemSessions(),
		profiles: &memProfiles{},
		events:   &memEvents{},
	}
	clock := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	engine, err := NewEngine(cfg, Deps{
		Children: memChildren{"kid": 72},
		Bank:     bank,
		Sessions: f.sessions,
		Profiles: f.profiles,
		Events:   f.events,
	}, WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}))
	if err != nil {
		return nil, err
	}
	f.engine = engine
	return f, nil
}
