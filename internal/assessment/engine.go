package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/cogcat/internal/apperr"
	"github.com/abhisek/cogcat/internal/irt"
	"github.com/abhisek/cogcat/internal/itembank"
)

// ErrNoEligibleItems is wrapped when a session cannot start because no item
// fits the child's age and the requested domain.
var ErrNoEligibleItems = errors.New("no eligible items")

// Deps are the engine's collaborators. Profiles and Events are optional.
type Deps struct {
	Children ChildRegistry
	Bank     itembank.Bank
	Sessions SessionRepo
	Profiles ProfileRecorder
	Events   EventRepo
}

// Engine drives adaptive testing sessions.
type Engine struct {
	cfg      Config
	deps     Deps
	selector *itembank.Selector
	locks    *lockSet
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how session and response ids are minted.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// NewEngine validates cfg and wires the engine.
func NewEngine(cfg Config, deps Deps, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if deps.Children == nil || deps.Bank == nil || deps.Sessions == nil {
		return nil, errors.New("engine requires children, bank, and sessions")
	}

	e := &Engine{
		cfg:    cfg,
		deps:   deps,
		locks:  newLockSet(),
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(e)
	}
	e.selector = itembank.NewSelector(deps.Bank, cfg.AgeSlackMonths, e.logger)
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// StartResult is returned by Start.
type StartResult struct {
	Session   *Session           `json:"assessment"`
	FirstItem *itembank.TestItem `json:"first_item"`
}

// RespondResult is returned by Respond.
type RespondResult struct {
	IsCorrect      bool               `json:"is_correct"`
	NewTheta       float64            `json:"new_theta"`
	NewSE          float64            `json:"new_se"`
	IsComplete     bool               `json:"is_complete"`
	StoppingReason StoppingReason     `json:"stopping_reason,omitempty"`
	NextItem       *itembank.TestItem `json:"next_item,omitempty"`
	Feedback       Feedback           `json:"feedback"`
	Session        *Session           `json:"-"`
}

// Start opens a session for childID in domain and returns its first item.
// Nothing is persisted when no item is eligible.
func (e *Engine) Start(ctx context.Context, childID string, domain itembank.Domain) (*StartResult, error) {
	const op = "start assessment"
	if !domain.Valid() {
		return nil, apperr.Validation(op, "unknown domain %q", domain)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StorageTimeout)
	defer cancel()

	age, err := e.deps.Children.AgeMonths(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("resolve child age: %w", err)
	}

	first, err := e.selector.SelectNext(ctx, e.cfg.InitialTheta, age, domain, nil)
	if err != nil {
		return nil, fmt.Errorf("select first item: %w", err)
	}
	if first == nil {
		return nil, &apperr.Error{
			Kind: apperr.KindNotFound,
			Op:   op,
			Msg:  fmt.Sprintf("child age %d months, domain %s", age, domain),
			Err:  ErrNoEligibleItems,
		}
	}

	s := &Session{
		ID:        e.newID(),
		ChildID:   childID,
		Domain:    domain,
		Theta:     e.cfg.InitialTheta,
		SE:        e.cfg.InitialSE,
		Status:    StatusInProgress,
		StartedAt: e.now().UTC(),
	}
	if err := e.deps.Sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	e.logger.Info("assessment started",
		"assessment", s.ID, "child", childID, "age_months", age, "domain", domain)
	e.appendEvent(ctx, Event{
		Kind:         EventStarted,
		AssessmentID: s.ID,
		ChildID:      childID,
		Domain:       domain,
		Theta:        s.Theta,
		SE:           s.SE,
	})

	return &StartResult{Session: s, FirstItem: first}, nil
}

// Respond scores a response to itemID, updates the ability estimate, and
// returns either the next item or the completed result. Calls for the same
// assessment are serialized. The response, the session update, and any
// completion are written together, so a failed call leaves nothing behind.
func (e *Engine) Respond(ctx context.Context, assessmentID, itemID string, response itembank.Answer, reactionTimeMs int) (*RespondResult, error) {
	const op = "respond"
	if response.Empty() {
		return nil, apperr.Validation(op, "response is empty")
	}
	if reactionTimeMs < 0 {
		return nil, apperr.Validation(op, "reaction time must not be negative, got %d", reactionTimeMs)
	}

	unlock := e.locks.lock(assessmentID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StorageTimeout)
	defer cancel()

	s, err := e.deps.Sessions.Get(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.Status != StatusInProgress {
		return nil, apperr.InvalidState(op, "assessment %s is %s", assessmentID, s.Status)
	}

	item, err := e.deps.Bank.Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}

	history, err := e.deps.Sessions.Responses(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	used := make(map[string]bool, len(history)+1)
	obs := make([]irt.Observation, 0, len(history)+1)
	for _, r := range history {
		used[r.ItemID] = true
		prev, err := e.deps.Bank.Get(ctx, r.ItemID)
		if err != nil {
			return nil, fmt.Errorf("load answered item %s: %w", r.ItemID, err)
		}
		obs = append(obs, irt.Observation{Params: prev.Params, Correct: r.IsCorrect})
	}
	if used[itemID] {
		return nil, apperr.Validation(op, "item %s was already answered in assessment %s", itemID, assessmentID)
	}
	used[itemID] = true

	correct := response.Matches(item.Content.CorrectAnswer)
	obs = append(obs, irt.Observation{Params: item.Params, Correct: correct})
	est := irt.EstimateAbility(obs, s.Theta)
	seq := len(history) + 1

	// Decide the outcome before writing anything.
	reason := e.cfg.stoppingReason(seq, est.SE)
	var next *itembank.TestItem
	if reason == "" {
		age, err := e.deps.Children.AgeMonths(ctx, s.ChildID)
		if err != nil {
			return nil, fmt.Errorf("resolve child age: %w", err)
		}
		next, err = e.selector.SelectNext(ctx, est.Theta, age, s.Domain, used)
		if err != nil {
			return nil, fmt.Errorf("select next item: %w", err)
		}
		if next == nil {
			reason = StopNoItems
		}
	}

	now := e.now().UTC()
	rec := &ResponseRecord{
		ID:             e.newID(),
		AssessmentID:   assessmentID,
		ItemID:         itemID,
		Response:       response,
		IsCorrect:      correct,
		ReactionTimeMs: reactionTimeMs,
		ThetaBefore:    s.Theta,
		ThetaAfter:     est.Theta,
		SEBefore:       s.SE,
		SEAfter:        est.SE,
		ItemSequence:   seq,
		CreatedAt:      now,
	}
	upd := SessionUpdate{
		Theta:             est.Theta,
		SE:                est.SE,
		ItemsAdministered: seq,
		ExpectedItems:     s.ItemsAdministered,
	}
	if reason != "" {
		upd.Completion = &Completion{
			Reason:      reason,
			RawScore:    irt.RawScore(est.Theta),
			Percentile:  irt.Percentile(est.Theta),
			CompletedAt: now,
		}
	}
	if err := e.deps.Sessions.AppendResponse(ctx, rec, upd); err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}
	s.Theta, s.SE, s.ItemsAdministered = est.Theta, est.SE, seq

	e.logger.Info("response recorded",
		"assessment", assessmentID,
		"seq", seq,
		"correct", correct,
		"theta_before", rec.ThetaBefore,
		"theta_after", est.Theta,
		"se", est.SE,
		"iterations", est.Iterations,
		"converged", est.Converged,
	)
	e.appendEvent(ctx, Event{
		Kind:         EventResponded,
		AssessmentID: assessmentID,
		ChildID:      s.ChildID,
		Domain:       s.Domain,
		ItemID:       itemID,
		ItemSequence: seq,
		Correct:      &correct,
		Theta:        est.Theta,
		SE:           est.SE,
	})

	if upd.Completion != nil {
		e.completed(ctx, s, *upd.Completion)
	}

	return &RespondResult{
		IsCorrect:      correct,
		NewTheta:       est.Theta,
		NewSE:          est.SE,
		IsComplete:     reason != "",
		StoppingReason: reason,
		NextItem:       next,
		Feedback:       FeedbackFor(correct, seq),
		Session:        s,
	}, nil
}

// completed applies a committed completion to s and records what follows
// from it. The profile already holds the final estimate, so history and
// event failures are logged only.
func (e *Engine) completed(ctx context.Context, s *Session, c Completion) {
	s.Status = StatusCompleted
	s.StoppingReason = c.Reason
	s.RawScore = &c.RawScore
	s.Percentile = &c.Percentile
	s.CompletedAt = &c.CompletedAt

	e.logger.Info("assessment completed",
		"assessment", s.ID,
		"theta", s.Theta,
		"percentile", c.Percentile,
		"reason", c.Reason,
		"items", s.ItemsAdministered,
	)
	if e.deps.Profiles != nil {
		if _, err := e.deps.Profiles.Record(ctx, s.ChildID); err != nil {
			e.logger.Warn("failed to record profile history",
				"assessment", s.ID, "child", s.ChildID, "error", err)
		}
	}
	e.appendEvent(ctx, Event{
		Kind:           EventCompleted,
		AssessmentID:   s.ID,
		ChildID:        s.ChildID,
		Domain:         s.Domain,
		ItemSequence:   s.ItemsAdministered,
		Theta:          s.Theta,
		SE:             s.SE,
		StoppingReason: c.Reason,
	})
}

// appendEvent writes ev to the event log. Failures are logged only.
func (e *Engine) appendEvent(ctx context.Context, ev Event) {
	if e.deps.Events == nil {
		return
	}
	if err := e.deps.Events.AppendAssessmentEvent(ctx, ev); err != nil {
		e.logger.Warn("failed to append assessment event",
			"assessment", ev.AssessmentID, "kind", ev.Kind, "error", err)
	}
}

// Get returns the session with id.
func (e *Engine) Get(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StorageTimeout)
	defer cancel()
	return e.deps.Sessions.Get(ctx, id)
}

// History returns the child's sessions, newest first.
func (e *Engine) History(ctx context.Context, childID string) ([]Session, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StorageTimeout)
	defer cancel()
	return e.deps.Sessions.ListByChild(ctx, childID)
}

// Transcript returns the responses of session id in order.
func (e *Engine) Transcript(ctx context.Context, id string) ([]ResponseRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StorageTimeout)
	defer cancel()
	if _, err := e.deps.Sessions.Get(ctx, id); err != nil {
		return nil, err
	}
	return e.deps.Sessions.Responses(ctx, id)
}
