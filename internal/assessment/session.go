// Package assessment runs adaptive testing sessions: it scores responses,
// re-estimates ability, applies the stopping rules, and picks the next item.
package assessment

import (
	"context"
	"time"

	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/profile"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// StoppingReason records why a session ended.
type StoppingReason string

const (
	StopMaxItems StoppingReason = "max_items"
	StopMinSE    StoppingReason = "min_se"
	StopNoItems  StoppingReason = "no_items"
)

// Session is one child's adaptive test within a single domain.
type Session struct {
	ID                string          `json:"id"`
	ChildID           string          `json:"child_id"`
	Domain            itembank.Domain `json:"domain"`
	Theta             float64         `json:"theta"`
	SE                float64         `json:"se"`
	ItemsAdministered int             `json:"items_administered"`
	Status            Status          `json:"status"`
	StoppingReason    StoppingReason  `json:"stopping_reason,omitempty"`
	RawScore          *float64        `json:"raw_score,omitempty"`
	Percentile        *int            `json:"percentile,omitempty"`
	StartedAt         time.Time       `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

// ResponseRecord is one administered item and its effect on the estimate.
type ResponseRecord struct {
	ID             string          `json:"id"`
	AssessmentID   string          `json:"assessment_id"`
	ItemID         string          `json:"item_id"`
	Response       itembank.Answer `json:"response"`
	IsCorrect      bool            `json:"is_correct"`
	ReactionTimeMs int             `json:"reaction_time_ms"`
	ThetaBefore    float64         `json:"theta_before"`
	ThetaAfter     float64         `json:"theta_after"`
	SEBefore       float64         `json:"se_before"`
	SEAfter        float64         `json:"se_after"`
	ItemSequence   int             `json:"item_sequence"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SessionUpdate advances a session after a response. ExpectedItems is the
// items_administered value the caller read; the update must fail if the
// stored session no longer matches it.
//
// A non-nil Completion closes the session in the same write and folds Theta
// into the child's profile as the session domain's score.
type SessionUpdate struct {
	Theta             float64
	SE                float64
	ItemsAdministered int
	ExpectedItems     int
	Completion        *Completion
}

// Completion is the terminal state written when a session ends.
type Completion struct {
	Reason      StoppingReason
	RawScore    float64
	Percentile  int
	CompletedAt time.Time
}

// ChildRegistry resolves a child's age.
type ChildRegistry interface {
	// AgeMonths returns the child's age in whole months, or an apperr
	// NotFound error for an unknown child.
	AgeMonths(ctx context.Context, childID string) (int, error)
}

// SessionRepo persists sessions and their responses.
type SessionRepo interface {
	Create(ctx context.Context, s *Session) error

	// Get returns the session, or an apperr NotFound error.
	Get(ctx context.Context, id string) (*Session, error)

	// ListByChild returns the child's sessions, newest first.
	ListByChild(ctx context.Context, childID string) ([]Session, error)

	// Responses returns the session's records in item_sequence order.
	Responses(ctx context.Context, id string) ([]ResponseRecord, error)

	// AppendResponse stores rec and applies upd atomically, including the
	// completion and profile fold when upd.Completion is set. It returns an
	// apperr InvalidState error when the session is no longer in progress
	// or has advanced past upd.ExpectedItems.
	AppendResponse(ctx context.Context, rec *ResponseRecord, upd SessionUpdate) error
}

// ProfileRecorder keeps the history of a child's profile after a completed
// session has been folded into it. *profile.Aggregator satisfies it.
type ProfileRecorder interface {
	Record(ctx context.Context, childID string) (*profile.CognitiveProfile, error)
}

// EventKind distinguishes event log entries.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventResponded EventKind = "responded"
	EventCompleted EventKind = "completed"
)

// Event is an append-only log entry describing a session transition.
type Event struct {
	Kind           EventKind
	AssessmentID   string
	ChildID        string
	Domain         itembank.Domain
	ItemID         string
	ItemSequence   int
	Correct        *bool
	Theta          float64
	SE             float64
	StoppingReason StoppingReason
}

// EventRepo records session events.
type EventRepo interface {
	AppendAssessmentEvent(ctx context.Context, ev Event) error
}
