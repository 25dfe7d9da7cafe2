package store

import (
	"time"

	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/itembank"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit        int       // max results (0 = unlimited)
	After        int64     // sequence > After
	Before       int64     // sequence < Before
	From         time.Time // timestamp >= From
	To           time.Time // timestamp <= To
	AssessmentID string    // only events of this session
}

// EventRecord is a stored assessment event.
type EventRecord struct {
	assessment.Event
	Sequence  int64
	Timestamp time.Time
}

// Stats summarizes the event log.
type Stats struct {
	Started     map[itembank.Domain]int
	Completed   map[assessment.StoppingReason]int
	Responses   int
	Correct     int
	LastEventAt time.Time
}
