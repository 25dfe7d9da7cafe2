package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/itembank"
)

// sequenceCounter manages the global monotonic sequence number shared by the
// event log and profile snapshots. The two live in separate tables, so
// per-table auto-increment IDs can't establish cross-table ordering. This
// shared counter assigns a single increasing sequence to every row,
// enabling:
//
//   - Ordering a snapshot relative to the events that produced it
//   - Append-only guarantees (events are never reordered)
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// EventRepo is the append-only assessment event log. It implements
// assessment.EventRepo.
type EventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
	now func() time.Time
}

var _ assessment.EventRepo = (*EventRepo)(nil)

var eventColumns = []string{
	"sequence", "timestamp", "kind", "assessment_id", "child_id", "domain",
	"item_id", "item_sequence", "correct", "theta", "se", "stopping_reason",
}

func (r *EventRepo) AppendAssessmentEvent(ctx context.Context, ev assessment.Event) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return classify("next sequence", err)
	}

	var itemID, correct, reason any
	if ev.ItemID != "" {
		itemID = ev.ItemID
	}
	if ev.Correct != nil {
		correct = *ev.Correct
	}
	if ev.StoppingReason != "" {
		reason = string(ev.StoppingReason)
	}

	q := builder.Insert(tableEvents).
		Columns(eventColumns...).
		Values(seqNum, r.now().UTC(), string(ev.Kind), ev.AssessmentID, ev.ChildID, string(ev.Domain),
			itemID, ev.ItemSequence, correct, ev.Theta, ev.SE, reason)
	if _, err := exec(ctx, r.db, q); err != nil {
		return classify("save assessment event", err)
	}
	return nil
}

// QueryAssessmentEvents returns events matching opts, newest first.
func (r *EventRepo) QueryAssessmentEvents(ctx context.Context, opts QueryOpts) ([]EventRecord, error) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To))
	}
	if opts.AssessmentID != "" {
		preds = append(preds, entsql.EQ("assessment_id", opts.AssessmentID))
	}

	sel := builder.Select(eventColumns...).
		From(entsql.Table(tableEvents)).
		OrderBy(entsql.Desc("sequence"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("query assessment events", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var (
			rec            EventRecord
			kind, domain   string
			itemID, reason sql.NullString
			correct        sql.NullBool
		)
		err := rows.Scan(&rec.Sequence, &rec.Timestamp, &kind, &rec.AssessmentID, &rec.ChildID, &domain,
			&itemID, &rec.ItemSequence, &correct, &rec.Theta, &rec.SE, &reason)
		if err != nil {
			return nil, classify("scan assessment event", err)
		}
		rec.Kind = assessment.EventKind(kind)
		rec.Domain = itembank.Domain(domain)
		rec.ItemID = itemID.String
		rec.StoppingReason = assessment.StoppingReason(reason.String)
		if correct.Valid {
			c := correct.Bool
			rec.Correct = &c
		}
		out = append(out, rec)
	}
	return out, classify("query assessment events", rows.Err())
}

// Stats aggregates the event log.
func (r *EventRepo) Stats(ctx context.Context) (*Stats, error) {
	query, args := builder.Select("kind", "domain", "stopping_reason", "correct", entsql.Count("*"), entsql.Max("timestamp")).
		From(entsql.Table(tableEvents)).
		GroupBy("kind", "domain", "stopping_reason", "correct").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("event stats", err)
	}
	defer rows.Close()

	st := &Stats{
		Started:   make(map[itembank.Domain]int),
		Completed: make(map[assessment.StoppingReason]int),
	}
	for rows.Next() {
		var (
			kind, domain string
			reason       sql.NullString
			correct      sql.NullBool
			n            int
			last         sql.NullString
		)
		if err := rows.Scan(&kind, &domain, &reason, &correct, &n, &last); err != nil {
			return nil, classify("scan event stats", err)
		}
		switch assessment.EventKind(kind) {
		case assessment.EventStarted:
			st.Started[itembank.Domain(domain)] += n
		case assessment.EventCompleted:
			st.Completed[assessment.StoppingReason(reason.String)] += n
		case assessment.EventResponded:
			st.Responses += n
			if correct.Valid && correct.Bool {
				st.Correct += n
			}
		}
		if t := parseSQLiteTime(last.String); t.After(st.LastEventAt) {
			st.LastEventAt = t
		}
	}
	return st, classify("event stats", rows.Err())
}

// parseSQLiteTime parses the text form modernc.org/sqlite writes for
// time.Time values. MAX() returns text, not a typed datetime.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
