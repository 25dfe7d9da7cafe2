package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/cogcat/internal/apperr"
	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/profile"
)

// SessionRepo persists assessment sessions and their responses. It
// implements assessment.SessionRepo.
type SessionRepo struct {
	db *sql.DB
}

var _ assessment.SessionRepo = (*SessionRepo)(nil)

var sessionColumns = []string{
	"id", "child_id", "domain", "theta", "se", "items_administered", "status",
	"stopping_reason", "raw_score", "percentile", "started_at", "completed_at",
}

var responseColumns = []string{
	"id", "assessment_id", "item_id", "response", "is_correct", "reaction_time_ms",
	"theta_before", "theta_after", "se_before", "se_after", "item_sequence", "created_at",
}

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, s *assessment.Session) error {
	q := builder.Insert(tableAssessments).
		Columns("id", "child_id", "domain", "theta", "se", "items_administered", "status", "started_at").
		Values(s.ID, s.ChildID, string(s.Domain), s.Theta, s.SE, s.ItemsAdministered, string(s.Status), s.StartedAt)
	if _, err := exec(ctx, r.db, q); err != nil {
		return classify("create session", err)
	}
	return nil
}

// Get returns the session with id.
func (r *SessionRepo) Get(ctx context.Context, id string) (*assessment.Session, error) {
	query, args := builder.Select(sessionColumns...).
		From(entsql.Table(tableAssessments)).
		Where(entsql.EQ("id", id)).
		Query()

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFoundOr("get session", err, "assessment %q not found", id)
	}
	return s, nil
}

// ListByChild returns the child's sessions, newest first.
func (r *SessionRepo) ListByChild(ctx context.Context, childID string) ([]assessment.Session, error) {
	query, args := builder.Select(sessionColumns...).
		From(entsql.Table(tableAssessments)).
		Where(entsql.EQ("child_id", childID)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list sessions", err)
	}
	defer rows.Close()

	var out []assessment.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, classify("scan session", err)
		}
		out = append(out, *s)
	}
	return out, classify("list sessions", rows.Err())
}

// Responses returns the session's responses in item_sequence order.
func (r *SessionRepo) Responses(ctx context.Context, id string) ([]assessment.ResponseRecord, error) {
	query, args := builder.Select(responseColumns...).
		From(entsql.Table(tableResponses)).
		Where(entsql.EQ("assessment_id", id)).
		OrderBy("item_sequence").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list responses", err)
	}
	defer rows.Close()

	var out []assessment.ResponseRecord
	for rows.Next() {
		var (
			rec  assessment.ResponseRecord
			resp []byte
		)
		err := rows.Scan(&rec.ID, &rec.AssessmentID, &rec.ItemID, &resp, &rec.IsCorrect,
			&rec.ReactionTimeMs, &rec.ThetaBefore, &rec.ThetaAfter, &rec.SEBefore, &rec.SEAfter,
			&rec.ItemSequence, &rec.CreatedAt)
		if err != nil {
			return nil, classify("scan response", err)
		}
		if err := json.Unmarshal(resp, &rec.Response); err != nil {
			return nil, fmt.Errorf("decode response %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, classify("list responses", rows.Err())
}

// AppendResponse advances the session and inserts rec in one transaction.
// The session row only changes if it is still in progress with
// upd.ExpectedItems responses. With upd.Completion set, the same transaction
// closes the session and folds its final theta into the child's profile.
func (r *SessionRepo) AppendResponse(ctx context.Context, rec *assessment.ResponseRecord, upd assessment.SessionUpdate) error {
	const op = "append response"
	resp, err := json.Marshal(rec.Response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	update := builder.Update(tableAssessments).
		Set("theta", upd.Theta).
		Set("se", upd.SE).
		Set("items_administered", upd.ItemsAdministered)
	if c := upd.Completion; c != nil {
		update.Set("status", string(assessment.StatusCompleted)).
			Set("stopping_reason", string(c.Reason)).
			Set("raw_score", c.RawScore).
			Set("percentile", c.Percentile).
			Set("completed_at", c.CompletedAt)
	}
	update.Where(entsql.And(
		entsql.EQ("id", rec.AssessmentID),
		entsql.EQ("items_administered", upd.ExpectedItems),
		entsql.EQ("status", string(assessment.StatusInProgress)),
	))

	insert := builder.Insert(tableResponses).
		Columns(responseColumns...).
		Values(rec.ID, rec.AssessmentID, rec.ItemID, string(resp), rec.IsCorrect, rec.ReactionTimeMs,
			rec.ThetaBefore, rec.ThetaAfter, rec.SEBefore, rec.SEAfter, rec.ItemSequence, rec.CreatedAt)

	err = inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := exec(ctx, tx, update)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.InvalidState(op, "session %s changed concurrently", rec.AssessmentID)
		}
		if _, err := exec(ctx, tx, insert); err != nil {
			return err
		}
		if upd.Completion == nil {
			return nil
		}
		return r.foldCompleted(ctx, tx, rec.AssessmentID, upd)
	})
	return classify(op, err)
}

// foldCompleted writes the session's final estimate into its child's profile.
func (r *SessionRepo) foldCompleted(ctx context.Context, tx *sql.Tx, id string, upd assessment.SessionUpdate) error {
	query, args := builder.Select("child_id", "domain").
		From(entsql.Table(tableAssessments)).
		Where(entsql.EQ("id", id)).
		Query()

	var childID, domain string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&childID, &domain); err != nil {
		return err
	}
	return foldProfile(ctx, tx, childID, itembank.Domain(domain), profile.DomainScore{
		Score:      upd.Theta,
		Percentile: upd.Completion.Percentile,
		UpdatedAt:  upd.Completion.CompletedAt,
	})
}

// StatusCounts returns the number of sessions per domain and status.
func (r *SessionRepo) StatusCounts(ctx context.Context) (map[itembank.Domain]map[assessment.Status]int, error) {
	query, args := builder.Select("domain", "status", entsql.Count("*")).
		From(entsql.Table(tableAssessments)).
		GroupBy("domain", "status").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("count sessions", err)
	}
	defer rows.Close()

	out := make(map[itembank.Domain]map[assessment.Status]int)
	for rows.Next() {
		var domain, status string
		var n int
		if err := rows.Scan(&domain, &status, &n); err != nil {
			return nil, classify("scan session count", err)
		}
		d := itembank.Domain(domain)
		if out[d] == nil {
			out[d] = make(map[assessment.Status]int)
		}
		out[d][assessment.Status(status)] = n
	}
	return out, classify("count sessions", rows.Err())
}

func scanSession(row rowScanner) (*assessment.Session, error) {
	var (
		s          assessment.Session
		domain     string
		status     string
		reason     sql.NullString
		rawScore   sql.NullFloat64
		percentile sql.NullInt64
		completed  sql.NullTime
	)
	err := row.Scan(&s.ID, &s.ChildID, &domain, &s.Theta, &s.SE, &s.ItemsAdministered, &status,
		&reason, &rawScore, &percentile, &s.StartedAt, &completed)
	if err != nil {
		return nil, err
	}
	s.Domain = itembank.Domain(domain)
	s.Status = assessment.Status(status)
	s.StoppingReason = assessment.StoppingReason(reason.String)
	if rawScore.Valid {
		s.RawScore = &rawScore.Float64
	}
	if percentile.Valid {
		p := int(percentile.Int64)
		s.Percentile = &p
	}
	if completed.Valid {
		s.CompletedAt = &completed.Time
	}
	return &s, nil
}
