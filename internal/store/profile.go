package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/profile"
)

// ProfileRepo persists cognitive profiles. It implements profile.Repo.
type ProfileRepo struct {
	db *sql.DB
}

var _ profile.Repo = (*ProfileRepo)(nil)

// UpsertDomain writes the domain score, creating the profile row on first use.
func (r *ProfileRepo) UpsertDomain(ctx context.Context, childID string, domain itembank.Domain, score profile.DomainScore) error {
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		return upsertDomain(ctx, tx, childID, domain, score)
	})
	return classify("upsert profile domain", err)
}

func upsertDomain(ctx context.Context, ex execer, childID string, domain itembank.Domain, score profile.DomainScore) error {
	createProfile := builder.Insert(tableProfiles).
		Columns("child_id", "strengths", "growth_areas", "updated_at").
		Values(childID, "[]", "[]", score.UpdatedAt).
		OnConflict(entsql.ConflictColumns("child_id"), entsql.DoNothing())

	upsert := builder.Insert(tableProfileDomains).
		Columns("child_id", "domain", "score", "percentile", "updated_at").
		Values(childID, string(domain), score.Score, score.Percentile, score.UpdatedAt).
		OnConflict(entsql.ConflictColumns("child_id", "domain"), entsql.ResolveWithNewValues())

	if _, err := exec(ctx, ex, createProfile); err != nil {
		return err
	}
	_, err := exec(ctx, ex, upsert)
	return err
}

// foldProfile records score for domain and recomputes the child's
// aggregates on q.
func foldProfile(ctx context.Context, q querier, childID string, domain itembank.Domain, score profile.DomainScore) error {
	if err := upsertDomain(ctx, q, childID, domain, score); err != nil {
		return err
	}
	p, err := getProfile(ctx, q, childID)
	if err != nil {
		return err
	}
	return saveAggregates(ctx, q, childID, profile.Compute(p.Scores()), score.UpdatedAt)
}

// Get returns the child's profile with every scored domain.
func (r *ProfileRepo) Get(ctx context.Context, childID string) (*profile.CognitiveProfile, error) {
	return getProfile(ctx, r.db, childID)
}

func getProfile(ctx context.Context, q querier, childID string) (*profile.CognitiveProfile, error) {
	const op = "get profile"
	query, args := builder.Select("child_id", "composite_score", "composite_percentile", "strengths", "growth_areas", "updated_at").
		From(entsql.Table(tableProfiles)).
		Where(entsql.EQ("child_id", childID)).
		Query()

	var (
		p           profile.CognitiveProfile
		composite   sql.NullFloat64
		compositePc sql.NullInt64
		strengths   []byte
		growth      []byte
	)
	err := q.QueryRowContext(ctx, query, args...).
		Scan(&p.ChildID, &composite, &compositePc, &strengths, &growth, &p.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(op, err, "no profile for child %q", childID)
	}
	if composite.Valid {
		p.CompositeScore = &composite.Float64
	}
	if compositePc.Valid {
		pc := int(compositePc.Int64)
		p.CompositePercentile = &pc
	}
	if err := json.Unmarshal(strengths, &p.Strengths); err != nil {
		return nil, fmt.Errorf("decode strengths: %w", err)
	}
	if err := json.Unmarshal(growth, &p.GrowthAreas); err != nil {
		return nil, fmt.Errorf("decode growth areas: %w", err)
	}

	query, args = builder.Select("domain", "score", "percentile", "updated_at").
		From(entsql.Table(tableProfileDomains)).
		Where(entsql.EQ("child_id", childID)).
		Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	p.Domains = make(map[itembank.Domain]profile.DomainScore)
	for rows.Next() {
		var (
			domain string
			ds     profile.DomainScore
		)
		if err := rows.Scan(&domain, &ds.Score, &ds.Percentile, &ds.UpdatedAt); err != nil {
			return nil, classify("scan profile domain", err)
		}
		p.Domains[itembank.Domain(domain)] = ds
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return &p, nil
}

// SaveAggregates stores the derived fields of the child's profile.
func (r *ProfileRepo) SaveAggregates(ctx context.Context, childID string, agg profile.Aggregates, at time.Time) error {
	return saveAggregates(ctx, r.db, childID, agg, at)
}

func saveAggregates(ctx context.Context, ex execer, childID string, agg profile.Aggregates, at time.Time) error {
	strengths, err := json.Marshal(agg.Strengths)
	if err != nil {
		return fmt.Errorf("marshal strengths: %w", err)
	}
	growth, err := json.Marshal(agg.GrowthAreas)
	if err != nil {
		return fmt.Errorf("marshal growth areas: %w", err)
	}

	var composite, compositePc any
	if agg.CompositeScore != nil {
		composite = *agg.CompositeScore
	}
	if agg.CompositePercentile != nil {
		compositePc = *agg.CompositePercentile
	}

	q := builder.Update(tableProfiles).
		Set("composite_score", composite).
		Set("composite_percentile", compositePc).
		Set("strengths", string(strengths)).
		Set("growth_areas", string(growth)).
		Set("updated_at", at).
		Where(entsql.EQ("child_id", childID))
	if _, err := exec(ctx, ex, q); err != nil {
		return classify("save profile aggregates", err)
	}
	return nil
}
