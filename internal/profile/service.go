package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/cogcat/internal/itembank"
)

// DefaultHistoryKeep is how many profile snapshots are retained per child.
const DefaultHistoryKeep = 50

// Repo persists profiles.
type Repo interface {
	// UpsertDomain records the latest score for one domain, creating the
	// profile on first use.
	UpsertDomain(ctx context.Context, childID string, domain itembank.Domain, score DomainScore) error

	// Get returns the child's profile, or an apperr NotFound error.
	Get(ctx context.Context, childID string) (*CognitiveProfile, error)

	// SaveAggregates stores the derived values for the child's profile.
	SaveAggregates(ctx context.Context, childID string, agg Aggregates, at time.Time) error
}

// Snapshot is a point-in-time copy of a profile.
type Snapshot struct {
	ID        int
	ChildID   string
	Sequence  int64
	Timestamp time.Time
	Profile   CognitiveProfile
}

// SnapshotRepo keeps the longitudinal history of a child's profile.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// List returns up to limit snapshots for the child, newest first.
	List(ctx context.Context, childID string, limit int) ([]Snapshot, error)

	// Prune deletes all but the keep most recent snapshots of the child.
	Prune(ctx context.Context, childID string, keep int) error
}

// Aggregator updates profiles when assessments complete.
type Aggregator struct {
	repo        Repo
	snapshots   SnapshotRepo
	historyKeep int
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSnapshots enables profile history, keeping the newest keep entries.
func WithSnapshots(repo SnapshotRepo, keep int) Option {
	return func(a *Aggregator) {
		a.snapshots = repo
		if keep > 0 {
			a.historyKeep = keep
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an Aggregator backed by repo.
func NewAggregator(repo Repo, opts ...Option) *Aggregator {
	a := &Aggregator{
		repo:        repo,
		historyKeep: DefaultHistoryKeep,
		now:         time.Now,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Update records a domain result and recomputes the child's aggregates.
func (a *Aggregator) Update(ctx context.Context, childID string, domain itembank.Domain, score float64, percentile int) (*CognitiveProfile, error) {
	now := a.now().UTC()

	err := a.repo.UpsertDomain(ctx, childID, domain, DomainScore{
		Score:      score,
		Percentile: percentile,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert %s score: %w", domain, err)
	}

	p, err := a.repo.Get(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}

	agg := Compute(p.Scores())
	if err := a.repo.SaveAggregates(ctx, childID, agg, now); err != nil {
		return nil, fmt.Errorf("save aggregates: %w", err)
	}
	p.Apply(agg)
	p.UpdatedAt = now

	a.logger.Info("profile updated",
		"child", childID,
		"domain", domain,
		"score", score,
		"domains", len(p.Domains),
		"strengths", agg.Strengths,
		"growth_areas", agg.GrowthAreas,
	)

	if a.snapshots != nil {
		a.snapshot(ctx, p, now)
	}
	return p, nil
}

// Record snapshots the child's current profile. It is used after a store
// has folded a completed session into the profile on its own.
func (a *Aggregator) Record(ctx context.Context, childID string) (*CognitiveProfile, error) {
	p, err := a.repo.Get(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if a.snapshots != nil {
		a.snapshot(ctx, p, a.now().UTC())
	}
	return p, nil
}

// snapshot appends p to the history. History is best-effort: a failure is
// logged and the profile update still stands.
func (a *Aggregator) snapshot(ctx context.Context, p *CognitiveProfile, at time.Time) {
	if err := a.snapshots.Save(ctx, &Snapshot{ChildID: p.ChildID, Timestamp: at, Profile: *p}); err != nil {
		a.logger.Warn("failed to save profile snapshot", "child", p.ChildID, "error", err)
		return
	}
	if err := a.snapshots.Prune(ctx, p.ChildID, a.historyKeep); err != nil {
		a.logger.Warn("failed to prune profile snapshots", "child", p.ChildID, "error", err)
	}
}

// Get returns the child's profile, or an apperr NotFound error.
func (a *Aggregator) Get(ctx context.Context, childID string) (*CognitiveProfile, error) {
	return a.repo.Get(ctx, childID)
}

// History returns up to limit past snapshots of the child's profile.
func (a *Aggregator) History(ctx context.Context, childID string, limit int) ([]Snapshot, error) {
	if a.snapshots == nil {
		return nil, nil
	}
	return a.snapshots.List(ctx, childID, limit)
}
