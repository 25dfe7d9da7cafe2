// Package profile folds completed assessments into a child's longitudinal
// cognitive profile.
package profile

import (
	"math"
	"sort"
	"time"

	"github.com/abhisek/cogcat/internal/irt"
	"github.com/abhisek/cogcat/internal/itembank"
)

// DomainScore is the latest result recorded for one domain.
type DomainScore struct {
	Score      float64   `json:"score"`
	Percentile int       `json:"percentile"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CognitiveProfile is a child's per-domain scores and their aggregates.
type CognitiveProfile struct {
	ChildID             string                          `json:"child_id"`
	Domains             map[itembank.Domain]DomainScore `json:"domains"`
	CompositeScore      *float64                        `json:"composite_score,omitempty"`
	CompositePercentile *int                            `json:"composite_percentile,omitempty"`
	Strengths           []itembank.Domain               `json:"strengths"`
	GrowthAreas         []itembank.Domain               `json:"growth_areas"`
	UpdatedAt           time.Time                       `json:"updated_at"`
}

// Aggregates are the values derived from the domain scores.
type Aggregates struct {
	CompositeScore      *float64
	CompositePercentile *int
	Strengths           []itembank.Domain
	GrowthAreas         []itembank.Domain
}

// Compute derives composite score, strengths, and growth areas.
//
// The composite is the mean domain score. With two or more domains,
// strengths are the two highest-scoring domains with a positive score and
// growth areas are the two lowest that fall strictly below the composite.
// Equal scores keep domain declaration order.
func Compute(scores map[itembank.Domain]float64) Aggregates {
	agg := Aggregates{
		Strengths:   []itembank.Domain{},
		GrowthAreas: []itembank.Domain{},
	}
	if len(scores) == 0 {
		return agg
	}

	ranked := make([]itembank.Domain, 0, len(scores))
	sum := 0.0
	for d, s := range scores {
		ranked = append(ranked, d)
		sum += s
	}
	composite := sum / float64(len(scores))
	percentile := int(math.Round(irt.ThetaToPercentile(composite)))
	agg.CompositeScore = &composite
	agg.CompositePercentile = &percentile

	if len(scores) < 2 {
		return agg
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i].Order() < ranked[j].Order()
	})

	for _, d := range ranked[:2] {
		if scores[d] > 0 {
			agg.Strengths = append(agg.Strengths, d)
		}
	}
	for _, d := range ranked[len(ranked)-2:] {
		if scores[d] < composite {
			agg.GrowthAreas = append(agg.GrowthAreas, d)
		}
	}
	return agg
}

// Apply copies aggregates onto p.
func (p *CognitiveProfile) Apply(agg Aggregates) {
	p.CompositeScore = agg.CompositeScore
	p.CompositePercentile = agg.CompositePercentile
	p.Strengths = agg.Strengths
	p.GrowthAreas = agg.GrowthAreas
}

// Scores returns the score of every recorded domain.
func (p *CognitiveProfile) Scores() map[itembank.Domain]float64 {
	out := make(map[itembank.Domain]float64, len(p.Domains))
	for d, ds := range p.Domains {
		out[d] = ds.Score
	}
	return out
}
