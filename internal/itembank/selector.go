package itembank

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/cogcat/internal/irt"
)

// DefaultAgeSlackMonths widens the eligibility window when no item matches
// the child's exact age.
const DefaultAgeSlackMonths = 6

// Bank is the read-only query surface over the item pool.
type Bank interface {
	// FindEligible returns active items of domain whose age window overlaps
	// [minAge, maxAge], excluding the given ids. Results are ordered by id.
	FindEligible(ctx context.Context, domain Domain, minAge, maxAge int, exclude []string) ([]TestItem, error)

	// Get returns the item with id, or an apperr NotFound error.
	Get(ctx context.Context, id string) (*TestItem, error)
}

// Selector picks the next item to administer.
type Selector struct {
	bank     Bank
	ageSlack int
	logger   *slog.Logger
}

// NewSelector creates a selector over bank. ageSlack <= 0 uses the default.
func NewSelector(bank Bank, ageSlack int, logger *slog.Logger) *Selector {
	if ageSlack <= 0 {
		ageSlack = DefaultAgeSlackMonths
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{bank: bank, ageSlack: ageSlack, logger: logger}
}

// SelectNext returns the unused item of domain with the most information at
// theta, or nil when nothing is eligible even after widening the age window.
func (s *Selector) SelectNext(ctx context.Context, theta float64, ageMonths int, domain Domain, used map[string]bool) (*TestItem, error) {
	exclude := make([]string, 0, len(used))
	for id := range used {
		exclude = append(exclude, id)
	}

	candidates, err := s.bank.FindEligible(ctx, domain, ageMonths, ageMonths, exclude)
	if err != nil {
		return nil, fmt.Errorf("find eligible items: %w", err)
	}

	if len(unused(candidates, used)) == 0 {
		s.logger.Debug("widening age window",
			"domain", domain, "age_months", ageMonths, "slack", s.ageSlack)
		candidates, err = s.bank.FindEligible(ctx, domain, ageMonths-s.ageSlack, ageMonths+s.ageSlack, exclude)
		if err != nil {
			return nil, fmt.Errorf("find eligible items (widened): %w", err)
		}
	}

	return MostInformative(theta, unused(candidates, used)), nil
}

// MostInformative returns the item with maximum information at theta. Ties
// keep the first item encountered. It returns nil for an empty slice.
func MostInformative(theta float64, items []TestItem) *TestItem {
	var best *TestItem
	maxInfo := -1.0
	for i := range items {
		info := irt.ItemInformation(theta, items[i].Params)
		if info > maxInfo {
			maxInfo = info
			best = &items[i]
		}
	}
	return best
}

// unused drops any item in used. The bank already excludes them; this keeps
// the guarantee independent of the bank implementation.
func unused(items []TestItem, used map[string]bool) []TestItem {
	if len(used) == 0 {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if !used[it.ID] {
			out = append(out, it)
		}
	}
	return out
}
