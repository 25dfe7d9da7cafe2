package itembank

import "github.com/abhisek/cogcat/internal/apperr"

// Domain is a cognitive domain an item measures.
type Domain string

const (
	DomainMath    Domain = "math"
	DomainLogic   Domain = "logic"
	DomainVerbal  Domain = "verbal"
	DomainSpatial Domain = "spatial"
	DomainMemory  Domain = "memory"
)

// DomainInfo describes a domain for display.
type DomainInfo struct {
	ID          Domain
	Name        string
	Description string
}

var domains = []DomainInfo{
	{DomainMath, "Math", "Counting, patterns, basic operations"},
	{DomainLogic, "Logic", "Pattern recognition, sequences, categorization"},
	{DomainVerbal, "Verbal", "Vocabulary, comprehension, following directions"},
	{DomainSpatial, "Spatial", "Puzzles, mental rotation, shape recognition"},
	{DomainMemory, "Memory", "Recall, working memory, sequence memory"},
}

// AllDomains returns every domain in declaration order.
func AllDomains() []DomainInfo {
	out := make([]DomainInfo, len(domains))
	copy(out, domains)
	return out
}

// ParseDomain validates a domain identifier. Unknown identifiers give an
// apperr Validation error.
func ParseDomain(s string) (Domain, error) {
	for _, d := range domains {
		if string(d.ID) == s {
			return d.ID, nil
		}
	}
	return "", apperr.Validation("parse domain", "unknown domain %q", s)
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	_, err := ParseDomain(string(d))
	return err == nil
}

// Order returns the declaration index of d, or len(domains) if unknown.
func (d Domain) Order() int {
	for i, info := range domains {
		if info.ID == d {
			return i
		}
	}
	return len(domains)
}

// DisplayName returns the human-readable name of d.
func (d Domain) DisplayName() string {
	for _, info := range domains {
		if info.ID == d {
			return info.Name
		}
	}
	return string(d)
}
