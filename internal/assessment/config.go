package assessment

import (
	"fmt"
	"time"

	"github.com/abhisek/cogcat/internal/irt"
	"github.com/abhisek/cogcat/internal/itembank"
)

// Config holds the engine's stopping rules and limits.
type Config struct {
	MinItems       int           // responses required before the SE rule applies
	MaxItems       int           // hard cap on responses per session
	TargetSE       float64       // stop once SE drops below this
	InitialTheta   float64       // starting ability estimate
	InitialSE      float64       // starting standard error
	AgeSlackMonths int           // widening of the age window when nothing matches
	StorageTimeout time.Duration // bound on each operation's storage work
}

// DefaultConfig returns the standard testing configuration.
func DefaultConfig() Config {
	return Config{
		MinItems:       10,
		MaxItems:       30,
		TargetSE:       0.3,
		InitialTheta:   irt.InitialTheta,
		InitialSE:      irt.InitialSE,
		AgeSlackMonths: itembank.DefaultAgeSlackMonths,
		StorageTimeout: 5 * time.Second,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.MinItems < 1:
		return fmt.Errorf("min items must be at least 1, got %d", c.MinItems)
	case c.MaxItems < c.MinItems:
		return fmt.Errorf("max items (%d) must not be below min items (%d)", c.MaxItems, c.MinItems)
	case c.TargetSE <= 0:
		return fmt.Errorf("target SE must be positive, got %g", c.TargetSE)
	case c.InitialSE <= 0:
		return fmt.Errorf("initial SE must be positive, got %g", c.InitialSE)
	case c.InitialTheta < irt.MinTheta || c.InitialTheta > irt.MaxTheta:
		return fmt.Errorf("initial theta %g outside [%g, %g]", c.InitialTheta, irt.MinTheta, irt.MaxTheta)
	case c.AgeSlackMonths < 0:
		return fmt.Errorf("age slack must not be negative, got %d", c.AgeSlackMonths)
	case c.StorageTimeout <= 0:
		return fmt.Errorf("storage timeout must be positive, got %s", c.StorageTimeout)
	}
	return nil
}

// stoppingReason applies the stopping rules after items responses. The item
// cap wins over precision. An empty reason means the session continues.
func (c Config) stoppingReason(items int, se float64) StoppingReason {
	if items >= c.MaxItems {
		return StopMaxItems
	}
	if items >= c.MinItems && se < c.TargetSE {
		return StopMinSE
	}
	return ""
}
