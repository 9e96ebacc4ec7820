package domain

import (
	"errors"
	"fmt"
)

// Policy holds the simulator constants. The defaults match the figures the
// dashboard was calibrated with.
type Policy struct {
	// CollapseThreshold is the stress above which a district collapses.
	CollapseThreshold float64
	// ImpactCap bounds the relief impact so stress is never removed entirely.
	ImpactCap float64
	// StressFloor is the lowest stress relief can produce.
	StressFloor float64
	// KitWeight and StaffWeight convert kits and staff percentage into impact.
	KitWeight   float64
	StaffWeight float64

	MinMultiplier float64
	MaxMultiplier float64
	MaxKits       int
	MaxStaff      int
}

// DefaultPolicy returns the built-in simulator constants.
func DefaultPolicy() Policy {
	return Policy{
		CollapseThreshold: 5.0,
		ImpactCap:         0.90,
		StressFloor:       0.1,
		KitWeight:         0.02,
		StaffWeight:       0.01,
		MinMultiplier:     1.0,
		MaxMultiplier:     5.0,
		MaxKits:           50,
		MaxStaff:          100,
	}
}

// Validate rejects policies that would make the simulator meaningless.
func (p Policy) Validate() error {
	if p.CollapseThreshold <= 0 {
		return errors.New("collapse threshold must be positive")
	}
	if p.ImpactCap < 0 || p.ImpactCap >= 1 {
		return fmt.Errorf("impact cap %.2f outside [0, 1)", p.ImpactCap)
	}
	if p.StressFloor < 0 {
		return errors.New("stress floor must not be negative")
	}
	if p.KitWeight < 0 || p.StaffWeight < 0 {
		return errors.New("kit and staff weights must not be negative")
	}
	if p.MinMultiplier <= 0 || p.MaxMultiplier < p.MinMultiplier {
		return fmt.Errorf("invalid multiplier range [%g, %g]", p.MinMultiplier, p.MaxMultiplier)
	}
	if p.MaxKits < 0 || p.MaxStaff < 0 {
		return errors.New("kit and staff limits must not be negative")
	}
	return nil
}
