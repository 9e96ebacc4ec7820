package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mode selects the policy simulator goal.
type Mode string

const (
	ModeNone       Mode = "none"
	ModeStressTest Mode = "stress"
	ModeRelief     Mode = "relief"
)

// ParseMode accepts the mode names used by the API and CLI. Empty means none.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNone:
		return ModeNone, nil
	case ModeStressTest, "stress-test", "stress_test":
		return ModeStressTest, nil
	case ModeRelief:
		return ModeRelief, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidScenario, s)
	}
}

// Scenario is one simulator setting. Multiplier applies to stress tests;
// Kits and Staff (percent) apply to relief.
type Scenario struct {
	Mode       Mode    `json:"mode"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Kits       int     `json:"kits,omitempty"`
	Staff      int     `json:"staff,omitempty"`
}

// Outcome summarises what a scenario did to the view.
type Outcome struct {
	Scenario
	// Active is false when the parameters leave stress unchanged.
	Active    bool    `json:"active"`
	Impact    float64 `json:"impact,omitempty"`
	Collapsed int     `json:"collapsed"`
	Message   string  `json:"message,omitempty"`
}

// Check validates the scenario parameters against the policy ranges.
func (p Policy) Check(s Scenario) error {
	switch s.Mode {
	case ModeNone, "":
		return nil
	case ModeStressTest:
		if math.IsNaN(s.Multiplier) || s.Multiplier < p.MinMultiplier || s.Multiplier > p.MaxMultiplier {
			return fmt.Errorf("%w: multiplier %g outside [%g, %g]",
				ErrInvalidScenario, s.Multiplier, p.MinMultiplier, p.MaxMultiplier)
		}
	case ModeRelief:
		if s.Kits < 0 || s.Kits > p.MaxKits {
			return fmt.Errorf("%w: kits %d outside [0, %d]", ErrInvalidScenario, s.Kits, p.MaxKits)
		}
		if s.Staff < 0 || s.Staff > p.MaxStaff {
			return fmt.Errorf("%w: staff %d outside [0, %d]", ErrInvalidScenario, s.Staff, p.MaxStaff)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidScenario, s.Mode)
	}
	return nil
}

// StressTest scales every stress value by multiplier and returns the scaled
// copy together with the number of collapsed districts.
func StressTest(records []District, multiplier float64, p Policy) ([]District, int) {
	out := make([]District, len(records))
	for i, r := range records {
		r.Stress *= multiplier
		out[i] = r
	}
	return out, CountCollapsed(out, p.CollapseThreshold)
}

// CountCollapsed counts records whose stress is strictly above threshold.
func CountCollapsed(records []District, threshold float64) int {
	n := 0
	for _, r := range records {
		if r.Stress > threshold {
			n++
		}
	}
	return n
}

// ReliefImpact converts deployed kits and staff efficiency into a fractional
// stress reduction, capped at p.ImpactCap.
func ReliefImpact(kits, staff int, p Policy) float64 {
	return math.Min(p.KitWeight*float64(kits)+p.StaffWeight*float64(staff), p.ImpactCap)
}

// Relief reduces every stress value by the relief impact, never going below
// p.StressFloor. It returns the reduced copy and the impact applied.
func Relief(records []District, kits, staff int, p Policy) ([]District, float64) {
	impact := ReliefImpact(kits, staff, p)
	out := make([]District, len(records))
	for i, r := range records {
		r.Stress = math.Max(r.Stress*(1-impact), p.StressFloor)
		out[i] = r
	}
	return out, impact
}

// ApplyScenario runs the scenario over records. The input slice is never
// modified; inactive scenarios return it as-is.
func ApplyScenario(records []District, s Scenario, p Policy) ([]District, Outcome, error) {
	if s.Mode == "" {
		s.Mode = ModeNone
	}
	if err := p.Check(s); err != nil {
		return nil, Outcome{}, err
	}

	outcome := Outcome{Scenario: s}
	switch s.Mode {
	case ModeStressTest:
		if s.Multiplier > p.MinMultiplier {
			scaled, collapsed := StressTest(records, s.Multiplier, p)
			outcome.Active = true
			outcome.Collapsed = collapsed
			outcome.Message = fmt.Sprintf("ALERT: %d Districts COLLAPSE at %sx Load!",
				collapsed, formatMultiplier(s.Multiplier))
			return scaled, outcome, nil
		}
		outcome.Collapsed = CountCollapsed(records, p.CollapseThreshold)
		outcome.Message = "Increase load to test system resilience."
	case ModeRelief:
		if s.Kits > 0 || s.Staff > 0 {
			reduced, impact := Relief(records, s.Kits, s.Staff, p)
			outcome.Active = true
			outcome.Impact = impact
			outcome.Collapsed = CountCollapsed(reduced, p.CollapseThreshold)
			outcome.Message = fmt.Sprintf("SUCCESS: System Stress reduced by %.0f%%", impact*100)
			return reduced, outcome, nil
		}
		outcome.Collapsed = CountCollapsed(records, p.CollapseThreshold)
		outcome.Message = "Deploy resources to fix the system."
	default:
		outcome.Collapsed = CountCollapsed(records, p.CollapseThreshold)
	}
	return records, outcome, nil
}

// formatMultiplier always shows one decimal place for whole numbers ("2.0").
func formatMultiplier(m float64) string {
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
