package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
)

// policyFile mirrors the YAML policy document. Unset keys keep their defaults.
type policyFile struct {
	CollapseThreshold *float64          `yaml:"collapse_threshold"`
	ImpactCap         *float64          `yaml:"impact_cap"`
	StressFloor       *float64          `yaml:"stress_floor"`
	KitWeight         *float64          `yaml:"kit_weight"`
	StaffWeight       *float64          `yaml:"staff_weight"`
	MaxMultiplier     *float64          `yaml:"max_multiplier"`
	MaxKits           *int              `yaml:"max_kits"`
	MaxStaff          *int              `yaml:"max_staff"`
	RegionCorrections map[string]string `yaml:"region_corrections"`
}

// LoadPolicy reads a YAML policy file and merges it over the defaults.
// An empty path returns the defaults and no extra corrections.
func LoadPolicy(path string) (domain.Policy, map[string]string, error) {
	policy := domain.DefaultPolicy()
	if path == "" {
		return policy, nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, nil, fmt.Errorf("read policy file: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return policy, nil, fmt.Errorf("unmarshal policy file: %w", err)
	}

	setFloat(&policy.CollapseThreshold, pf.CollapseThreshold)
	setFloat(&policy.ImpactCap, pf.ImpactCap)
	setFloat(&policy.StressFloor, pf.StressFloor)
	setFloat(&policy.KitWeight, pf.KitWeight)
	setFloat(&policy.StaffWeight, pf.StaffWeight)
	setFloat(&policy.MaxMultiplier, pf.MaxMultiplier)
	if pf.MaxKits != nil {
		policy.MaxKits = *pf.MaxKits
	}
	if pf.MaxStaff != nil {
		policy.MaxStaff = *pf.MaxStaff
	}

	if err := policy.Validate(); err != nil {
		return policy, nil, err
	}
	return policy, pf.RegionCorrections, nil
}

func setFloat(dst, src *float64) {
	if src != nil {
		*dst = *src
	}
}
