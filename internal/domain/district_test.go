package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDistrict(t *testing.T) {
	raw := RawDistrictRecord{
		State:        "orissa",
		District:     " Puri ",
		Stress:       "3.25",
		Priority:     "CRITICAL",
		Security:     "Sentinel Alert: Audit Required",
		MBUDemand:    "1200.0",
		Preparedness: "38.5",
		Playbook:     "Deploy 5 mobile kits",
		Acceleration: "0.4",
		Adults:       "1500",
		DistrictType: "Red Zone",
	}

	got := ParseDistrict(raw)

	want := District{
		State:         "orissa",
		District:      "Puri",
		Stress:        3.25,
		Priority:      PriorityCritical,
		Security:      SecurityAlert,
		SecurityLabel: "Sentinel Alert: Audit Required",
		MBUDemand:     1200,
		Preparedness:  38.5,
		Playbook:      "Deploy 5 mobile kits",
		Acceleration:  0.4,
		Adults:        1500,
		DistrictType:  "Red Zone",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseDistrict mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDistrict_MissingAndMalformedFields(t *testing.T) {
	got := ParseDistrict(RawDistrictRecord{State: "Goa", District: "North Goa", Stress: "n/a"})

	assert.Zero(t, got.Stress)
	assert.Equal(t, PriorityNormal, got.Priority)
	assert.Equal(t, SecurityAlert, got.Security, "a missing label is not Normal")
	assert.Empty(t, got.SecurityLabel)
	assert.Zero(t, got.MBUDemand)
	assert.Equal(t, UnknownDistrictType, got.DistrictType)
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityCritical, ParsePriority("CRITICAL"))
	assert.Equal(t, PriorityCritical, ParsePriority("Critical"))
	assert.Equal(t, PriorityHigh, ParsePriority("High"))
	assert.Equal(t, PriorityNormal, ParsePriority("Normal"))
	assert.Equal(t, PriorityNormal, ParsePriority("whatever"))
}

func TestDistrict_ToRawRoundTrip(t *testing.T) {
	d := District{
		State: "Kerala", District: "Kochi", Stress: 1.5, Priority: PriorityHigh,
		Security: SecurityNormal, SecurityLabel: "Normal", MBUDemand: 42,
		Preparedness: 61.25, DistrictType: "Amber",
	}

	assert.Equal(t, d, ParseDistrict(d.ToRaw()))
}

func TestDistrict_JSONLabels(t *testing.T) {
	d := District{
		State:         "Odisha",
		District:      "Puri",
		Priority:      PriorityCritical,
		Security:      SecurityAlert,
		SecurityLabel: "Sentinel Alert: Audit Required",
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"priority":"CRITICAL"`)
	assert.Contains(t, string(data), `"security":"Alert"`)

	var back District
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(d, back); diff != "" {
		t.Errorf("json round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDistrict_NonFiniteNumbersBecomeZero(t *testing.T) {
	for _, v := range []string{"NaN", "nan", "inf", "-inf", "Inf", "+Infinity", "1e400"} {
		got := ParseDistrict(RawDistrictRecord{
			Stress:       v,
			MBUDemand:    v,
			Preparedness: v,
			Acceleration: v,
			Adults:       v,
		})

		assert.Zero(t, got.Stress, v)
		assert.Zero(t, got.MBUDemand, v)
		assert.Zero(t, got.Preparedness, v)
		assert.Zero(t, got.Acceleration, v)
		assert.Zero(t, got.Adults, v)
	}
}

func TestRawDistrictRecord_Field(t *testing.T) {
	raw := District{State: "Goa", District: "North Goa", Stress: 1.5, Preparedness: 40}.ToRaw()

	v, ok := raw.Field(ColumnStress)
	assert.True(t, ok)
	assert.Equal(t, "1.5", v)

	v, ok = raw.Field(ColumnPreparedness)
	assert.True(t, ok)
	assert.Equal(t, "40", v)

	_, ok = raw.Field("extra_notes")
	assert.False(t, ok)
}
