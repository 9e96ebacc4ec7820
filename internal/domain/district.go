package domain

import (
	"math"
	"strconv"
	"strings"
)

// CSV column names as exported by the analysis notebook.
const (
	ColumnState        = "state"
	ColumnDistrict     = "district"
	ColumnStress       = "assi"
	ColumnPriority     = "Priority"
	ColumnSecurity     = "security_status"
	ColumnMBUDemand    = "future_mbu_demand"
	ColumnPreparedness = "Preparedness_Index"
	ColumnPlaybook     = "District_Playbook"
	ColumnAcceleration = "assi_acceleration"
	ColumnAdults       = "age_18_greater"
	ColumnDistrictType = "district_type"
)

// Priority classifies how urgently a district needs intervention.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
	PriorityCritical
)

// ParsePriority maps the dataset's priority label to a Priority.
// Unknown labels are treated as Normal.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// String returns the label used by the dataset.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "High"
	default:
		return "Normal"
	}
}

// MarshalText lets Priority appear as its label in JSON.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a priority label.
func (p *Priority) UnmarshalText(b []byte) error {
	*p = ParsePriority(string(b))
	return nil
}

// SecurityStatus is Normal or Alert. Alerts keep their original label in
// District.SecurityLabel.
type SecurityStatus int

const (
	SecurityNormal SecurityStatus = iota
	SecurityAlert
)

// SecurityLabelNormal is the only label that does not raise an alert.
const SecurityLabelNormal = "Normal"

// ParseSecurityStatus returns Alert for anything other than "Normal",
// including an empty label.
func ParseSecurityStatus(label string) SecurityStatus {
	if strings.TrimSpace(label) == SecurityLabelNormal {
		return SecurityNormal
	}
	return SecurityAlert
}

func (s SecurityStatus) String() string {
	if s == SecurityAlert {
		return "Alert"
	}
	return "Normal"
}

// MarshalText lets SecurityStatus appear as its label in JSON.
func (s SecurityStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses "Normal" or "Alert".
func (s *SecurityStatus) UnmarshalText(b []byte) error {
	*s = ParseSecurityStatus(string(b))
	return nil
}

// RawDistrictRecord is one CSV row with every column kept as text.
type RawDistrictRecord struct {
	State        string `csv:"state"`
	District     string `csv:"district"`
	Stress       string `csv:"assi"`
	Priority     string `csv:"Priority"`
	Security     string `csv:"security_status"`
	MBUDemand    string `csv:"future_mbu_demand"`
	Preparedness string `csv:"Preparedness_Index"`
	Playbook     string `csv:"District_Playbook"`
	Acceleration string `csv:"assi_acceleration"`
	Adults       string `csv:"age_18_greater"`
	DistrictType string `csv:"district_type"`
}

// Field returns the value of a known column.
func (r RawDistrictRecord) Field(column string) (string, bool) {
	switch column {
	case ColumnState:
		return r.State, true
	case ColumnDistrict:
		return r.District, true
	case ColumnStress:
		return r.Stress, true
	case ColumnPriority:
		return r.Priority, true
	case ColumnSecurity:
		return r.Security, true
	case ColumnMBUDemand:
		return r.MBUDemand, true
	case ColumnPreparedness:
		return r.Preparedness, true
	case ColumnPlaybook:
		return r.Playbook, true
	case ColumnAcceleration:
		return r.Acceleration, true
	case ColumnAdults:
		return r.Adults, true
	case ColumnDistrictType:
		return r.DistrictType, true
	default:
		return "", false
	}
}

// District is a parsed district record. Identity is the (State, District) pair.
type District struct {
	State         string         `json:"state"`
	District      string         `json:"district"`
	Stress        float64        `json:"assi"`
	Priority      Priority       `json:"priority"`
	Security      SecurityStatus `json:"security"`
	SecurityLabel string         `json:"security_status"`
	MBUDemand     int64          `json:"future_mbu_demand"`
	Preparedness  float64        `json:"preparedness_index"`
	Playbook      string         `json:"playbook,omitempty"`
	Acceleration  float64        `json:"assi_acceleration"`
	Adults        float64        `json:"age_18_greater"`
	DistrictType  string         `json:"district_type"`

	// Extra holds source columns the dashboard does not use, so exports
	// keep them.
	Extra map[string]string `json:"-"`
}

// Key returns the record identity, "<state>|<district>".
func (d District) Key() string {
	return d.State + "|" + d.District
}

// ParseDistrict converts a raw row into a District. The state is taken
// verbatim; region normalisation is a separate step. Malformed or non-finite
// numeric fields become 0 and no other validation is performed. An empty
// security label is an alert.
func ParseDistrict(raw RawDistrictRecord) District {
	label := strings.TrimSpace(raw.Security)
	districtType := strings.TrimSpace(raw.DistrictType)
	if districtType == "" {
		districtType = UnknownDistrictType
	}

	return District{
		State:         raw.State,
		District:      strings.TrimSpace(raw.District),
		Stress:        parseFloatOrZero(raw.Stress),
		Priority:      ParsePriority(raw.Priority),
		Security:      ParseSecurityStatus(label),
		SecurityLabel: label,
		MBUDemand:     parseIntOrZero(raw.MBUDemand),
		Preparedness:  parseFloatOrZero(raw.Preparedness),
		Playbook:      strings.TrimSpace(raw.Playbook),
		Acceleration:  parseFloatOrZero(raw.Acceleration),
		Adults:        parseFloatOrZero(raw.Adults),
		DistrictType:  districtType,
	}
}

// ToRaw formats a District back into its CSV representation.
func (d District) ToRaw() RawDistrictRecord {
	return RawDistrictRecord{
		State:        d.State,
		District:     d.District,
		Stress:       formatFloat(d.Stress),
		Priority:     d.Priority.String(),
		Security:     d.SecurityLabel,
		MBUDemand:    strconv.FormatInt(d.MBUDemand, 10),
		Preparedness: formatFloat(d.Preparedness),
		Playbook:     d.Playbook,
		Acceleration: formatFloat(d.Acceleration),
		Adults:       formatFloat(d.Adults),
		DistrictType: d.DistrictType,
	}
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
// NaN and infinities (pandas writes "inf" for division by zero) are 0 too.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseIntOrZero accepts integers and pandas-style floats ("1200.0").
func parseIntOrZero(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	return int64(parseFloatOrZero(s))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
