package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// UnknownDistrictType labels districts without a stress zone.
	UnknownDistrictType = "Unknown"

	// DefaultPlaybook is shown when a district has no recommended action.
	DefaultPlaybook = "Maintain Operations"

	// FailureThreshold is the preparedness score below which a district is
	// considered to be failing.
	FailureThreshold = 50.0

	// ActionBoardSize is the number of vulnerable districts on the board.
	ActionBoardSize = 20
)

// Chart colours.
const (
	colorNormal   = "#00CC96"
	colorAlert    = "#FF4B4B"
	colorWarning  = "#FFA500"
	colorDarkRed  = "#8b0000"
	colorRed      = "#d63031"
	colorAmber    = "#fdcb6e"
	colorFallback = "#636EFA"
)

// ColumnSet records which CSV columns a dataset actually carried.
type ColumnSet map[string]bool

// NewColumnSet builds a ColumnSet from a CSV header.
func NewColumnSet(header []string) ColumnSet {
	cs := make(ColumnSet, len(header))
	for _, h := range header {
		cs[strings.TrimSpace(h)] = true
	}
	return cs
}

// Has reports whether the column was present.
func (c ColumnSet) Has(name string) bool { return c[name] }

// Overview holds the headline metrics.
type Overview struct {
	CriticalHotspots int     `json:"critical_hotspots"`
	MedianStress     float64 `json:"median_stress"`
	MBUForecast      int64   `json:"mbu_forecast"`
	SentinelAlerts   int     `json:"sentinel_alerts"`
}

// Summarize computes the headline metrics of a view.
func Summarize(records []District) Overview {
	var o Overview
	stress := make([]float64, len(records))
	for i, r := range records {
		if r.Priority == PriorityCritical {
			o.CriticalHotspots++
		}
		if r.Security == SecurityAlert {
			o.SentinelAlerts++
		}
		o.MBUForecast += r.MBUDemand
		stress[i] = r.Stress
	}
	o.MedianStress = Median(stress)
	return o
}

// Median returns the median of values, or 0 when values is empty.
// values is sorted in place.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// RadarPoint is one district on the anomaly radar.
type RadarPoint struct {
	District string  `json:"district"`
	State    string  `json:"state"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
}

// RadarSeries groups radar points by security label.
type RadarSeries struct {
	Name   string       `json:"name"`
	Color  string       `json:"color"`
	Points []RadarPoint `json:"points"`
}

// AnomalyRadar plots stress acceleration against adult enrolments, one series
// per security label. Normal comes first, alerts follow in name order.
func AnomalyRadar(records []District) []RadarSeries {
	index := make(map[string]int)
	var series []RadarSeries
	for _, r := range records {
		i, ok := index[r.SecurityLabel]
		if !ok {
			i = len(series)
			index[r.SecurityLabel] = i
			series = append(series, RadarSeries{Name: r.SecurityLabel, Color: securityColor(r)})
		}
		series[i].Points = append(series[i].Points, RadarPoint{
			District: r.District,
			State:    r.State,
			X:        r.Acceleration,
			Y:        r.Adults,
			Size:     r.Stress,
		})
	}
	sort.SliceStable(series, func(a, b int) bool {
		an, bn := series[a].Name == SecurityLabelNormal, series[b].Name == SecurityLabelNormal
		if an != bn {
			return an
		}
		return series[a].Name < series[b].Name
	})
	return series
}

func securityColor(r District) string {
	if r.Security == SecurityNormal {
		return colorNormal
	}
	if strings.HasPrefix(r.SecurityLabel, "Sentinel Alert") {
		return colorAlert
	}
	return colorFallback
}

// Slice is one wedge of a distribution chart.
type Slice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StressZones counts districts per district type, largest zone first.
func StressZones(records []District) []Slice {
	counts := make(map[string]int)
	for _, r := range records {
		label := r.DistrictType
		if label == "" {
			label = UnknownDistrictType
		}
		counts[label]++
	}
	out := make([]Slice, 0, len(counts))
	for label, n := range counts {
		out = append(out, Slice{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// SentinelAlerts returns districts flagged by the anomaly detector, highest
// stress first.
func SentinelAlerts(records []District) []District {
	out := make([]District, 0)
	for _, r := range records {
		if r.Security == SecurityAlert {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stress > out[j].Stress })
	return out
}

// BoardEntry is one bar of the strategic execution board.
type BoardEntry struct {
	Label        string  `json:"label"`
	State        string  `json:"state"`
	District     string  `json:"district"`
	Preparedness float64 `json:"preparedness_index"`
	Color        string  `json:"color"`
}

// ActionBoard returns the limit least prepared districts, lowest score first.
func ActionBoard(records []District, limit int) []BoardEntry {
	sorted := sortByPreparedness(records)
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]BoardEntry, len(sorted))
	for i, r := range sorted {
		out[i] = BoardEntry{
			Label:        fmt.Sprintf("%s, %s", r.District, r.State),
			State:        r.State,
			District:     r.District,
			Preparedness: r.Preparedness,
			Color:        boardColor(r.Preparedness),
		}
	}
	return out
}

func boardColor(score float64) string {
	switch {
	case score < 40:
		return colorDarkRed
	case score < FailureThreshold:
		return colorRed
	default:
		return colorAmber
	}
}

// DeploymentSchedule returns the Critical and High priority districts. When
// byPreparedness is set they are ordered by preparedness, lowest first;
// otherwise dataset order is kept.
func DeploymentSchedule(records []District, byPreparedness bool) []District {
	out := make([]District, 0)
	for _, r := range records {
		if r.Priority == PriorityCritical || r.Priority == PriorityHigh {
			out = append(out, r)
		}
	}
	if byPreparedness {
		out = sortByPreparedness(out)
	}
	return out
}

func sortByPreparedness(records []District) []District {
	out := make([]District, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Preparedness < out[j].Preparedness })
	return out
}

// Band is a labelled colour range.
type Band struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// PreparednessBand classifies a preparedness score.
func PreparednessBand(score float64) Band {
	switch {
	case score < 40:
		return Band{Label: "critical", Color: colorAlert}
	case score < 70:
		return Band{Label: "at risk", Color: colorWarning}
	default:
		return Band{Label: "ready", Color: colorNormal}
	}
}

// DistrictDetail is the deep-dive card for a single district.
type DistrictDetail struct {
	District
	Band        Band    `json:"preparedness_band"`
	StressGauge float64 `json:"stress_gauge"`
}

// DeepDive returns the first record named district. The stress gauge is the
// share of the collapse threshold used, capped at 1.
func DeepDive(records []District, district string, p Policy) (DistrictDetail, error) {
	district = strings.TrimSpace(district)
	for _, r := range records {
		if r.District != district {
			continue
		}
		if r.Playbook == "" {
			r.Playbook = DefaultPlaybook
		}
		return DistrictDetail{
			District:    r,
			Band:        PreparednessBand(r.Preparedness),
			StressGauge: math.Min(r.Stress/p.CollapseThreshold, 1.0),
		}, nil
	}
	return DistrictDetail{}, fmt.Errorf("district %q: %w", district, ErrNotFound)
}

// DistrictNames returns the distinct district names in sorted order.
func DistrictNames(records []District) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.District]; ok {
			continue
		}
		seen[r.District] = struct{}{}
		out = append(out, r.District)
	}
	sort.Strings(out)
	return out
}
