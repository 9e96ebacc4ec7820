package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AllIndia selects every region.
const AllIndia = "All India"

// defaultRegionCorrections maps title-cased misspellings and legacy names to
// their canonical form.
var defaultRegionCorrections = map[string]string{
	"Westbengal":             "West Bengal",
	"West Bangal":            "West Bengal",
	"Westbenga":              "West Bengal",
	"Telengana":              "Telangana",
	"Orissa":                 "Odisha",
	"Chattisgarh":            "Chhattisgarh",
	"Jammu And Kashmir":      "Jammu & Kashmir",
	"Daman And Diu":          "Daman & Diu",
	"Dadra And Nagar Haveli": "Dadra & Nagar Haveli",
}

// DefaultRegionCorrections returns a copy of the built-in correction table.
func DefaultRegionCorrections() map[string]string {
	out := make(map[string]string, len(defaultRegionCorrections))
	for k, v := range defaultRegionCorrections {
		out[k] = v
	}
	return out
}

// RegionNormalizer cleans region names: trim, title case, then correct.
type RegionNormalizer struct {
	corrections map[string]string
}

// NewRegionNormalizer builds a normalizer from the built-in table with extra
// entries merged over it. Keys of extra are title-cased before merging so
// callers may write them in any case. Values need not be title-cased:
// normalising a canonical name always returns it unchanged.
func NewRegionNormalizer(extra map[string]string) *RegionNormalizer {
	n := &RegionNormalizer{
		corrections: DefaultRegionCorrections(),
	}
	for k, v := range extra {
		n.corrections[n.title(k)] = v
	}
	canonical := make([]string, 0, len(n.corrections))
	for _, v := range n.corrections {
		canonical = append(canonical, v)
	}
	for _, v := range canonical {
		if key := n.title(v); key != v {
			if _, ok := n.corrections[key]; !ok {
				n.corrections[key] = v
			}
		}
	}
	return n
}

// Normalize returns the canonical name for a raw region string.
func (n *RegionNormalizer) Normalize(raw string) string {
	name := n.title(raw)
	if corrected, ok := n.corrections[name]; ok {
		return corrected
	}
	return name
}

// IsCanonical reports whether name is left unchanged by the correction table.
func (n *RegionNormalizer) IsCanonical(name string) bool {
	corrected, ok := n.corrections[name]
	return !ok || corrected == name
}

// Apply normalises the State field of every record in place.
func (n *RegionNormalizer) Apply(records []District) {
	for i := range records {
		records[i].State = n.Normalize(records[i].State)
	}
}

// title builds a fresh Caser per call; Casers are stateful and must not be
// shared between goroutines.
func (n *RegionNormalizer) title(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}
