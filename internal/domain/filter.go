package domain

import (
	"sort"
	"strings"
)

// FilterRegion returns the records of one region. An empty region or
// AllIndia returns records unchanged.
func FilterRegion(records []District, region string) []District {
	region = strings.TrimSpace(region)
	if region == "" || region == AllIndia {
		return records
	}
	out := make([]District, 0, len(records))
	for _, r := range records {
		if r.State == region {
			out = append(out, r)
		}
	}
	return out
}

// Regions returns the distinct region names in sorted order.
func Regions(records []District) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.State] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// RegionOptions returns the region selector values: AllIndia first, then
// every region in sorted order.
func RegionOptions(records []District) []string {
	return append([]string{AllIndia}, Regions(records)...)
}
