// Command validate checks a district dataset before it is deployed: column
// presence, field ranges, region normalisation, simulator invariants, and that
// the CSV export round-trips through the loader.
//
// Usage:
//
//	go run ./cmd/validate -data aadhaar_dashboard_data.csv [-policy policy.yaml]
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/district-stress-dashboard/internal/config"
	"github.com/couchcryptid/district-stress-dashboard/internal/dataset"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
)

// requiredColumns must be present for the core dashboard to work.
var requiredColumns = []string{
	domain.ColumnState,
	domain.ColumnDistrict,
	domain.ColumnStress,
	domain.ColumnPriority,
}

// panelColumns feed optional panels; their absence only hides a panel.
var panelColumns = []string{
	domain.ColumnSecurity,
	domain.ColumnMBUDemand,
	domain.ColumnPreparedness,
	domain.ColumnPlaybook,
	domain.ColumnAcceleration,
	domain.ColumnAdults,
	domain.ColumnDistrictType,
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataPath := flag.String("data", "", "district dataset CSV")
	policyPath := flag.String("policy", "", "optional YAML policy file")
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dataPath, *policyPath, os.Stdout))
}

func run(dataPath, policyPath string, out io.Writer) int {
	fmt.Fprintln(out, "=== District Dataset Validation ===")
	fmt.Fprintln(out)

	policy, corrections, err := config.LoadPolicy(policyPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load policy: %v\n", err)
		return 1
	}
	normalizer := domain.NewRegionNormalizer(corrections)

	header, raws, err := loadRaw(dataPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load dataset: %v\n", err)
		return 1
	}

	ds, err := dataset.NewFileLoader(dataPath, normalizer).Load(context.Background())
	if err != nil {
		fmt.Fprintf(out, "FATAL: load dataset: %v\n", err)
		return 1
	}
	records := ds.Records
	if len(records) != len(raws) {
		fmt.Fprintf(out, "FATAL: loader returned %d rows, raw read %d\n", len(records), len(raws))
		return 1
	}

	phases := []*phase{
		validateColumns(header),
		validateFields(raws, records),
		validateRegions(raws, records, normalizer),
		validateSimulator(records, policy),
		validateExport(ds.Header, records, normalizer),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d rows, %d regions\n", len(records), len(domain.Regions(records)))

	for _, p := range phases {
		for _, n := range p.notes {
			fmt.Fprintf(out, "  Note: %s\n", n)
		}
	}
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// loadRaw reads every row as text so field checks can see the original values.
func loadRaw(path string) ([]string, []domain.RawDistrictRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.LazyQuotes = true
	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var raws []domain.RawDistrictRecord
	if err := dec.Decode(&raws); err != nil && err != io.EOF {
		return nil, nil, err
	}
	if len(raws) == 0 {
		return nil, nil, fmt.Errorf("no data rows in %s", path)
	}
	return dec.Header(), raws, nil
}

// ── Phase 1: Columns ──

func validateColumns(header []string) *phase {
	p := &phase{name: "Phase 1: Columns"}
	cols := domain.NewColumnSet(header)

	for _, c := range requiredColumns {
		if !cols.Has(c) {
			p.errorf("required column %q is missing", c)
		}
	}
	for _, c := range panelColumns {
		if !cols.Has(c) {
			p.notef("optional column %q is missing; its panel will be hidden", c)
		}
	}
	return p
}

// ── Phase 2: Field ranges ──

func validateFields(raws []domain.RawDistrictRecord, records []domain.District) *phase {
	p := &phase{name: "Phase 2: Field Ranges"}
	seen := make(map[string]int, len(records))

	for i, r := range records {
		line := i + 2
		if r.District == "" {
			p.errorf("line %d: district is empty", line)
		}
		if r.Stress < 0 {
			p.errorf("line %d (%s): assi %g is negative", line, r.Key(), r.Stress)
		}
		if r.Preparedness < 0 || r.Preparedness > 100 {
			p.errorf("line %d (%s): Preparedness_Index %g outside [0, 100]", line, r.Key(), r.Preparedness)
		}
		if r.MBUDemand < 0 {
			p.errorf("line %d (%s): future_mbu_demand %d is negative", line, r.Key(), r.MBUDemand)
		}
		if label := strings.TrimSpace(raws[i].Priority); label != "" && !strings.EqualFold(label, r.Priority.String()) {
			p.errorf("line %d (%s): unknown Priority %q treated as Normal", line, r.Key(), label)
		}
		if prev, ok := seen[r.Key()]; ok {
			p.notef("line %d duplicates line %d (%s); deep dive shows the first", line, prev, r.Key())
			continue
		}
		seen[r.Key()] = line
	}
	return p
}

// ── Phase 3: Region normalisation ──

func validateRegions(raws []domain.RawDistrictRecord, records []domain.District, n *domain.RegionNormalizer) *phase {
	p := &phase{name: "Phase 3: Region Normalisation"}
	corrected := 0

	for i, r := range records {
		if !n.IsCanonical(r.State) {
			p.errorf("line %d: region %q is still a known misspelling", i+2, r.State)
		}
		if r.State == "" {
			p.errorf("line %d: region is empty", i+2)
		}
		if strings.TrimSpace(raws[i].State) != r.State {
			corrected++
		}
	}
	if corrected > 0 {
		p.notef("%d region value(s) were cleaned during normalisation", corrected)
	}
	return p
}

// ── Phase 4: Simulator invariants ──

func validateSimulator(records []domain.District, policy domain.Policy) *phase {
	p := &phase{name: "Phase 4: Simulator Invariants"}
	before := append([]domain.District(nil), records...)

	const multiplier = 2.0
	scaled, outcome, err := domain.ApplyScenario(records, domain.Scenario{Mode: domain.ModeStressTest, Multiplier: multiplier}, policy)
	if err != nil {
		p.errorf("stress test: %v", err)
		return p
	}
	collapsed := 0
	for i := range scaled {
		if !floatEq(scaled[i].Stress, records[i].Stress*multiplier) {
			p.errorf("%s: stress test produced %g, expected %g", records[i].Key(), scaled[i].Stress, records[i].Stress*multiplier)
		}
		if scaled[i].Stress > policy.CollapseThreshold {
			collapsed++
		}
	}
	if collapsed != outcome.Collapsed {
		p.errorf("stress test collapsed count %d, expected %d", outcome.Collapsed, collapsed)
	}

	reduced, _, err := domain.ApplyScenario(records, domain.Scenario{Mode: domain.ModeRelief, Kits: policy.MaxKits, Staff: policy.MaxStaff}, policy)
	if err != nil {
		p.errorf("relief: %v", err)
		return p
	}
	for i := range reduced {
		if reduced[i].Stress < policy.StressFloor {
			p.errorf("%s: relief dropped stress to %g, below floor %g", records[i].Key(), reduced[i].Stress, policy.StressFloor)
		}
	}

	idle, _, err := domain.ApplyScenario(records, domain.Scenario{Mode: domain.ModeRelief}, policy)
	if err != nil {
		p.errorf("idle relief: %v", err)
		return p
	}
	if diff := cmp.Diff(records, idle); diff != "" {
		p.errorf("relief with no resources changed the view:\n%s", diff)
	}

	if diff := cmp.Diff(before, records); diff != "" {
		p.errorf("scenarios mutated the source records:\n%s", diff)
	}
	return p
}

// ── Phase 5: Export round-trip ──

func validateExport(header []string, records []domain.District, n *domain.RegionNormalizer) *phase {
	p := &phase{name: "Phase 5: Export Round-trip"}

	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, header, records); err != nil {
		p.errorf("write csv: %v", err)
		return p
	}
	again, againHeader, err := dataset.Decode(&buf, n)
	if err != nil {
		p.errorf("re-read csv: %v", err)
		return p
	}
	if diff := cmp.Diff(header, againHeader); diff != "" {
		p.errorf("export header differs from source:\n%s", diff)
	}
	if len(again) != len(records) {
		p.errorf("round-trip returned %d records, expected %d", len(again), len(records))
		return p
	}
	for i := range records {
		if diff := cmp.Diff(records[i], again[i]); diff != "" {
			p.errorf("%s changed on round-trip:\n%s", records[i].Key(), diff)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
