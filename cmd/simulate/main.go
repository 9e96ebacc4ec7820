// Command simulate runs the policy simulator over a district dataset and
// writes the resulting deployment schedule as CSV. The scenario banner goes
// to stderr so the CSV can be piped.
//
// Usage:
//
//	go run ./cmd/simulate \
//	  -data aadhaar_dashboard_data.csv \
//	  -region Odisha -mode stress -multiplier 2.5 \
//	  -out UIDAI_Orders_2026.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/couchcryptid/district-stress-dashboard/internal/config"
	"github.com/couchcryptid/district-stress-dashboard/internal/dataset"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataPath := fs.String("data", "aadhaar_dashboard_data.csv", "district dataset CSV")
	region := fs.String("region", domain.AllIndia, "region to simulate, or \"All India\"")
	modeFlag := fs.String("mode", "none", "simulator goal: none, stress, or relief")
	multiplier := fs.Float64("multiplier", 1.0, "stress-test load multiplier")
	kits := fs.Int("kits", 0, "mobile kits deployed (relief)")
	staff := fs.Int("staff", 0, "staff efficiency percent (relief)")
	policyPath := fs.String("policy", "", "optional YAML policy file")
	out := fs.String("out", "", "output path for the schedule CSV (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	policy, corrections, err := config.LoadPolicy(*policyPath)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	mode, err := domain.ParseMode(*modeFlag)
	if err != nil {
		return err
	}

	loader := dataset.NewFileLoader(*dataPath, domain.NewRegionNormalizer(corrections))
	ds, err := loader.Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	view := domain.FilterRegion(ds.Records, *region)
	scenario := domain.Scenario{Mode: mode, Multiplier: *multiplier, Kits: *kits, Staff: *staff}
	view, outcome, err := domain.ApplyScenario(view, scenario, policy)
	if err != nil {
		return err
	}

	overview := domain.Summarize(view)
	fmt.Fprintf(stderr, "%s: %d districts, %d critical, median stress %.2f, %d collapsed\n",
		*region, len(view), overview.CriticalHotspots, overview.MedianStress, outcome.Collapsed)
	if outcome.Message != "" {
		fmt.Fprintln(stderr, outcome.Message)
	}

	orders := domain.DeploymentSchedule(view, ds.Columns.Has(domain.ColumnPreparedness))

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}
	if err := dataset.WriteCSV(w, ds.Header, orders); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}
	if *out != "" {
		fmt.Fprintf(stderr, "wrote %d orders to %s\n", len(orders), *out)
	}
	return nil
}
