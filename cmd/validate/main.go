// Command validate performs integrity checks on a published incident dataset:
// record schema, identity, ordering and summary consistency. When an override
// document is given it also checks that every patch targets a published
// incident.
//
// Usage:
//
//	go run ./cmd/validate -dataset data/incidents.json -overrides data/manual_overrides.json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	datasetPath := flag.String("dataset", "data/incidents.json", "path to the published dataset")
	overridesPath := flag.String("overrides", "", "path to the manual override document (optional)")
	flag.Parse()

	if *datasetPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *datasetPath, *overridesPath); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, datasetPath, overridesPath string) int {
	fmt.Fprintln(w, "=== I-79 Incident Dataset Validation ===")
	fmt.Fprintln(w)

	ds, err := jsonfile.ReadDataset(datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(ds.Incidents),
		validateIdentity(ds.Incidents),
		validateOrdering(ds.Incidents),
		validateSummary(ds),
	}

	if overridesPath != "" {
		data, err := os.ReadFile(overridesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read overrides: %v\n", err)
			return 1
		}
		payload, err := jsonfile.DecodeOverrides(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		phases = append(phases, validateOverrideTargets(payload, ds.Incidents))
	}

	return report(w, phases, ds)
}

func report(w io.Writer, phases []*phase, ds domain.Dataset) int {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Incidents: %d (generated %s)\n", len(ds.Incidents), ds.Summary.GeneratedAt)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}
