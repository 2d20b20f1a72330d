// Command checkcsv validates forecast-input CSV files offline with the same
// ingestion rules the service applies to uploads. It reports the parsed
// horizon, skipped rows and defaulted cells, and exits non-zero when a file
// would be rejected.
//
// Usage:
//
//	go run ./cmd/checkcsv data/sample_72h.csv other.csv
//	go run ./cmd/checkcsv -site 3 -sites-file sites.yaml upload.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/config"
	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
)

// phase tracks pass/fail for a validation phase. Notes are informational.
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
	siteID := flag.Int("site", 0, "site ID the upload is meant for (0 skips the check)")
	sitesFile := flag.String("sites-file", "", "YAML site catalog (built-in sites when empty)")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	sites := domain.DefaultSites()
	if *sitesFile != "" {
		var err error
		if sites, err = config.LoadSites(*sitesFile); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(1)
		}
	}
	catalog, err := domain.NewCatalog(sites)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	code := 0
	for _, path := range flag.Args() {
		if run(os.Stdout, path, catalog, *siteID) != 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run(out io.Writer, path string, catalog *domain.Catalog, siteID int) int {
	fmt.Fprintf(out, "=== %s ===\n", path)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}
	defer f.Close()

	report, phases := check(f, catalog, siteID)

	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
		}
		fmt.Fprintf(out, "  %-24s %s\n", p.name, status)
	}

	if len(report.Records) > 0 {
		horizon := "delegated to the prediction API"
		if h := domain.HorizonFromUpload(report.Records).ForecastHours; h != nil {
			horizon = strconv.Itoa(*h) + " hours"
		}
		fmt.Fprintf(out, "\nRecords: %d, skipped rows: %d, defaulted cells: %d, horizon: %s\n",
			len(report.Records), len(report.SkippedLines), report.DefaultedCells, horizon)
	}

	failed := false
	for _, p := range phases {
		for i, e := range p.errors {
			if i == 0 {
				fmt.Fprintf(out, "\n--- %s ---\n", p.name)
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(out, "  note: %s\n", n)
		}
		failed = failed || !p.passed()
	}

	if failed {
		fmt.Fprintln(out, "\nValidation FAILED.")
		return 1
	}
	fmt.Fprintln(out, "\nAll checks passed.")
	return 0
}

func check(r io.Reader, catalog *domain.Catalog, siteID int) (domain.IngestReport, []*phase) {
	site := &phase{name: "Site"}
	if siteID != 0 {
		if s, err := catalog.Lookup(siteID); err != nil {
			site.errorf("%v", err)
		} else {
			site.notef("site %d is %s", s.ID, s.Name)
		}
	}

	structure := &phase{name: "Structure"}
	report, err := domain.ReadForecastCSV(r)
	if err != nil {
		structure.errorf("%v", err)
		return report, []*phase{site, structure}
	}
	for _, line := range report.SkippedLines {
		structure.notef("line %d skipped: blank year, month, day or hour", line)
	}
	if report.DefaultedCells > 0 {
		structure.notef("%d cells replaced by default values", report.DefaultedCells)
	}

	return report, []*phase{site, structure, checkTimeline(report.Records)}
}

// checkTimeline flags identity values the calendar would silently normalize
// and repeated hours; gaps are only noted.
func checkTimeline(records []domain.ForecastInputRecord) *phase {
	p := &phase{name: "Timeline"}
	seen := make(map[time.Time]int, len(records))

	for i, r := range records {
		if r.Month < 1 || r.Month > 12 || r.Day < 1 || r.Day > 31 || r.Hour < 0 || r.Hour > 23 {
			p.errorf("record %d: %04d-%02d-%02d hour %d is out of range", i+1, r.Year, r.Month, r.Day, r.Hour)
			continue
		}
		ts := r.Timestamp()
		if first, dup := seen[ts]; dup {
			p.errorf("record %d repeats %s from record %d", i+1, ts.Format(time.DateTime), first)
			continue
		}
		seen[ts] = i + 1

		if i > 0 {
			if gap := ts.Sub(records[i-1].Timestamp()); gap > time.Hour {
				p.notef("%s gap before record %d", gap, i+1)
			}
		}
	}
	return p
}
