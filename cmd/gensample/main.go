// Command gensample writes a synthetic hourly forecast-input CSV for demos
// and manual testing of the upload endpoints. Output is reproducible for a
// given seed and start time. The generated file is parsed with the same
// ingestion code the service uses before it is written.
//
// Usage:
//
//	go run ./cmd/gensample -hours 72 -start 2024-03-01T00 -out data/sample_72h.csv
//	go run ./cmd/gensample -hours 24 -blank-every 5 -satellite > sample.csv
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/jonboulle/clockwork"
)

var header = []string{
	"year", "month", "day", "hour",
	"O3_forecast", "NO2_forecast", "T_forecast", "q_forecast",
	"u_forecast", "v_forecast", "w_forecast", "blh_forecast",
}

var satelliteHeader = []string{"NO2_satellite", "HCHO_satellite"}

type options struct {
	hours      int
	start      time.Time
	seed       uint64
	blankEvery int
	satellite  bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	hours := flag.Int("hours", 48, "number of hourly rows to generate")
	start := flag.String("start", "2024-03-01T00", "first hour, UTC, as YYYY-MM-DDTHH")
	seed := flag.Uint64("seed", 42, "random seed")
	blankEvery := flag.Int("blank-every", 0, "blank one covariate cell every N rows (0 disables)")
	satellite := flag.Bool("satellite", false, "include NO2_satellite and HCHO_satellite columns")
	out := flag.String("out", "", "output path (stdout when empty)")
	flag.Parse()

	if *hours <= 0 {
		flag.Usage()
		return fmt.Errorf("-hours must be positive")
	}
	startTime, err := time.Parse("2006-01-02T15", *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	data, err := generate(options{
		hours:      *hours,
		start:      startTime,
		seed:       *seed,
		blankEvery: *blankEvery,
		satellite:  *satellite,
	})
	if err != nil {
		return err
	}

	// Fix the clock so any fallback timestamps in the self-check are stable.
	domain.SetClock(clockwork.NewFakeClockAt(startTime))
	defer domain.SetClock(nil)

	report, err := domain.ParseForecastTable(string(data))
	if err != nil {
		return fmt.Errorf("generated csv does not parse: %w", err)
	}
	horizon := "delegated"
	if h := domain.HorizonFromUpload(report.Records).ForecastHours; h != nil {
		horizon = strconv.Itoa(*h)
	}
	log.Printf("generated %d rows (%d defaulted cells, horizon %s)", len(report.Records), report.DefaultedCells, horizon)

	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		return err
	}
	log.Printf("wrote %s", *out)
	return nil
}

func generate(opts options) ([]byte, error) {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	cols := header
	if opts.satellite {
		cols = append(append([]string{}, header...), satelliteHeader...)
	}
	if err := w.Write(cols); err != nil {
		return nil, err
	}

	for i := 0; i < opts.hours; i++ {
		ts := opts.start.Add(time.Duration(i) * time.Hour)
		row := sampleRow(rng, ts, opts.satellite)
		if opts.blankEvery > 0 && (i+1)%opts.blankEvery == 0 {
			// Blank a covariate, never an identity column, so the row survives ingestion.
			row[4+rng.IntN(len(header)-4)] = ""
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// sampleRow produces plausible Delhi covariates with a diurnal cycle:
// ozone and temperature peak mid-afternoon, NO2 peaks at the rush hours and
// the boundary layer deepens during the day.
func sampleRow(rng *rand.Rand, ts time.Time, satellite bool) []string {
	h := float64(ts.Hour())
	day := math.Sin((h - 9) / 24 * 2 * math.Pi) // peaks at 15:00
	rush := math.Exp(-math.Pow(h-9, 2)/4) + math.Exp(-math.Pow(h-20, 2)/4)

	o3 := 45 + 30*day + rng.NormFloat64()*4
	no2 := 55 + 35*rush - 10*day + rng.NormFloat64()*5
	t := 24 + 7*day + rng.NormFloat64()
	q := 9 + 1.5*rng.Float64()
	u := 1.5 + rng.NormFloat64()*1.2
	v := -0.5 + rng.NormFloat64()*1.2
	w := rng.NormFloat64() * 0.05
	blh := 350 + 1200*math.Max(day, 0) + rng.Float64()*80

	row := []string{
		strconv.Itoa(ts.Year()), strconv.Itoa(int(ts.Month())), strconv.Itoa(ts.Day()), strconv.Itoa(ts.Hour()),
		format(math.Max(o3, 0)), format(math.Max(no2, 0)), format(t), format(q),
		format(u), format(v), format(w), format(blh),
	}
	if satellite {
		row = append(row, format(math.Max(12+rng.NormFloat64()*3, 0)), format(math.Max(6+rng.NormFloat64()*2, 0)))
	}
	return row
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
