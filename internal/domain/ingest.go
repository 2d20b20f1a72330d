package domain

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// utf8BOM is prepended by spreadsheet "CSV UTF-8" exports.
const utf8BOM = "\ufeff"

// requiredColumns are the identity columns every upload header must carry.
var requiredColumns = []string{"year", "month", "day", "hour"}

// leadingFloatRe matches the numeric prefix a lenient float parser accepts,
// e.g. "12.5ppb" -> "12.5", ".5" -> ".5", "1e3x" -> "1e3".
var leadingFloatRe = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)

// covariate describes a required numeric column and its fallback value.
type covariate struct {
	column   string
	fallback float64
	set      func(*ForecastInputRecord, float64)
}

var covariates = []covariate{
	{"o3_forecast", DefaultO3Forecast, func(r *ForecastInputRecord, v float64) { r.O3Forecast = v }},
	{"no2_forecast", DefaultNO2Forecast, func(r *ForecastInputRecord, v float64) { r.NO2Forecast = v }},
	{"t_forecast", DefaultTForecast, func(r *ForecastInputRecord, v float64) { r.TForecast = v }},
	{"q_forecast", DefaultQForecast, func(r *ForecastInputRecord, v float64) { r.QForecast = v }},
	{"u_forecast", DefaultUForecast, func(r *ForecastInputRecord, v float64) { r.UForecast = v }},
	{"v_forecast", DefaultVForecast, func(r *ForecastInputRecord, v float64) { r.VForecast = v }},
	{"w_forecast", DefaultWForecast, func(r *ForecastInputRecord, v float64) { r.WForecast = v }},
	{"blh_forecast", DefaultBLHForecast, func(r *ForecastInputRecord, v float64) { r.BLHForecast = v }},
}

// optionalColumns are left nil when their cell is blank or unparseable.
var optionalColumns = []struct {
	column string
	set    func(*ForecastInputRecord, float64)
}{
	{"no2_satellite", func(r *ForecastInputRecord, v float64) { r.NO2Satellite = &v }},
	{"hcho_satellite", func(r *ForecastInputRecord, v float64) { r.HCHOSatellite = &v }},
	{"sza_deg", func(r *ForecastInputRecord, v float64) { r.SZADeg = &v }},
}

// IngestReport is the outcome of parsing one upload.
type IngestReport struct {
	Records []ForecastInputRecord
	// SkippedLines holds 1-based line numbers of data rows dropped because an
	// identity cell was blank.
	SkippedLines []int
	// DefaultedCells counts covariate and identity cells replaced by a fallback.
	DefaultedCells int
}

// ParseForecastCSV turns raw CSV text into normalized forecast input records.
// See ParseForecastTable for the row policy.
func ParseForecastCSV(text string) ([]ForecastInputRecord, error) {
	report, err := ParseForecastTable(text)
	if err != nil {
		return nil, err
	}
	return report.Records, nil
}

// ReadForecastCSV reads the whole upload in one shot and parses it.
func ReadForecastCSV(r io.Reader) (IngestReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return IngestReport{}, fmt.Errorf("upload read: %w", err)
	}
	return ParseForecastTable(string(data))
}

// ParseForecastTable parses CSV text with a header line and at least one data
// line. A leading UTF-8 byte-order mark is ignored. Header names are matched case-insensitively and column order does not
// matter. A data row with a blank year, month, day or hour cell is skipped.
// Required covariates that are blank or not numeric take their documented
// defaults, unparseable identity cells take the current date/time component,
// and optional satellite columns stay nil. Unknown columns are ignored.
func ParseForecastTable(text string) (IngestReport, error) {
	text = strings.TrimPrefix(text, utf8BOM)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return IngestReport{}, ErrEmptyOrHeaderOnly
	}

	index := headerIndex(lines[0])
	present := make(map[string]struct{}, len(index))
	for name := range index {
		present[name] = struct{}{}
	}
	if missing := MissingRequiredColumns(present); len(missing) > 0 {
		return IngestReport{}, &MissingColumnsError{Missing: missing}
	}

	now := clock.Now()
	report := IngestReport{Records: make([]ForecastInputRecord, 0, len(lines)-1)}
	for i, line := range lines[1:] {
		cells := splitCells(line)
		rec, defaulted, ok := index.record(cells, now)
		if !ok {
			report.SkippedLines = append(report.SkippedLines, i+2)
			continue
		}
		report.Records = append(report.Records, rec)
		report.DefaultedCells += defaulted
	}

	if len(report.Records) == 0 {
		return report, ErrNoValidRows
	}
	return report, nil
}

// MissingRequiredColumns returns the required identity columns absent from
// header, in canonical order. An empty result means the header is valid.
func MissingRequiredColumns(header map[string]struct{}) []string {
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := header[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// columnIndex maps a lower-cased header name to its first position.
type columnIndex map[string]int

func headerIndex(line string) columnIndex {
	index := make(columnIndex)
	for i, name := range splitCells(line) {
		name = strings.ToLower(name)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	return index
}

func (ix columnIndex) cell(cells []string, column string) string {
	i, ok := ix[column]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// record builds a record from one data row. It reports how many cells fell
// back to a default and false when the row must be skipped.
func (ix columnIndex) record(cells []string, now time.Time) (ForecastInputRecord, int, bool) {
	identity := make([]string, len(requiredColumns))
	for i, column := range requiredColumns {
		identity[i] = ix.cell(cells, column)
		if identity[i] == "" {
			return ForecastInputRecord{}, 0, false
		}
	}

	rec := defaultRecord(now)
	defaulted := 0

	targets := []*int{&rec.Year, &rec.Month, &rec.Day, &rec.Hour}
	for i, raw := range identity {
		if v, ok := parseIdentity(raw); ok {
			*targets[i] = v
		} else {
			defaulted++
		}
	}

	for _, c := range covariates {
		if v, ok := parseNumber(ix.cell(cells, c.column)); ok {
			c.set(&rec, v)
		} else {
			c.set(&rec, c.fallback)
			defaulted++
		}
	}

	for _, c := range optionalColumns {
		if v, ok := parseNumber(ix.cell(cells, c.column)); ok {
			c.set(&rec, v)
		}
	}

	return rec, defaulted, true
}

// parseIdentity truncates a numeric identity cell toward zero. Values outside
// the int range are not identities.
func parseIdentity(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	v = math.Trunc(v)
	if v < math.MinInt || v >= math.MaxInt {
		return 0, false
	}
	return int(v), true
}

func splitCells(line string) []string {
	cells := strings.Split(line, ",")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// parseNumber parses the leading numeric prefix of s. Empty strings, words
// such as "NaN" or "Infinity", and out-of-range values are not numbers.
func parseNumber(s string) (float64, bool) {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
