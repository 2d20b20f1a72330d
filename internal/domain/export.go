package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var predictionCSVHeader = []string{
	"timestamp",
	"O3 (ppb)",
	"NO2 (ppb)",
	"HCHO (ppb)",
	"CO (ppm)",
	"PM2.5 (µg/m³)",
	"PM10 (µg/m³)",
}

// WritePredictionsCSV writes predictions as a report CSV, one row per hour,
// values rounded to two decimals.
func WritePredictionsCSV(w io.Writer, predictions []Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(predictionCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range predictions {
		ts := time.Date(p.Year, time.Month(p.Month), p.Day, p.Hour, 0, 0, 0, time.UTC)
		row := []string{
			ts.Format("2006-01-02T15:04:05"),
			formatValue(p.O3Target),
			formatValue(p.NO2Target),
			formatValue(p.HCHOTarget),
			formatValue(p.COTarget),
			formatValue(p.PM25Target),
			formatValue(p.PM10Target),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
