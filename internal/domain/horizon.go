package domain

import "time"

// MaxExplicitHorizon is the largest upload for which the forecast horizon is
// requested explicitly. Longer uploads leave the horizon to the prediction API.
const MaxExplicitHorizon = 48

// ManualExpansionHours is the length of a forecast built from one manual entry.
const ManualExpansionHours = 24

// Horizon carries the optional forecast-hour cap for a request.
type Horizon struct {
	ForecastHours *int
}

// HorizonFromUpload requests exactly len(records) hours for uploads of up to
// MaxExplicitHorizon rows and omits the cap for anything longer.
func HorizonFromUpload(records []ForecastInputRecord) Horizon {
	n := len(records)
	if n > MaxExplicitHorizon {
		return Horizon{}
	}
	return Horizon{ForecastHours: &n}
}

// ExpandTo24Hours produces ManualExpansionHours consecutive hourly records
// starting at base's timestamp. Day, month and year roll over with calendar
// arithmetic; every other field is copied from base.
func ExpandTo24Hours(base ForecastInputRecord) []ForecastInputRecord {
	start := base.Timestamp()
	out := make([]ForecastInputRecord, ManualExpansionHours)
	for i := range out {
		out[i] = base.withTimestamp(start.Add(time.Duration(i) * time.Hour))
	}
	return out
}
