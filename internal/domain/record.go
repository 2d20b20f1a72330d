package domain

import "time"

// Fallback covariate values substituted when a CSV cell or form field is
// blank or not a number.
const (
	DefaultO3Forecast  = 50.0
	DefaultNO2Forecast = 70.0
	DefaultTForecast   = 25.0
	DefaultQForecast   = 50.0
	DefaultUForecast   = 1.5
	DefaultVForecast   = -0.5
	DefaultWForecast   = 0.0
	DefaultBLHForecast = 500.0
)

// ForecastInputRecord is one normalized hour of meteorological and pollutant
// covariates, shaped the way the prediction API expects it.
type ForecastInputRecord struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
	Hour  int `json:"hour"`

	O3Forecast  float64 `json:"O3_forecast"`
	NO2Forecast float64 `json:"NO2_forecast"`
	TForecast   float64 `json:"T_forecast"` // temperature
	QForecast   float64 `json:"q_forecast"` // specific humidity
	UForecast   float64 `json:"u_forecast"` // zonal wind
	VForecast   float64 `json:"v_forecast"` // meridional wind
	WForecast   float64 `json:"w_forecast"` // vertical velocity
	BLHForecast float64 `json:"blh_forecast"`

	// Optional satellite covariates. Nil means the source did not supply a value.
	NO2Satellite  *float64 `json:"NO2_satellite,omitempty"`
	HCHOSatellite *float64 `json:"HCHO_satellite,omitempty"`
	SZADeg        *float64 `json:"SZA_deg,omitempty"`
}

// Timestamp returns the record's hour as a UTC time. Out-of-range components
// are normalized the way time.Date does.
func (r ForecastInputRecord) Timestamp() time.Time {
	return time.Date(r.Year, time.Month(r.Month), r.Day, r.Hour, 0, 0, 0, time.UTC)
}

// withTimestamp returns a copy of r moved to t, with optional fields cloned so
// the copy shares no memory with r.
func (r ForecastInputRecord) withTimestamp(t time.Time) ForecastInputRecord {
	out := r
	out.Year = t.Year()
	out.Month = int(t.Month())
	out.Day = t.Day()
	out.Hour = t.Hour()
	out.NO2Satellite = cloneFloat(r.NO2Satellite)
	out.HCHOSatellite = cloneFloat(r.HCHOSatellite)
	out.SZADeg = cloneFloat(r.SZADeg)
	return out
}

// defaultRecord returns a record stamped with now and every required
// covariate at its fallback value.
func defaultRecord(now time.Time) ForecastInputRecord {
	return ForecastInputRecord{
		Year:        now.Year(),
		Month:       int(now.Month()),
		Day:         now.Day(),
		Hour:        now.Hour(),
		O3Forecast:  DefaultO3Forecast,
		NO2Forecast: DefaultNO2Forecast,
		TForecast:   DefaultTForecast,
		QForecast:   DefaultQForecast,
		UForecast:   DefaultUForecast,
		VForecast:   DefaultVForecast,
		WForecast:   DefaultWForecast,
		BLHForecast: DefaultBLHForecast,
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
