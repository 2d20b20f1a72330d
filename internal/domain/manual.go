package domain

// ManualInput is a single forecast entry typed into the dashboard form.
// Nil fields take the current date/time or the covariate default. The solar
// zenith angle is computed by the prediction API and cannot be entered.
type ManualInput struct {
	Year  *int `json:"year,omitempty"`
	Month *int `json:"month,omitempty"`
	Day   *int `json:"day,omitempty"`
	Hour  *int `json:"hour,omitempty"`

	O3Forecast  *float64 `json:"O3_forecast,omitempty"`
	NO2Forecast *float64 `json:"NO2_forecast,omitempty"`
	TForecast   *float64 `json:"T_forecast,omitempty"`
	QForecast   *float64 `json:"q_forecast,omitempty"`
	UForecast   *float64 `json:"u_forecast,omitempty"`
	VForecast   *float64 `json:"v_forecast,omitempty"`
	WForecast   *float64 `json:"w_forecast,omitempty"`
	BLHForecast *float64 `json:"blh_forecast,omitempty"`

	NO2Satellite  *float64 `json:"NO2_satellite,omitempty"`
	HCHOSatellite *float64 `json:"HCHO_satellite,omitempty"`
}

// Record normalizes the form entry into a ForecastInputRecord.
func (m ManualInput) Record() ForecastInputRecord {
	rec := defaultRecord(clock.Now())

	for _, f := range []struct {
		src *int
		dst *int
	}{
		{m.Year, &rec.Year}, {m.Month, &rec.Month}, {m.Day, &rec.Day}, {m.Hour, &rec.Hour},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{m.O3Forecast, &rec.O3Forecast},
		{m.NO2Forecast, &rec.NO2Forecast},
		{m.TForecast, &rec.TForecast},
		{m.QForecast, &rec.QForecast},
		{m.UForecast, &rec.UForecast},
		{m.VForecast, &rec.VForecast},
		{m.WForecast, &rec.WForecast},
		{m.BLHForecast, &rec.BLHForecast},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	rec.NO2Satellite = cloneFloat(m.NO2Satellite)
	rec.HCHOSatellite = cloneFloat(m.HCHOSatellite)
	return rec
}
