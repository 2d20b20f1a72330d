package domain

import "encoding/json"

// PredictRequest is the JSON body accepted by the prediction endpoints.
type PredictRequest struct {
	InputData     []ForecastInputRecord `json:"input_data"`
	SiteID        *int                  `json:"site_id,omitempty"`
	ForecastHours *int                  `json:"forecast_hours,omitempty"`
}

// Prediction is one hourly pollutant forecast.
type Prediction struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
	Hour  int `json:"hour"`

	O3Target   float64 `json:"O3_target"`
	NO2Target  float64 `json:"NO2_target"`
	HCHOTarget float64 `json:"HCHO_target"`
	COTarget   float64 `json:"CO_target"`
	PM25Target float64 `json:"PM25_target"`
	PM10Target float64 `json:"PM10_target"`
}

// PredictResponse is returned by every prediction endpoint. ForecastHours is
// nil when the service decided the horizon itself.
type PredictResponse struct {
	Success       bool         `json:"success"`
	SiteID        int          `json:"site_id"`
	ForecastHours *int         `json:"forecast_hours"`
	Predictions   []Prediction `json:"predictions"`
	Message       string       `json:"message"`
	LiveSource    *LiveSource  `json:"live_source,omitempty"`
}

// LiveSource describes the WAQI station observation behind a live prediction.
type LiveSource struct {
	StationID       int        `json:"station_id"`
	StationName     string     `json:"station_name"`
	StationLocation [2]float64 `json:"station_location"` // [lat, lon]
	MeasurementTime string     `json:"measurement_time"`
	Timezone        string     `json:"timezone"`
	OverallAQI      float64    `json:"overall_aqi"`
	ObservedNO2     float64    `json:"observed_no2"`
	ObservedO3      float64    `json:"observed_o3"`
}

// HealthResponse is the basic API status.
type HealthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ModelStatus reports whether a trained model is loaded.
type ModelStatus struct {
	Available   bool   `json:"available"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// ModelHealthResponse lists model availability keyed by model name.
type ModelHealthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Models  map[string]ModelStatus `json:"models"`
}

// ModelDetailResponse describes the model trained for one site.
type ModelDetailResponse struct {
	Success   bool     `json:"success"`
	SiteID    int      `json:"site_id"`
	ModelName string   `json:"model_name"`
	Features  []string `json:"features"`
	Message   string   `json:"message"`
}

// HistoricalPoint is one observed hour from the training data.
type HistoricalPoint struct {
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	Day         int      `json:"day"`
	Hour        int      `json:"hour"`
	O3Observed  *float64 `json:"O3_observed"`
	NO2Observed *float64 `json:"NO2_observed"`
	Datetime    string   `json:"datetime"`
}

// HistoricalQuery selects the observation window. Hours wins over Days;
// with neither set the last 30 days are returned.
type HistoricalQuery struct {
	Days  int
	Hours int
}

// HistoricalDataResponse holds observed data for a site over a time period.
type HistoricalDataResponse struct {
	Success    bool              `json:"success"`
	SiteID     int               `json:"site_id"`
	TimePeriod string            `json:"time_period"`
	DataPoints int               `json:"data_points"`
	Data       []HistoricalPoint `json:"data"`
}

// ModelMetrics is the evaluation report (RMSE, R², RIA per site) passed
// through unchanged; its shape is owned by the model pipeline.
type ModelMetrics = json.RawMessage
