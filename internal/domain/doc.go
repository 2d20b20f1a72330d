// Package domain models forecast inputs for the Delhi air-quality prediction
// service and the rules for turning user uploads into prediction requests.
//
// # Upload Format
//
// Uploads are UTF-8, comma-separated, with a header line. Header names are
// matched case-insensitively and may appear in any order:
//
//	year,month,day,hour                     required identity columns
//	o3_forecast,no2_forecast,t_forecast     required covariates (defaulted)
//	q_forecast,u_forecast,v_forecast
//	w_forecast,blh_forecast
//	no2_satellite,hcho_satellite,sza_deg    optional covariates (omitted)
//
// Anything else in the header is ignored. Cells are not quoted; commas always
// separate cells.
//
// # Leniency
//
// Dirty data is resolved rather than rejected, in favour of a best-effort
// forecast:
//
//	blank identity cell            row skipped
//	non-numeric identity cell      current date/time component
//	blank/non-numeric covariate    default (O3 50, NO2 70, T 25, q 50,
//	                               u 1.5, v -0.5, w 0, blh 500)
//	blank/non-numeric optional     field left out of the request
//
// Numbers are read by their leading numeric prefix, so "41.2ppb" is 41.2.
//
// Only three structural problems fail an upload, all matching [ErrInvalidCSV]:
// no data line ([ErrEmptyOrHeaderOnly]), missing identity columns
// ([MissingColumnsError]) and no row surviving the skip rule ([ErrNoValidRows]).
//
// # Forecast Horizon
//
// Uploads of up to 48 rows request exactly that many hours. Longer uploads
// omit forecast_hours and the prediction service decides how many rows to
// honour. A single manual entry can be expanded to 24 consecutive hours with
// [ExpandTo24Hours].
//
// # Sites
//
// Site IDs 1-7 correspond to the Delhi monitoring stations listed by
// [DefaultSites]; a deployment may replace the catalog from a YAML file.
package domain
