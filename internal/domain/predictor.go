package domain

import "context"

// Upload is an original CSV file forwarded to the prediction API as-is.
type Upload struct {
	Filename      string
	Content       []byte
	ForecastHours *int
}

// Predictor is the remote prediction service.
type Predictor interface {
	// PredictSite submits structured records for one site.
	PredictSite(ctx context.Context, siteID int, req PredictRequest) (PredictResponse, error)

	// PredictUpload submits the original CSV file for one site.
	PredictUpload(ctx context.Context, siteID int, upload Upload) (PredictResponse, error)

	// LiveSite predicts from the live station feed for one site.
	LiveSite(ctx context.Context, siteID int) (PredictResponse, error)

	// Live24hSite forecasts the next 24 hours from the live station feed.
	Live24hSite(ctx context.Context, siteID int) (PredictResponse, error)

	// Health reports whether the service is up.
	Health(ctx context.Context) (HealthResponse, error)
}
