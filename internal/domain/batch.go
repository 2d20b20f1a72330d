package domain

import (
	"errors"
	"fmt"
)

// ForecastRequestBatch binds normalized records to one monitoring site.
type ForecastRequestBatch struct {
	SiteID        int
	Records       []ForecastInputRecord
	ForecastHours *int
}

// NewForecastBatch attaches records to siteID and derives the forecast
// horizon from the number of records.
func NewForecastBatch(siteID int, records []ForecastInputRecord) (ForecastRequestBatch, error) {
	if siteID <= 0 {
		return ForecastRequestBatch{}, fmt.Errorf("%w: %d", ErrUnknownSite, siteID)
	}
	if len(records) == 0 {
		return ForecastRequestBatch{}, errors.New("forecast batch has no records")
	}
	return ForecastRequestBatch{
		SiteID:        siteID,
		Records:       records,
		ForecastHours: HorizonFromUpload(records).ForecastHours,
	}, nil
}

// Request renders the batch as the prediction API request body.
func (b ForecastRequestBatch) Request() PredictRequest {
	siteID := b.SiteID
	return PredictRequest{
		InputData:     b.Records,
		SiteID:        &siteID,
		ForecastHours: b.ForecastHours,
	}
}
