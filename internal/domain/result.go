package domain

import "time"

// Submission sources. SourceLive24h is a 24-hour forecast seeded from the
// live station feed.
const (
	SourceUpload  = "upload"
	SourceManual  = "manual"
	SourceRaw     = "raw"
	SourceLive    = "live"
	SourceLive24h = "live_24h"
)

// CSVSubmission is an uploaded CSV for one site. SessionKey, when set, ties
// the submission to a dashboard session where only the latest one counts.
type CSVSubmission struct {
	SiteID     int
	SessionKey string
	Filename   string
	Content    []byte
}

// ManualSubmission is a single form entry for one site.
type ManualSubmission struct {
	SiteID     int
	SessionKey string
	Input      ManualInput
	Expand24   bool
}

// ForecastResult is a completed prediction, as returned to the dashboard and
// published downstream.
type ForecastResult struct {
	ID          string          `json:"id"`
	SiteID      int             `json:"site_id"`
	Source      string          `json:"source"`
	Rows        int             `json:"rows"`
	SkippedRows int             `json:"skipped_rows,omitempty"`
	Response    PredictResponse `json:"response"`
	CompletedAt time.Time       `json:"completed_at"`
}
