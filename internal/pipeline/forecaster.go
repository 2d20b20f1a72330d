package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/couchcryptid/aq-forecast-gateway/internal/observability"
)

// ResultPublisher delivers completed forecasts downstream.
type ResultPublisher interface {
	PublishResults(ctx context.Context, results ...domain.ForecastResult) error
}

// Forecaster turns dashboard submissions into prediction API calls:
// ingest, build the request, predict, then publish.
type Forecaster struct {
	predictor domain.Predictor
	catalog   *domain.Catalog
	sessions  *Sessions
	publisher ResultPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewForecaster creates a Forecaster. Pass a nil publisher to disable publishing.
func NewForecaster(p domain.Predictor, catalog *domain.Catalog, sessions *Sessions, publisher ResultPublisher, logger *slog.Logger, metrics *observability.Metrics) *Forecaster {
	return &Forecaster{
		predictor: p,
		catalog:   catalog,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil when the prediction API reports healthy.
func (f *Forecaster) CheckReadiness(ctx context.Context) error {
	health, err := f.predictor.Health(ctx)
	if err != nil {
		return fmt.Errorf("prediction api: %w", err)
	}
	if !health.Success {
		return fmt.Errorf("prediction api unhealthy: %s", health.Message)
	}
	return nil
}

// Sites lists the monitoring catalog.
func (f *Forecaster) Sites() []domain.Site {
	return f.catalog.Sites()
}

// Site returns the catalog entry for siteID or domain.ErrUnknownSite.
func (f *Forecaster) Site(siteID int) (domain.Site, error) {
	return f.catalog.Lookup(siteID)
}

// Latest returns the last accepted result for a dashboard session.
func (f *Forecaster) Latest(sessionKey string) (domain.ForecastResult, bool) {
	return f.sessions.Latest(sessionKey)
}

// SubmitCSV parses an uploaded CSV and predicts from the normalized records.
func (f *Forecaster) SubmitCSV(ctx context.Context, sub domain.CSVSubmission) (domain.ForecastResult, error) {
	report, batch, err := f.ingest(sub.SiteID, sub.Content, domain.SourceUpload)
	if err != nil {
		return domain.ForecastResult{}, err
	}
	return f.run(ctx, submission{
		siteID:  sub.SiteID,
		key:     sub.SessionKey,
		source:  domain.SourceUpload,
		rows:    len(batch.Records),
		skipped: len(report.SkippedLines),
		call: func(ctx context.Context) (domain.PredictResponse, error) {
			return f.predictor.PredictSite(ctx, batch.SiteID, batch.Request())
		},
	})
}

// SubmitRaw validates an uploaded CSV locally and forwards the original file.
func (f *Forecaster) SubmitRaw(ctx context.Context, sub domain.CSVSubmission) (domain.ForecastResult, error) {
	report, batch, err := f.ingest(sub.SiteID, sub.Content, domain.SourceRaw)
	if err != nil {
		return domain.ForecastResult{}, err
	}
	upload := domain.Upload{
		Filename:      sub.Filename,
		Content:       sub.Content,
		ForecastHours: batch.ForecastHours,
	}
	return f.run(ctx, submission{
		siteID:  sub.SiteID,
		key:     sub.SessionKey,
		source:  domain.SourceRaw,
		rows:    len(batch.Records),
		skipped: len(report.SkippedLines),
		call: func(ctx context.Context) (domain.PredictResponse, error) {
			return f.predictor.PredictUpload(ctx, sub.SiteID, upload)
		},
	})
}

// SubmitManual predicts from a single form entry, optionally expanded to a
// 24-hour run of identical covariates.
func (f *Forecaster) SubmitManual(ctx context.Context, sub domain.ManualSubmission) (domain.ForecastResult, error) {
	if _, err := f.catalog.Lookup(sub.SiteID); err != nil {
		f.metrics.Submissions.WithLabelValues(domain.SourceManual, "invalid").Inc()
		return domain.ForecastResult{}, err
	}

	rec := sub.Input.Record()
	records := []domain.ForecastInputRecord{rec}
	if sub.Expand24 {
		records = domain.ExpandTo24Hours(rec)
	}
	batch, err := domain.NewForecastBatch(sub.SiteID, records)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	return f.run(ctx, submission{
		siteID: sub.SiteID,
		key:    sub.SessionKey,
		source: domain.SourceManual,
		rows:   len(records),
		call: func(ctx context.Context) (domain.PredictResponse, error) {
			return f.predictor.PredictSite(ctx, batch.SiteID, batch.Request())
		},
	})
}

// Live predicts from the live station feed for one site.
func (f *Forecaster) Live(ctx context.Context, siteID int) (domain.ForecastResult, error) {
	if _, err := f.catalog.Lookup(siteID); err != nil {
		return domain.ForecastResult{}, err
	}
	return f.run(ctx, submission{
		siteID: siteID,
		source: domain.SourceLive,
		call: func(ctx context.Context) (domain.PredictResponse, error) {
			return f.predictor.LiveSite(ctx, siteID)
		},
	})
}

// Live24h forecasts the next 24 hours for one site from the live station feed.
func (f *Forecaster) Live24h(ctx context.Context, siteID int) (domain.ForecastResult, error) {
	if _, err := f.catalog.Lookup(siteID); err != nil {
		return domain.ForecastResult{}, err
	}
	return f.run(ctx, submission{
		siteID: siteID,
		source: domain.SourceLive24h,
		call: func(ctx context.Context) (domain.PredictResponse, error) {
			return f.predictor.Live24hSite(ctx, siteID)
		},
	})
}

func (f *Forecaster) ingest(siteID int, content []byte, source string) (domain.IngestReport, domain.ForecastRequestBatch, error) {
	if _, err := f.catalog.Lookup(siteID); err != nil {
		f.metrics.Submissions.WithLabelValues(source, "invalid").Inc()
		return domain.IngestReport{}, domain.ForecastRequestBatch{}, err
	}

	report, err := domain.ParseForecastTable(string(content))
	if err != nil {
		f.metrics.Submissions.WithLabelValues(source, "invalid").Inc()
		f.logger.Info("rejected forecast csv", "site_id", siteID, "source", source, "error", err)
		return report, domain.ForecastRequestBatch{}, err
	}

	f.metrics.IngestRows.Observe(float64(len(report.Records)))
	f.metrics.IngestSkippedRows.Add(float64(len(report.SkippedLines)))
	f.metrics.IngestDefaultedCells.Add(float64(report.DefaultedCells))
	if len(report.SkippedLines) > 0 {
		f.logger.Debug("skipped csv rows with blank date or hour", "site_id", siteID, "lines", report.SkippedLines)
	}

	batch, err := domain.NewForecastBatch(siteID, report.Records)
	if err != nil {
		return report, domain.ForecastRequestBatch{}, err
	}
	return report, batch, nil
}

type submission struct {
	siteID  int
	key     string
	source  string
	rows    int
	skipped int
	call    func(ctx context.Context) (domain.PredictResponse, error)
}

func (f *Forecaster) run(ctx context.Context, s submission) (domain.ForecastResult, error) {
	start := time.Now()
	f.metrics.SubmissionsInFlight.Inc()
	defer f.metrics.SubmissionsInFlight.Dec()

	callCtx, ticket := f.sessions.Begin(ctx, s.key)
	logger := f.logger.With("submission_id", ticket.ID, "site_id", s.siteID, "source", s.source)

	resp, err := s.call(callCtx)
	f.metrics.SubmissionDuration.WithLabelValues(s.source).Observe(time.Since(start).Seconds())
	if err != nil {
		if !f.sessions.Release(ticket) {
			f.metrics.Submissions.WithLabelValues(s.source, "superseded").Inc()
			logger.Info("submission superseded while in flight")
			return domain.ForecastResult{}, domain.ErrSuperseded
		}
		f.metrics.Submissions.WithLabelValues(s.source, "error").Inc()
		logger.Warn("prediction failed", "error", err)
		return domain.ForecastResult{}, err
	}

	if s.rows == 0 {
		s.rows = len(resp.Predictions)
	}
	result := domain.ForecastResult{
		ID:          ticket.ID,
		SiteID:      s.siteID,
		Source:      s.source,
		Rows:        s.rows,
		SkippedRows: s.skipped,
		Response:    resp,
		CompletedAt: time.Now().UTC(),
	}

	if err := f.sessions.Complete(ticket, result); err != nil {
		f.metrics.Submissions.WithLabelValues(s.source, "superseded").Inc()
		logger.Info("discarding superseded result")
		return domain.ForecastResult{}, err
	}

	f.metrics.Submissions.WithLabelValues(s.source, "success").Inc()
	logger.Info("forecast completed", "rows", result.Rows, "predictions", len(resp.Predictions))
	f.publish(ctx, result)
	return result, nil
}

func (f *Forecaster) publish(ctx context.Context, results ...domain.ForecastResult) {
	if f.publisher == nil || len(results) == 0 {
		return
	}
	if err := f.publisher.PublishResults(context.WithoutCancel(ctx), results...); err != nil {
		f.metrics.PublishErrors.Inc()
		f.logger.Error("publish forecast results", "count", len(results), "error", err)
		return
	}
	f.metrics.ResultsPublished.Add(float64(len(results)))
}
