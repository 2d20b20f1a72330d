package pipeline_test

import (
	"context"
	"sync"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
)

// --- mocks ---

type mockPredictor struct {
	mu       sync.Mutex
	requests []domain.PredictRequest
	uploads  []domain.Upload
	live     []int

	predictSite func(ctx context.Context, siteID int, req domain.PredictRequest) (domain.PredictResponse, error)
	liveSite    func(ctx context.Context, siteID int) (domain.PredictResponse, error)
	health      domain.HealthResponse
	healthErr   error
}

func (m *mockPredictor) PredictSite(ctx context.Context, siteID int, req domain.PredictRequest) (domain.PredictResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.predictSite
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, siteID, req)
	}
	return echoResponse(siteID, req), nil
}

func (m *mockPredictor) PredictUpload(_ context.Context, siteID int, upload domain.Upload) (domain.PredictResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, upload)
	return domain.PredictResponse{Success: true, SiteID: siteID, ForecastHours: upload.ForecastHours}, nil
}

func (m *mockPredictor) LiveSite(ctx context.Context, siteID int) (domain.PredictResponse, error) {
	m.mu.Lock()
	m.live = append(m.live, siteID)
	fn := m.liveSite
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, siteID)
	}
	return domain.PredictResponse{Success: true, SiteID: siteID}, nil
}

func (m *mockPredictor) Live24hSite(_ context.Context, siteID int) (domain.PredictResponse, error) {
	preds := make([]domain.Prediction, 24)
	for i := range preds {
		preds[i] = domain.Prediction{Year: 2024, Month: 3, Day: 1, Hour: i}
	}
	return domain.PredictResponse{Success: true, SiteID: siteID, ForecastHours: intPtr(24), Predictions: preds}, nil
}

func (m *mockPredictor) Health(context.Context) (domain.HealthResponse, error) {
	return m.health, m.healthErr
}

func (m *mockPredictor) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockPredictor) liveCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.live...)
}

// echoResponse returns one prediction per input record.
func echoResponse(siteID int, req domain.PredictRequest) domain.PredictResponse {
	preds := make([]domain.Prediction, len(req.InputData))
	for i, r := range req.InputData {
		preds[i] = domain.Prediction{Year: r.Year, Month: r.Month, Day: r.Day, Hour: r.Hour, O3Target: r.O3Forecast}
	}
	return domain.PredictResponse{Success: true, SiteID: siteID, ForecastHours: req.ForecastHours, Predictions: preds}
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.ForecastResult
	err       error
}

func (m *mockPublisher) PublishResults(_ context.Context, results ...domain.ForecastResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, results...)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}
