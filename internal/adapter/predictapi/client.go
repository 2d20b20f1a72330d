package predictapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/couchcryptid/aq-forecast-gateway/internal/observability"
)

// Client implements domain.Predictor against the air-quality prediction API.
// It never retries and never substitutes fallback data.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

var _ domain.Predictor = (*Client)(nil)

// NewClient creates a prediction API client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// PredictSite submits structured records for one site.
func (c *Client) PredictSite(ctx context.Context, siteID int, req domain.PredictRequest) (domain.PredictResponse, error) {
	var out domain.PredictResponse
	err := c.doJSON(ctx, http.MethodPost, sitePath(siteID, ""), "predict_site", req, &out)
	return out, err
}

// PredictUpload forwards an original CSV file for one site as a multipart form
// with a "file" part and an optional "forecast_hours" field.
func (c *Client) PredictUpload(ctx context.Context, siteID int, upload domain.Upload) (domain.PredictResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", upload.Filename)
	if err != nil {
		return domain.PredictResponse{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return domain.PredictResponse{}, fmt.Errorf("write form file: %w", err)
	}
	if upload.ForecastHours != nil {
		if err := mw.WriteField("forecast_hours", strconv.Itoa(*upload.ForecastHours)); err != nil {
			return domain.PredictResponse{}, fmt.Errorf("write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return domain.PredictResponse{}, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sitePath(siteID, "/upload"), &body)
	if err != nil {
		return domain.PredictResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out domain.PredictResponse
	err = c.do(req, "predict_upload", &out)
	return out, err
}

// LiveSite predicts from the nearest live WAQI station for one site.
func (c *Client) LiveSite(ctx context.Context, siteID int) (domain.PredictResponse, error) {
	var out domain.PredictResponse
	err := c.doJSON(ctx, http.MethodGet, sitePath(siteID, "/live"), "live_site", nil, &out)
	return out, err
}

// Live24hSite produces a 24-hour forecast from the live WAQI feed for one site.
func (c *Client) Live24hSite(ctx context.Context, siteID int) (domain.PredictResponse, error) {
	var out domain.PredictResponse
	err := c.doJSON(ctx, http.MethodGet, sitePath(siteID, "/live/24h"), "live_24h_site", nil, &out)
	return out, err
}

// Health reports basic API status.
func (c *Client) Health(ctx context.Context) (domain.HealthResponse, error) {
	var out domain.HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/health/", "health", nil, &out)
	return out, err
}

// ModelsHealth lists which models are loaded.
func (c *Client) ModelsHealth(ctx context.Context) (domain.ModelHealthResponse, error) {
	var out domain.ModelHealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/health/models", "models_health", nil, &out)
	return out, err
}

// ModelDetail describes the model trained for one site.
func (c *Client) ModelDetail(ctx context.Context, siteID int) (domain.ModelDetailResponse, error) {
	var out domain.ModelDetailResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/health/models/"+strconv.Itoa(siteID), "model_detail", nil, &out)
	return out, err
}

// ModelMetrics returns the model evaluation report unchanged.
func (c *Client) ModelMetrics(ctx context.Context) (domain.ModelMetrics, error) {
	var out json.RawMessage
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/predict/metrics", "metrics", nil, &out)
	return out, err
}

// Historical returns observed data for one site.
func (c *Client) Historical(ctx context.Context, siteID int, q domain.HistoricalQuery) (domain.HistoricalDataResponse, error) {
	params := url.Values{}
	switch {
	case q.Hours > 0:
		params.Set("hours", strconv.Itoa(q.Hours))
	case q.Days > 0:
		params.Set("days", strconv.Itoa(q.Days))
	default:
		params.Set("days", "30")
	}

	var out domain.HistoricalDataResponse
	err := c.doJSON(ctx, http.MethodGet, sitePath(siteID, "/historical")+"?"+params.Encode(), "historical", nil, &out)
	return out, err
}

func sitePath(siteID int, suffix string) string {
	return "/api/v1/predict/site/" + strconv.Itoa(siteID) + suffix
}

func (c *Client) doJSON(ctx context.Context, method, path, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, endpoint, out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.PredictAPIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.PredictRequests.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn("prediction api unreachable", "endpoint", endpoint, "error", err)
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.PredictRequests.WithLabelValues(endpoint, "api_error").Inc()
		apiErr := readAPIError(resp)
		c.logger.Warn("prediction api error", "endpoint", endpoint, "status", apiErr.Status, "message", apiErr.Message)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.PredictRequests.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	c.metrics.PredictRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

// IsAPIError reports whether err carries an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
