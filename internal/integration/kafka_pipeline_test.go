//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/adapter/kafka"
	"github.com/couchcryptid/aq-forecast-gateway/internal/adapter/predictapi"
	"github.com/couchcryptid/aq-forecast-gateway/internal/config"
	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/couchcryptid/aq-forecast-gateway/internal/observability"
	"github.com/couchcryptid/aq-forecast-gateway/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testResultsTopic = "test-forecast-results"

// publishedMessage holds a deserialized message read from the results topic.
type publishedMessage struct {
	Result  domain.ForecastResult
	Key     string
	Headers map[string]string
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// readPublished reads a single message from the results consumer and deserializes it.
func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from results topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var result domain.ForecastResult
	require.NoError(t, json.Unmarshal(msg.Value, &result), "unmarshal results message")

	return publishedMessage{Result: result, Key: string(msg.Key), Headers: headers}
}

// fakePredictionAPI answers /api/v1/predict/site/{id} with one prediction per input record.
func fakePredictionAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/predict/site/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req domain.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		siteID, _ := strconv.Atoi(r.PathValue("id"))

		preds := make([]domain.Prediction, len(req.InputData))
		for i, rec := range req.InputData {
			preds[i] = domain.Prediction{Year: rec.Year, Month: rec.Month, Day: rec.Day, Hour: rec.Hour, O3Target: rec.O3Forecast * 0.9}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.PredictResponse{
			Success: true, SiteID: siteID, ForecastHours: req.ForecastHours, Predictions: preds,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestForecastPublishedToKafka verifies an uploaded CSV flows through the
// forecaster and the prediction client and lands on the results topic.
func TestForecastPublishedToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testResultsTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaResultsTopic: testResultsTopic}
	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	api := fakePredictionAPI(t)
	client := predictapi.NewClient(api.URL, 10*time.Second, metrics, logger)
	catalog, err := domain.NewCatalog(domain.DefaultSites())
	require.NoError(t, err)

	f := pipeline.NewForecaster(client, catalog, pipeline.NewSessions(8), writer, logger, metrics)

	csv := "year,month,day,hour,o3_forecast\n2024,3,1,22,40\n2024,3,1,23,50\n"
	result, err := f.SubmitCSV(ctx, domain.CSVSubmission{SiteID: 2, SessionKey: "it", Filename: "it.csv", Content: []byte(csv)})
	require.NoError(t, err)
	require.Len(t, result.Response.Predictions, 2)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testResultsTopic,
		GroupID:     fmt.Sprintf("test-results-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	msg := readPublished(ctx, t, consumer)

	assert.Equal(t, "2", msg.Key)
	assert.Equal(t, result.ID, msg.Headers["result_id"])
	assert.Equal(t, "upload", msg.Headers["source"])
	assert.Equal(t, result.ID, msg.Result.ID)
	require.NotNil(t, msg.Result.Response.ForecastHours)
	assert.Equal(t, 2, *msg.Result.Response.ForecastHours)
	assert.InDelta(t, 45.0, msg.Result.Response.Predictions[1].O3Target, 1e-9)
}
