package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultAPIURL = "http://localhost:8000"
	testBroker    = "broker1:9092"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, defaultAPIURL, cfg.PredictAPIURL)
	assert.Equal(t, 30*time.Second, cfg.PredictAPITimeout)
	assert.Equal(t, 64, cfg.ModelCacheSize)
	assert.Equal(t, 1000, cfg.SessionCacheSize)
	assert.Empty(t, cfg.SitesFile)
	assert.Equal(t, domain.DefaultSites(), cfg.Sites)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "aq-forecast-results", cfg.KafkaResultsTopic)
	assert.False(t, cfg.PublishEnabled)
	assert.Empty(t, cfg.LiveRefreshSchedule)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://aq.example.org")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("PREDICT_API_URL", "https://predict.example.org/")
	t.Setenv("PREDICT_API_TIMEOUT", "5s")
	t.Setenv("MODEL_CACHE_SIZE", "8")
	t.Setenv("SESSION_CACHE_SIZE", "20")
	t.Setenv("KAFKA_BROKERS", testBroker+",broker2:9092")
	t.Setenv("KAFKA_RESULTS_TOPIC", "custom-results")
	t.Setenv("LIVE_REFRESH_SCHEDULE", "*/15 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "https://aq.example.org"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, "https://predict.example.org", cfg.PredictAPIURL)
	assert.Equal(t, 5*time.Second, cfg.PredictAPITimeout)
	assert.Equal(t, 8, cfg.ModelCacheSize)
	assert.Equal(t, 20, cfg.SessionCacheSize)
	assert.Equal(t, []string{testBroker, "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-results", cfg.KafkaResultsTopic)
	assert.True(t, cfg.PublishEnabled)
	assert.Equal(t, "*/15 * * * *", cfg.LiveRefreshSchedule)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidPredictAPITimeout(t *testing.T) {
	t.Setenv("PREDICT_API_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PREDICT_API_TIMEOUT")
}

func TestLoad_InvalidPredictAPIURL(t *testing.T) {
	t.Setenv("PREDICT_API_URL", "localhost")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PREDICT_API_URL")
}

func TestLoad_InvalidPositiveInts(t *testing.T) {
	for _, key := range []string{"MAX_UPLOAD_BYTES", "MODEL_CACHE_SIZE", "SESSION_CACHE_SIZE"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "0")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_PublishEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("PUBLISH_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_PublishExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", testBroker)
	t.Setenv("PUBLISH_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.PublishEnabled)
}

func TestLoad_InvalidLiveRefreshSchedule(t *testing.T) {
	t.Setenv("LIVE_REFRESH_SCHEDULE", "every now and then")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIVE_REFRESH_SCHEDULE")
}

func TestLoad_SitesFile(t *testing.T) {
	path := writeFile(t, "sites.yaml", `
sites:
  - id: 9
    name: Airport
    lat: 28.556
    lon: 77.1
  - id: 2
    name: RK Puram
    lat: 28.5244
    lon: 77.1855
`)
	t.Setenv("SITES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, domain.Site{ID: 9, Name: "Airport", Lat: 28.556, Lon: 77.1}, cfg.Sites[0])
}

func TestLoadSites_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSites(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadSites(writeFile(t, "bad.yaml", "sites: [id: {"))
		require.Error(t, err)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		_, err := LoadSites(writeFile(t, "dup.yaml", "sites:\n  - id: 1\n    name: a\n  - id: 1\n    name: b\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("empty catalog", func(t *testing.T) {
		_, err := LoadSites(writeFile(t, "empty.yaml", "sites: []\n"))
		require.Error(t, err)
	})
}

func TestLoadDotEnv(t *testing.T) {
	const key = "AQ_GATEWAY_DOTENV_TEST"
	path := writeFile(t, ".env", key+"=from-file\n")
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv(key))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	const key = "AQ_GATEWAY_DOTENV_OVERRIDE"
	t.Setenv(key, "from-env")
	path := writeFile(t, ".env", key+"=from-file\n")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv(key))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
