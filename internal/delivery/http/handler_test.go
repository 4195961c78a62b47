package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogbridge/migrator/config"
	"github.com/catalogbridge/migrator/internal/domain"
	"github.com/catalogbridge/migrator/internal/infrastructure/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type staticProgress domain.Progress

func (p staticProgress) Progress() domain.Progress {
	return domain.Progress(p)
}

func setupTestRouter(progress ProgressProvider, recorder *metrics.Recorder) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        "9090",
			Environment: "test",
		},
	}
	var handler *Handler
	if recorder != nil {
		handler = NewHandler("run-1", progress, recorder.Registry())
	} else {
		handler = NewHandler("run-1", progress, nil)
	}
	return SetupRouter(cfg, handler, nil)
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "catalog-migrator", body["service"])
	assert.Equal(t, "run-1", body["runId"])
}

func TestMigrationStatusEndpoint(t *testing.T) {
	t.Run("reports progress", func(t *testing.T) {
		router := setupTestRouter(staticProgress{Total: 10, Settled: 4, Succeeded: 3, Failed: 1, InFlight: 2, Running: true}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/migration/status", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			RunID    string          `json:"runId"`
			Progress domain.Progress `json:"progress"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "run-1", body.RunID)
		assert.Equal(t, domain.Progress{Total: 10, Settled: 4, Succeeded: 3, Failed: 1, InFlight: 2, Running: true}, body.Progress)
	})

	t.Run("unavailable without a provider", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/migration/status", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("serves run collectors", func(t *testing.T) {
		recorder := metrics.New()
		recorder.ProductSettled("success")
		router := setupTestRouter(nil, recorder)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `migration_products_total{status="success"} 1`)
	})

	t.Run("not routed without a gatherer", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUnknownRoute(t *testing.T) {
	router := setupTestRouter(nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
