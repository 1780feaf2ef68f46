package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	return logger
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestHealthHandlerReportsOKWithoutResourceMonitor(t *testing.T) {
	handler := healthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestDebugRunHandlerReturnsNotFoundForUnknownRun(t *testing.T) {
	stores := store.NewMemoryStores()

	router := mux.NewRouter()
	router.Handle("/debug/runs/{id}", debugRunHandler(stores.OrchestrationRuns))

	req := httptest.NewRequest(http.MethodGet, "/debug/runs/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDebugRunHandlerReturnsRunDetail(t *testing.T) {
	stores := store.NewMemoryStores()
	require.NoError(t, stores.OrchestrationRuns.Create(context.Background(), domain.OrchestrationRun{
		ID:    "run-1",
		Stage: "ingest",
	}))

	router := mux.NewRouter()
	router.Handle("/debug/runs/{id}", debugRunHandler(stores.OrchestrationRuns))

	req := httptest.NewRequest(http.MethodGet, "/debug/runs/run-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var run domain.OrchestrationRun
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, "ingest", run.Stage)
}

func TestNewBuildsServerWithRoutes(t *testing.T) {
	stores := store.NewMemoryStores()
	srv := New(Config{Addr: "127.0.0.1:0", MetricsPath: "/metrics"}, stores.OrchestrationRuns, nil, otel.Tracer("test"), testLogger())
	require.NotNil(t, srv)
}
