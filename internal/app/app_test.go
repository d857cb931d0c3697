package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promopulse/internal/config"
	apierrors "promopulse/internal/errors"
	"promopulse/internal/infrastructure"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Paths: config.PathsConfig{
			DataDir:    dir,
			UploadsDir: dir + "/uploads",
			ExportsDir: dir + "/exports",
			LogsDir:    dir + "/logs",
		},
		Cleaning: config.CleaningConfig{
			MaxDiscountPct:  100,
			OutlierLowPct:   0.01,
			OutlierHighPct:  0.99,
			FillMissingQty:  1,
			DefaultReorder:  50,
			DefaultLeadDays: 7,
		},
		Simulation: config.SimulationConfig{
			DefaultElasticity: 1.5,
			MaxUpliftFactor:   2.0,
			MinUpliftFactor:   1.0,
			MarginFloorPct:    5,
			MaxDiscountPct:    70,
		},
		Security: config.SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
		},
	}
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providers := &infrastructure.OTelProviders{Logger: logger}

	app := &Application{
		Config:        testConfig(t),
		Logger:        logger,
		OTelProviders: providers,
		errorHandler:  apierrors.NewErrorHandler(logger),
	}

	require.NoError(t, app.initializeServices())
	app.setupRouter()
	app.createServer()

	t.Cleanup(app.Hub.Stop)
	return app
}

func (a *Application) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestApplication_HealthRoute(t *testing.T) {
	app := newTestApplication(t)

	rec := app.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status"`)

	rec = app.do(t, http.MethodGet, "/healthz/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}

func TestApplication_VersionRoute(t *testing.T) {
	app := newTestApplication(t)

	rec := app.do(t, http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), config.AppName)
	assert.Contains(t, rec.Body.String(), config.AppVersion)
}

func TestApplication_DatasetLifecycleThroughRouter(t *testing.T) {
	app := newTestApplication(t)

	rec := app.do(t, http.MethodGet, "/api/dataset", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no dataset loaded yet")

	rec = app.do(t, http.MethodPost, "/api/dataset/sample", strings.NewReader(`{"seed":7,"rows":300}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/kpi", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/dashboard/executive", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/simulation", strings.NewReader(`{"scenario":{"global_discount_pct":10}}`))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/activity", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "loaded")
	assert.Contains(t, rec.Body.String(), "evaluated")

	rec = app.do(t, http.MethodGet, "/api/activity/export", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
}

func TestApplication_RejectsUnsupportedContentType(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodPost, "/api/simulation", strings.NewReader("<scenario/>"))
	req.Header.Set("Content-Type", "application/xml")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestApplication_RejectsNegativeDiscountBeforeService(t *testing.T) {
	app := newTestApplication(t)

	rec := app.do(t, http.MethodPost, "/api/dataset/sample", strings.NewReader(`{"seed":7,"rows":100}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/simulation", strings.NewReader(`{"scenario":{"global_discount_pct":-1}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestApplication_UnknownRouteReturnsProblem(t *testing.T) {
	app := newTestApplication(t)

	rec := app.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestApplication_MetricsUnavailableWithoutExporter(t *testing.T) {
	app := newTestApplication(t)

	rec := app.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApplication_SecurityHeaders(t *testing.T) {
	app := newTestApplication(t)

	rec := app.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestApplication_CORSHeaders(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestApplication_StartupHealthCheck(t *testing.T) {
	app := newTestApplication(t)

	assert.NoError(t, app.performStartupHealthCheck(context.Background()))
}
