package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulationHandler_Run(t *testing.T) {
	srv := newTestServer(t)
	srv.loadSample(t)

	body := `{"label":"weekend-flash","scenario":{"global_discount_pct":15}}`
	rec := srv.do(t, http.MethodPost, "/api/simulation/", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	segments := data["segments"].([]interface{})
	require.NotEmpty(t, segments)

	first := segments[0].(map[string]interface{})
	assert.Greater(t, first["uplift_factor"].(float64), 1.0)
}

func TestSimulationHandler_SegmentOverride(t *testing.T) {
	srv := newTestServer(t)
	srv.loadSample(t)

	body := `{"scenario":{"global_discount_pct":0,"segment_discounts":{"Grocery":20}}}`
	rec := srv.do(t, http.MethodPost, "/api/simulation/", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	for _, raw := range data["segments"].([]interface{}) {
		seg := raw.(map[string]interface{})
		if seg["segment"] == "Grocery" {
			assert.Equal(t, 20.0, seg["discount_pct"])
		} else {
			assert.Equal(t, 0.0, seg["discount_pct"])
			assert.Equal(t, 1.0, seg["uplift_factor"])
		}
	}
}

func TestSimulationHandler_RejectsOutOfBoundsDiscount(t *testing.T) {
	srv := newTestServer(t)
	srv.loadSample(t)

	body := `{"scenario":{"global_discount_pct":80}}`
	rec := srv.do(t, http.MethodPost, "/api/simulation/", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "DISCOUNT_OUT_OF_BOUNDS", problem["error_code"])
	assert.Equal(t, "/errors/simulation/invalid", problem["type"])
}

func TestSimulationHandler_RejectsNegativeDiscount(t *testing.T) {
	srv := newTestServer(t)
	srv.loadSample(t)

	body := `{"scenario":{"global_discount_pct":-5}}`
	rec := srv.do(t, http.MethodPost, "/api/simulation/", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
}

func TestSimulationHandler_RejectsNegativeSegmentDiscount(t *testing.T) {
	srv := newTestServer(t)
	srv.loadSample(t)

	body := `{"scenario":{"global_discount_pct":0,"segment_discounts":{"Grocery":-10}}}`
	rec := srv.do(t, http.MethodPost, "/api/simulation/", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
}

func TestSimulationHandler_RequiresDataset(t *testing.T) {
	srv := newTestServer(t)

	body := `{"scenario":{"global_discount_pct":10}}`
	rec := srv.do(t, http.MethodPost, "/api/simulation/", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulationHandler_MalformedBody(t *testing.T) {
	srv := newTestServer(t)
	srv.loadSample(t)

	rec := srv.do(t, http.MethodPost, "/api/simulation/", strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
