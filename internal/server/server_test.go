package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banditopt/gmab/internal/config"
	"github.com/banditopt/gmab/internal/logging"
)

func newTestRouter(t *testing.T) (*Server, chi.Router) {
	t.Helper()

	cfg := config.Default()
	cfg.Search.DefaultBudget = 200

	srv := New(cfg, logging.Nop())
	t.Cleanup(func() { _ = srv.Close() })

	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return srv, r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func waitForStatus(t *testing.T, r http.Handler, id, want string) map[string]interface{} {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		code, body := doJSON(t, r, http.MethodGet, "/api/v1/studies/"+id, "")
		require.Equal(t, http.StatusOK, code)
		if body["status"] == want {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("study %s never reached status %q", id, want)
	return nil
}

func TestCreateStudyRoundTrip(t *testing.T) {
	_, r := newTestRouter(t)

	body := `{
		"parameters": [
			{"name": "a", "low": -5, "high": 5},
			{"name": "b", "low": -5, "high": 5}
		],
		"objective": "sphere",
		"budget": 300,
		"engine": "genetic",
		"seed": 42
	}`
	code, resp := doJSON(t, r, http.MethodPost, "/api/v1/studies", body)
	require.Equal(t, http.StatusAccepted, code)

	id, ok := resp["study_id"].(string)
	require.True(t, ok)

	final := waitForStatus(t, r, id, StatusCompleted)
	assert.Equal(t, "sphere", final["objective"])
	assert.Equal(t, float64(300), final["evaluations"])
	assert.NotNil(t, final["best_trial"])
	assert.NotNil(t, final["best_score"])
	assert.NotEmpty(t, final["end_time"])

	trial, ok := final["best_trial"].([]interface{})
	require.True(t, ok)
	assert.Len(t, trial, 2)
}

func TestCreateStudyWithRandomEngine(t *testing.T) {
	_, r := newTestRouter(t)

	body := `{
		"parameters": [{"name": "a", "low": 0, "high": 9}],
		"objective": "sphere",
		"budget": 50,
		"engine": "random",
		"seed": 7
	}`
	code, resp := doJSON(t, r, http.MethodPost, "/api/v1/studies", body)
	require.Equal(t, http.StatusAccepted, code)

	final := waitForStatus(t, r, resp["study_id"].(string), StatusCompleted)
	assert.Equal(t, float64(50), final["evaluations"])
}

func TestCreateStudyFractionalBound(t *testing.T) {
	_, r := newTestRouter(t)

	body := `{
		"parameters": [{"name": "a", "low": 0.0, "high": 5}],
		"objective": "sphere"
	}`
	code, resp := doJSON(t, r, http.MethodPost, "/api/v1/studies", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "type_error", resp["kind"])
}

func TestCreateStudyZeroWidthDomain(t *testing.T) {
	_, r := newTestRouter(t)

	body := `{
		"parameters": [{"name": "a", "low": 3, "high": 3}],
		"objective": "sphere"
	}`
	code, resp := doJSON(t, r, http.MethodPost, "/api/v1/studies", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "value_error", resp["kind"])
}

func TestCreateStudyRejectsBadRequests(t *testing.T) {
	_, r := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "no parameters", body: `{"objective": "sphere"}`},
		{name: "unknown objective", body: `{"parameters": [{"name":"a","low":0,"high":5}], "objective": "nope"}`},
		{name: "unknown engine", body: `{"parameters": [{"name":"a","low":0,"high":5}], "objective": "sphere", "engine": "bayes"}`},
		{name: "negative budget", body: `{"parameters": [{"name":"a","low":0,"high":5}], "objective": "sphere", "budget": -2}`},
		{name: "malformed json", body: `{"parameters": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := doJSON(t, r, http.MethodPost, "/api/v1/studies", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestGetUnknownStudy(t *testing.T) {
	_, r := newTestRouter(t)

	code, resp := doJSON(t, r, http.MethodGet, "/api/v1/studies/study_123", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, resp["error"])
}

func TestCancelUnknownStudy(t *testing.T) {
	_, r := newTestRouter(t)

	code, _ := doJSON(t, r, http.MethodDelete, "/api/v1/studies/study_123", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCancelRunningStudy(t *testing.T) {
	_, r := newTestRouter(t)

	// A budget this large keeps the study in flight until the DELETE
	// lands; the engine stops at its next context check.
	body := `{
		"parameters": [{"name": "a", "low": -50, "high": 50}],
		"objective": "sphere",
		"budget": 50000000,
		"seed": 5
	}`
	code, resp := doJSON(t, r, http.MethodPost, "/api/v1/studies", body)
	require.Equal(t, http.StatusAccepted, code)
	id := resp["study_id"].(string)

	code, cancelResp := doJSON(t, r, http.MethodDelete, "/api/v1/studies/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusCancelled, cancelResp["status"])

	waitForStatus(t, r, id, StatusCancelled)

	// The worker goroutine observes the cancellation after the DELETE
	// response returns. Whether it was still pending or already
	// running, the study must settle on cancelled, not failed.
	time.Sleep(50 * time.Millisecond)
	code, final := doJSON(t, r, http.MethodGet, "/api/v1/studies/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusCancelled, final["status"])
	assert.Nil(t, final["error"])
	assert.NotEmpty(t, final["end_time"])
}

func TestCancelCompletedStudyConflicts(t *testing.T) {
	_, r := newTestRouter(t)

	body := `{
		"parameters": [{"name": "a", "low": 0, "high": 5}],
		"objective": "sphere",
		"budget": 20,
		"seed": 1
	}`
	code, resp := doJSON(t, r, http.MethodPost, "/api/v1/studies", body)
	require.Equal(t, http.StatusAccepted, code)

	id := resp["study_id"].(string)
	waitForStatus(t, r, id, StatusCompleted)

	code, _ = doJSON(t, r, http.MethodDelete, "/api/v1/studies/"+id, "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestListObjectives(t *testing.T) {
	_, r := newTestRouter(t)

	code, resp := doJSON(t, r, http.MethodGet, "/api/v1/objectives", "")
	require.Equal(t, http.StatusOK, code)

	names, ok := resp["objectives"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, names, "sphere")
	assert.Contains(t, names, "rosenbrock")
}

func TestClose(t *testing.T) {
	srv, _ := newTestRouter(t)
	assert.NoError(t, srv.Close())
}
