package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futurecast/internal/scenario"
	"futurecast/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.RunStore) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.NewRunStore(filepath.Join(dir, "logs"), filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(":0", st), st
}

func sealedRun() *scenario.RunResult {
	started := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	return &scenario.RunResult{
		ID:    "run-1",
		Topic: "energy",
		Scenarios: []scenario.ScenarioResult{
			{
				Scenario: scenario.Scenario{
					Title:       "Grid-Scale Storage",
					Description: "Storage backbone",
					Items:       []string{"battery chemistry"},
				},
				Items: []scenario.ItemResult{
					{
						Item: "battery chemistry",
						ETA:  scenario.TimelineEstimate{ETA: "2030"},
					},
				},
			},
		},
		StartedAt: started,
		SealedAt:  started.Add(time.Minute),
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScenarios_EmptyBeforeFirstRun(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/scenarios")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "[]", rec.Body.String())
}

func TestScenarios_ServesLatestRun(t *testing.T) {
	srv, st := newTestServer(t)
	st.Publish(sealedRun())

	rec := get(t, srv.Handler(), "/api/scenarios")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []scenario.ScenarioResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Grid-Scale Storage", got[0].Scenario.Title)
	require.Len(t, got[0].Items, 1)
	assert.Equal(t, "2030", got[0].Items[0].ETA.ETA)
}

func TestScenarios_ReflectsRepublish(t *testing.T) {
	srv, st := newTestServer(t)
	st.Publish(sealedRun())

	second := sealedRun()
	second.ID = "run-2"
	second.Scenarios[0].Scenario.Title = "Distributed Generation"
	st.Publish(second)

	rec := get(t, srv.Handler(), "/api/scenarios")
	var got []scenario.ScenarioResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Distributed Generation", got[0].Scenario.Title)
}

func TestScenarios_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scenarios", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRuns_EmptyIndex(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/runs")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRuns_ListsCommittedRuns(t *testing.T) {
	srv, st := newTestServer(t)
	r := sealedRun()
	_, err := st.Commit(r, "# doc\n")
	require.NoError(t, err)

	rec := get(t, srv.Handler(), "/api/runs")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []store.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "run-1", got[0].ID)
	assert.Equal(t, "energy", got[0].Topic)
	assert.Equal(t, 1, got[0].ItemCount)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "ok", string(body))
}
