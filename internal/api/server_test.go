package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/scheduler"
	"github.com/reelvault/reelvault/internal/testutil"
	"github.com/reelvault/reelvault/internal/websocket"
)

func newTestServer(t *testing.T) (*Server, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.NewTestDB(t)

	hub := websocket.NewHub(tdb.Logger)
	go hub.Run()

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"

	server, err := NewServer(tdb.Conn, hub, cfg, tdb.Logger)
	if err != nil {
		tdb.Close()
		t.Fatalf("NewServer() error = %v", err)
	}
	return server, tdb
}

func doRequest(s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server, username string) string {
	t.Helper()
	rec := doRequest(s, http.MethodPost, "/api/v1/auth/login", "", `{"username": "`+username+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("login returned empty token")
	}
	return resp["token"]
}

func TestHealthCheck(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	rec := doRequest(server, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	for _, path := range []string{"/api/v1/status", "/api/v1/settings", "/api/v1/search"} {
		rec := doRequest(server, http.MethodGet, path, "", "")
		if path == "/api/v1/search" {
			rec = doRequest(server, http.MethodPost, path, "", "{}")
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token status = %d, want 401", path, rec.Code)
		}
	}

	rec := doRequest(server, http.MethodGet, "/api/v1/status", "garbage-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestLoginAndStatus(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	token := login(t, server, "alice")

	rec := doRequest(server, http.MethodGet, "/api/v1/status", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status["version"] == "" {
		t.Error("status missing version")
	}
}

func TestLogin_MissingUsername(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	rec := doRequest(server, http.MethodPost, "/api/v1/auth/login", "", `{"username": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty username status = %d, want 400", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	token := login(t, server, "alice")

	rec := doRequest(server, http.MethodPut, "/api/v1/settings/sort_direction", token, `{"value": "asc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update setting status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(server, http.MethodGet, "/api/v1/settings", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings status = %d", rec.Code)
	}
	var settings map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if settings["sort_direction"] != "asc" {
		t.Errorf("sort_direction = %q, want asc", settings["sort_direction"])
	}

	// Unknown keys and invalid values map to 400.
	rec = doRequest(server, http.MethodPut, "/api/v1/settings/nonsense", token, `{"value": "x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown key status = %d, want 400", rec.Code)
	}
	rec = doRequest(server, http.MethodPut, "/api/v1/settings/sort_direction", token, `{"value": "sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid value status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	token := login(t, server, "alice")

	rec := doRequest(server, http.MethodPost, "/api/v1/search", token, `{"fullCatalog": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode search response: %v", err)
	}
	if resp["totalItems"] != float64(0) {
		t.Errorf("totalItems = %v, want 0 on empty catalog", resp["totalItems"])
	}

	rec = doRequest(server, http.MethodPost, "/api/v1/search", token, `{"sortBy": "bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid sort status = %d, want 400", rec.Code)
	}
}

func TestTitleEndpoints_ErrorMapping(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	token := login(t, server, "alice")

	rec := doRequest(server, http.MethodGet, "/api/v1/titles/9999", token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown title status = %d, want 404", rec.Code)
	}

	rec = doRequest(server, http.MethodGet, "/api/v1/titles/abc", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", rec.Code)
	}

	rec = doRequest(server, http.MethodPost, "/api/v1/titles", token, `{"tmdbId": 0, "mediaType": "movie"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero tmdb id status = %d, want 400", rec.Code)
	}

	// No API key is configured in tests, so ingestion maps to a gateway error.
	rec = doRequest(server, http.MethodPost, "/api/v1/titles", token, `{"tmdbId": 603, "mediaType": "movie"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("unconfigured provider status = %d, want 502", rec.Code)
	}
}

func TestMetadataSearch_RequiresQuery(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	token := login(t, server, "alice")

	rec := doRequest(server, http.MethodGet, "/api/v1/metadata/search", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing query status = %d, want 400", rec.Code)
	}
}

func TestTasksEndpoints(t *testing.T) {
	server, tdb := newTestServer(t)
	defer tdb.Close()

	token := login(t, server, "alice")

	// Without an attached scheduler the list is empty and runs miss.
	rec := doRequest(server, http.MethodGet, "/api/v1/tasks", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("tasks status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var infos []scheduler.TaskInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("failed to decode tasks response: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("tasks without scheduler = %d entries, want 0", len(infos))
	}

	sched, err := scheduler.New(tdb.Logger)
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	defer sched.Stop()
	err = sched.RegisterTask(scheduler.TaskConfig{
		ID:   "noop",
		Name: "Noop",
		Cron: "0 4 * * *",
		Func: func(context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}
	server.AttachScheduler(sched)

	rec = doRequest(server, http.MethodGet, "/api/v1/tasks", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("tasks status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("failed to decode tasks response: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != "noop" {
		t.Errorf("tasks = %+v, want one noop entry", infos)
	}

	rec = doRequest(server, http.MethodPost, "/api/v1/tasks/noop/run", token, "")
	if rec.Code != http.StatusAccepted {
		t.Errorf("run status = %d, want 202", rec.Code)
	}
	rec = doRequest(server, http.MethodPost, "/api/v1/tasks/missing/run", token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown task run status = %d, want 404", rec.Code)
	}
}
