package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/compiler"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/ratelimit"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/service"
	"github.com/getmockd/stubd/pkg/store"
	"github.com/getmockd/stubd/pkg/stub"
)

type testServer struct {
	handler http.Handler
	engine  *engine.Engine
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	journal := requestlog.NewInMemoryStore(100)
	e := engine.New(engine.WithJournal(journal))
	svc := service.New(store.NewInMemoryStore(), compiler.New(e), e, service.WithJournal(journal))
	return &testServer{handler: New(svc, opts...).Handler(), engine: e}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func createStub(t *testing.T, s *testServer, payload string) map[string]any {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/stubs", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, WithVersion("1.2.3"))

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestStubLifecycle(t *testing.T) {
	s := newTestServer(t)

	view := createStub(t, s, `{
		"name": "orders",
		"request": {"method": "GET", "urlPath": "/orders"},
		"response": {"status": 200, "body": {"orders": []}}
	}`)
	id, _ := view["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "orders", view["name"])
	assert.Equal(t, map[string]any{"method": "GET", "urlPath": "/orders"}, view["request"])

	t.Run("get", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/stubs/"+id, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"wireMockId"`)
	})

	t.Run("list", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/stubs", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		var views []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		assert.Len(t, views, 1)
	})

	t.Run("rules", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/engine/rules", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		var rules []engine.Summary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
		require.Len(t, rules, 1)
		assert.Equal(t, "orders", rules[0].Name)
	})

	t.Run("update", func(t *testing.T) {
		rec := s.do(http.MethodPut, "/api/stubs/"+id, `{
			"name": "orders",
			"request": {"method": "GET", "urlPath": "/orders"},
			"response": {"status": 503}
		}`)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		traffic := httptest.NewRecorder()
		s.engine.ServeHTTP(traffic, httptest.NewRequest(http.MethodGet, "/orders", nil))
		assert.Equal(t, http.StatusServiceUnavailable, traffic.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/api/stubs/"+id, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 0, s.engine.Len())

		rec = s.do(http.MethodGet, "/api/stubs/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeError(t, rec).Error)
	})
}

func TestCreateStub_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"invalid json", `{"name":`, http.StatusBadRequest, "invalid_json"},
		{"missing name", `{"request":{}}`, http.StatusBadRequest, "validation_failed"},
		{"wrong priority type", `{"name":"x","priority":"high"}`, http.StatusBadRequest, "validation_failed"},
		{"spec not an object", `{"name":"x","request":"[1]"}`, http.StatusUnprocessableEntity, "malformed_spec"},
		{"bad status", `{"name":"x","response":{"status":42}}`, http.StatusUnprocessableEntity, "malformed_spec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(http.MethodPost, "/api/stubs", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error)
			if tt.wantStatus == http.StatusUnprocessableEntity {
				var resp struct {
					Details stub.View `json:"details"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Details.ID, "stored stub is reported")
				assert.Equal(t, "x", resp.Details.Name)
			}
		})
	}
}

func TestCreateStub_OverflowingNumber(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/stubs", `{"name":"huge","response":{"status":200,"body":{"n":1e400}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "malformed_spec", decodeError(t, rec).Error)

	createStub(t, s, `{"name":"ok","request":{"method":"GET"}}`)

	rec = s.do(http.MethodGet, "/api/stubs", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var views []stub.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Len(t, views, 2)
}

func TestCreateStub_ValidationDetails(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/stubs", `{"name":"x","enabled":"yes"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Details []stub.Violation `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Details)
	assert.Equal(t, "enabled", resp.Details[0].Field)
}

func TestCreateStub_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, WithMaxBodySize(16))

	rec := s.do(http.MethodPost, "/api/stubs", `{"name":"a very long stub name"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpdateStub_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/stubs/missing", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteStub_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodDelete, "/api/stubs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarioRoutes(t *testing.T) {
	s := newTestServer(t)
	createStub(t, s, `{
		"name": "login",
		"request": {"url": "/login"},
		"scenarioName": "auth",
		"requiredScenarioState": "Started",
		"newScenarioState": "logged-in"
	}`)

	rec := s.do(http.MethodPut, "/api/scenarios/auth/state?state=logged-in", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/scenarios", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"auth","state":"logged-in"}]`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/scenarios/reset", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/scenarios", "")
	assert.JSONEq(t, `[{"name":"auth","state":"Started"}]`, rec.Body.String())

	rec = s.do(http.MethodPut, "/api/scenarios/auth/state", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_state", decodeError(t, rec).Error)
}

func TestRequestRoutes(t *testing.T) {
	s := newTestServer(t)
	createStub(t, s, `{"name":"ping","request":{"url":"/ping"}}`)

	for _, target := range []string{"/ping", "/nope", "/ping"} {
		s.engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	rec := s.do(http.MethodGet, "/api/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RequestListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)

	rec = s.do(http.MethodGet, "/api/requests?matched=false", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "/nope", resp.Requests[0].Path)

	rec = s.do(http.MethodGet, "/api/requests?limit=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	rec = s.do(http.MethodGet, "/api/requests?matched=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/requests?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_limit", decodeError(t, rec).Error)

	rec = s.do(http.MethodDelete, "/api/requests", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/requests", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Requests)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, WithCORS(CORSConfig{AllowedOrigins: []string{"http://ui.local"}}))

	req := httptest.NewRequest(http.MethodOptions, "/api/stubs", nil)
	req.Header.Set("Origin", "http://ui.local")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://ui.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/metrics", "").Code)

	m := metrics.NewSet(nil)
	s = newTestServer(t, WithMetrics(m))
	s.do(http.MethodGet, "/health", "")
	s.do(http.MethodGet, "/api/stubs/missing", "")

	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stubd_admin_requests_total{method="GET",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `stubd_admin_requests_total{method="GET",status="404"} 1`)
	assert.Equal(t, 2.0, m.AdminRequests.Value(http.MethodGet, "200"))
}

func TestRateLimit(t *testing.T) {
	l := ratelimit.New(ratelimit.Config{Rate: 0.001, Burst: 2})
	t.Cleanup(l.Close)
	s := newTestServer(t, WithRateLimit(l), WithCORS(CORSConfig{}))

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, rec).Error)

	// Preflights are answered before the limiter.
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodOptions, "/api/stubs", "").Code)
}

type brokenService struct {
	StubService
	err error
}

func (b brokenService) List(context.Context) ([]stub.View, error) { return nil, b.err }

func (b brokenService) Delete(context.Context, string) error { return b.err }

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"engine", &compiler.EngineError{Op: "install", Err: errors.New("down")}, http.StatusBadGateway},
		{"malformed", &compiler.SpecError{Field: "requestSpec", Err: errors.New("bad")}, http.StatusUnprocessableEntity},
		{"not found", service.ErrStubNotFound, http.StatusNotFound},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(brokenService{err: tt.err}).Handler()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stubs", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/stubs/x", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRecoverMiddleware(t *testing.T) {
	// The embedded nil interface panics on any method not overridden.
	h := New(brokenService{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scenarios", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
