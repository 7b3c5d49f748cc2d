package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"apiprobe/pkg/auth"
	"apiprobe/pkg/probe"
	"apiprobe/pkg/relay"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

const signingKey = "handler-test-key"

type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	upstream *httptest.Server
	token    string
	other    string
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Add("X-Multi", "a")
			w.Header().Add("X-Multi", "b")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"ok":true}`))
		case "/slow":
			time.Sleep(500 * time.Millisecond)
		default:
			w.Write([]byte("plain text"))
		}
	}))

	service, err := probe.NewService(relay.New(), probe.ServiceConfig{
		StoragePath:  s.T().TempDir(),
		CallTimeout:  time.Second,
		ProxyTimeout: 200 * time.Millisecond,
	}, nil, zerolog.Nop())
	s.Require().NoError(err)

	tokens := auth.NewTokenService(signingKey, "apiprobe")
	s.token, err = tokens.Issue("handler-test", "", time.Minute)
	s.Require().NoError(err)
	s.other, err = tokens.Issue("other-subject", "", time.Minute)
	s.Require().NoError(err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "handler_test_total", Help: "test"}))
	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	router := gin.New()
	s.Require().NoError(NewAPIHandler(service, nil, metricsHandler, zerolog.Nop()).Register(router, tokens))
	s.router = router
}

func (s *HandlerSuite) TearDownTest() {
	s.upstream.Close()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	token := ""
	if authenticated {
		token = s.token
	}
	return s.doWithToken(method, path, body, token)
}

func (s *HandlerSuite) doWithToken(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *HandlerSuite) TestTokenRequired() {
	for _, path := range []string{"/api/rate-limit-test", "/api/proxy"} {
		rec := s.do(http.MethodPost, path, map[string]any{}, false)
		s.Equal(http.StatusUnauthorized, rec.Code, path)
		s.Equal("unauthorized", s.decode(rec)["error"])
	}

	rec := s.do(http.MethodGet, "/api/rate-limit-tests", nil, false)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestHealthIsPublic() {
	rec := s.do(http.MethodGet, "/health", nil, false)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", s.decode(rec)["status"])
}

func (s *HandlerSuite) TestMetricsIsPublic() {
	rec := s.do(http.MethodGet, "/metrics", nil, false)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "handler_test_total")
}

func (s *HandlerSuite) TestRateLimitTestValidation() {
	cases := map[string]map[string]any{
		"rps too high":  {"method": "GET", "url": s.upstream.URL, "rps": 1001, "duration": 1},
		"no duration":   {"method": "GET", "url": s.upstream.URL, "rps": 1},
		"bad method":    {"method": "TRACE", "url": s.upstream.URL, "rps": 1, "duration": 1},
		"numeric value": {"method": "GET", "url": s.upstream.URL, "rps": 1, "duration": 1, "headers": map[string]any{"X-Count": 1}},
		"string rps":    {"method": "GET", "url": s.upstream.URL, "rps": "ten", "duration": 1},
		"no url":        {"method": "GET", "rps": 1, "duration": 1},
	}

	for name, body := range cases {
		rec := s.do(http.MethodPost, "/api/rate-limit-test", body, true)
		s.Equal(http.StatusBadRequest, rec.Code, name)
		out := s.decode(rec)
		s.Equal("validation_failed", out["error"], name)
		s.NotEmpty(out["error_description"], name)
	}
}

func (s *HandlerSuite) TestRateLimitTestRun() {
	body := map[string]any{"method": "get", "url": s.upstream.URL, "rps": 5, "duration": 1}

	rec := s.do(http.MethodPost, "/api/rate-limit-test", body, true)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	out := s.decode(rec)
	s.Equal(5.0, out["total_requests"])
	s.Equal(5.0, out["successful_requests"])
	s.Contains(out, "first_429_at_request")
	s.Nil(out["first_429_at_request"])
	s.Nil(out["max_safe_rps_estimate"])

	runID := rec.Header().Get(RunIDHeader)
	s.Require().NotEmpty(runID)

	rec = s.do(http.MethodGet, "/api/rate-limit-tests/"+runID, nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(runID, s.decode(rec)["id"])

	rec = s.do(http.MethodGet, "/api/rate-limit-tests", nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1.0, s.decode(rec)["total"])
}

func (s *HandlerSuite) TestRunsAreScopedToSubject() {
	body := map[string]any{
		"method":   "GET",
		"url":      s.upstream.URL,
		"headers":  map[string]any{"Authorization": "Bearer upstream-secret"},
		"rps":      2,
		"duration": 1,
	}
	rec := s.do(http.MethodPost, "/api/rate-limit-test", body, true)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	runID := rec.Header().Get(RunIDHeader)
	s.Require().NotEmpty(runID)

	rec = s.doWithToken(http.MethodGet, "/api/rate-limit-tests/"+runID, nil, s.other)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("not_found", s.decode(rec)["error"])

	rec = s.doWithToken(http.MethodGet, "/api/rate-limit-tests", nil, s.other)
	s.Require().Equal(http.StatusOK, rec.Code)
	out := s.decode(rec)
	s.Equal(0.0, out["total"])
	s.Empty(out["runs"])

	rec = s.do(http.MethodGet, "/api/rate-limit-tests/"+runID, nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "upstream-secret", "stored credentials must be redacted")
}

func (s *HandlerSuite) TestGetRunInvalidID() {
	rec := s.do(http.MethodGet, "/api/rate-limit-tests/not-a-uuid", nil, true)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_failed", s.decode(rec)["error"])
}

func (s *HandlerSuite) TestGetUnknownRun() {
	rec := s.do(http.MethodGet, "/api/rate-limit-tests/0b6c3f8e-0000-4000-8000-000000000000", nil, true)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("not_found", s.decode(rec)["error"])
}

func (s *HandlerSuite) TestProxyJSON() {
	rec := s.do(http.MethodPost, "/api/proxy", map[string]any{"method": "GET", "url": s.upstream.URL + "/json"}, true)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	out := s.decode(rec)
	s.Equal(201.0, out["status"])
	s.Equal(map[string]any{"ok": true}, out["body"])
	s.Equal("a, b", out["headers"].(map[string]any)["X-Multi"])
	s.Contains(out, "response_time")
}

func (s *HandlerSuite) TestProxyText() {
	rec := s.do(http.MethodPost, "/api/proxy", map[string]any{"method": "GET", "url": s.upstream.URL}, true)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("plain text", s.decode(rec)["body"])
}

func (s *HandlerSuite) TestProxyUpstreamTimeout() {
	rec := s.do(http.MethodPost, "/api/proxy", map[string]any{"method": "GET", "url": s.upstream.URL + "/slow"}, true)
	s.Equal(http.StatusGatewayTimeout, rec.Code)
	s.Equal("upstream_timeout", s.decode(rec)["error"])
}

func (s *HandlerSuite) TestProxyInvalidBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_failed", s.decode(rec)["error"])
}
