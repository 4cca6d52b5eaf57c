package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/selimozcann/LinkGuard/internal/config"
	"github.com/selimozcann/LinkGuard/internal/engine"
	"github.com/selimozcann/LinkGuard/internal/securitylog"
)

func newServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	e, err := engine.New(config.Default(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	e.NoResolve = true
	e.DomainAge.Servers = map[string]string{}
	return New(e, nil), e
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestReviewEndpoint(t *testing.T) {
	s, _ := newServer(t)
	rec := do(t, s, http.MethodPost, "/v1/review", `{"url":"https://paypa1.example/login"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var rep engine.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Verdict != "warn" || len(rep.Review.Checks) == 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestBadRequests(t *testing.T) {
	s, _ := newServer(t)
	tests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/v1/review", `{"url":`},
		{http.MethodPost, "/v1/review", `{"url":""}`},
		{http.MethodPost, "/v1/review", `{"link":"x"}`},
		{http.MethodPost, "/v1/feedback", `{"domain":"x.example"}`},
		{http.MethodGet, "/v1/events?type=NOPE", ``},
		{http.MethodGet, "/v1/events?limit=-3", ``},
		{http.MethodGet, "/v1/events?min_severity=loud", ``},
	}
	for _, tt := range tests {
		if rec := do(t, s, tt.method, tt.path, tt.body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s %s: status %d", tt.method, tt.path, tt.body, rec.Code)
		}
	}
	if rec := do(t, s, http.MethodGet, "/v1/review", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /v1/review: status %d", rec.Code)
	}
}

func TestGateEndpoint(t *testing.T) {
	s, _ := newServer(t)
	rec := do(t, s, http.MethodPost, "/v1/gate", `{"url":"https://github.com"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"is_safe":true`) {
		t.Fatalf("gate: %d %s", rec.Code, rec.Body)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	s, e := newServer(t)
	for i := 0; i < 3; i++ {
		if rec := do(t, s, http.MethodPost, "/v1/feedback", `{"domain":"bakery.example","safe":true}`); rec.Code != http.StatusOK {
			t.Fatalf("feedback status %d", rec.Code)
		}
	}
	if !e.Trust.IsUserTrusted("bakery.example") {
		t.Fatalf("trust not granted")
	}
}

func TestPINLockoutEndpoints(t *testing.T) {
	s, _ := newServer(t)
	for i := 0; i < 4; i++ {
		if rec := do(t, s, http.MethodPost, "/v1/pin/failure", ""); rec.Code != http.StatusOK {
			t.Fatalf("failure %d: status %d", i, rec.Code)
		}
	}
	if rec := do(t, s, http.MethodPost, "/v1/pin/failure", ""); rec.Code != http.StatusLocked {
		t.Fatalf("fifth failure: status %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/v1/pin", ""); rec.Code != http.StatusLocked {
		t.Fatalf("check while locked: status %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/v1/pin/unlock", ""); rec.Code != http.StatusOK {
		t.Fatalf("unlock: status %d", rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/v1/pin/success", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"remaining_attempts":5`) {
		t.Fatalf("success: %d %s", rec.Code, rec.Body)
	}
}

func TestEventsEndpoint(t *testing.T) {
	s, _ := newServer(t)
	do(t, s, http.MethodPost, "/v1/review", `{"url":"not a url"}`)
	do(t, s, http.MethodPost, "/v1/review", `{"url":"https://github.com"}`)

	rec := do(t, s, http.MethodGet, "/v1/events?type=LINK_BLOCKED&limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var events []securitylog.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Type != securitylog.EventLinkBlocked {
		t.Fatalf("unexpected events %+v", events)
	}

	rec = do(t, s, http.MethodGet, "/v1/events?min_severity=critical", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil || len(events) != 1 {
		t.Fatalf("severity filter: %v %+v", err, events)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newServer(t)
	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz %d", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "linkguard_") {
		t.Fatalf("metrics %d", rec.Code)
	}
}
