package domainage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func rdapServer(t *testing.T, calls *int32, handler func(w http.ResponseWriter, domain string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if !strings.HasPrefix(r.URL.Path, "/domain/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		handler(w, strings.TrimPrefix(r.URL.Path, "/domain/"))
	}))
}

func registeredDaysAgo(days int) func(http.ResponseWriter, string) {
	return func(w http.ResponseWriter, _ string) {
		date := fixedNow.AddDate(0, 0, -days).Format(time.RFC3339)
		fmt.Fprintf(w, `{"events":[{"eventAction":"last changed","eventDate":"2000-01-01T00:00:00Z"},{"eventAction":"registration","eventDate":%q}]}`, date)
	}
}

func newChecker(srvURL string) *Checker {
	c := New(nil, nil).WithClock(func() time.Time { return fixedNow })
	c.Servers = map[string]string{"com": srvURL, "co.id": srvURL + "/id/"}
	return c
}

func TestCheckAges(t *testing.T) {
	tests := []struct {
		days         int
		isNew, young bool
	}{
		{5, true, true},
		{90, false, true},
		{730, false, false},
	}
	for _, tt := range tests {
		var calls int32
		srv := rdapServer(t, &calls, registeredDaysAgo(tt.days))
		res := newChecker(srv.URL).Check(context.Background(), "www.example.com")
		srv.Close()

		if !res.IsLookupAvailable || res.AgeInDays == nil || *res.AgeInDays != tt.days {
			t.Fatalf("age %d: unexpected result %+v", tt.days, res)
		}
		if res.IsNewDomain != tt.isNew || res.IsYoungDomain != tt.young {
			t.Fatalf("age %d: flags new=%v young=%v", tt.days, res.IsNewDomain, res.IsYoungDomain)
		}
		if res.Domain != "example.com" {
			t.Fatalf("expected registrable root, got %q", res.Domain)
		}
		if want := fixedNow.AddDate(0, 0, -tt.days).Format("2006-01-02"); *res.RegistrationDate != want {
			t.Fatalf("registration date %s, want %s", *res.RegistrationDate, want)
		}
	}
}

func TestCachesSuccessOnly(t *testing.T) {
	var calls int32
	srv := rdapServer(t, &calls, registeredDaysAgo(400))
	defer srv.Close()
	c := newChecker(srv.URL)

	c.Check(context.Background(), "example.com")
	c.Check(context.Background(), "mail.example.com")
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one network call, got %d", calls)
	}

	var failing int32
	bad := rdapServer(t, &failing, func(w http.ResponseWriter, _ string) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer bad.Close()
	c2 := newChecker(bad.URL)
	for i := 0; i < 2; i++ {
		if res := c2.Check(context.Background(), "example.com"); res.IsLookupAvailable || res.AgeInDays != nil {
			t.Fatalf("expected unavailable, got %+v", res)
		}
	}
	if atomic.LoadInt32(&failing) != 2 {
		t.Fatalf("failures must not be cached, got %d calls", failing)
	}
}

func TestDegrades(t *testing.T) {
	handlers := map[string]func(http.ResponseWriter, string){
		"not found": func(w http.ResponseWriter, _ string) { w.WriteHeader(http.StatusNotFound) },
		"malformed": func(w http.ResponseWriter, _ string) { _, _ = w.Write([]byte("{not json")) },
		"no events": func(w http.ResponseWriter, _ string) { _, _ = w.Write([]byte(`{"events":[]}`)) },
		"slow": func(w http.ResponseWriter, _ string) {
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`{"events":[]}`))
		},
	}
	for name, h := range handlers {
		var calls int32
		srv := rdapServer(t, &calls, h)
		c := newChecker(srv.URL)
		c.Timeout = 50 * time.Millisecond
		res := c.Check(context.Background(), "example.com")
		srv.Close()
		if res.IsLookupAvailable || res.AgeInDays != nil || res.RegistrationDate != nil || res.IsNewDomain || res.IsYoungDomain {
			t.Fatalf("%s: expected unavailable shape, got %+v", name, res)
		}
	}
}

func TestUnknownSuffixNoNetwork(t *testing.T) {
	var calls int32
	srv := rdapServer(t, &calls, registeredDaysAgo(1))
	defer srv.Close()
	c := newChecker(srv.URL)

	res := c.Check(context.Background(), "example.zz")
	if res.IsLookupAvailable || atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected immediate unavailable, calls=%d res=%+v", calls, res)
	}
	if _, err := c.ServerFor("example.zz"); !errors.Is(err, ErrNoServer) {
		t.Fatalf("expected ErrNoServer, got %v", err)
	}
}

func TestCompoundSuffix(t *testing.T) {
	var mu sync.Mutex
	var asked string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		asked = r.URL.Path
		mu.Unlock()
		registeredDaysAgo(10)(w, "")
	}))
	defer srv.Close()
	c := newChecker(srv.URL)

	res := c.Check(context.Background(), "promo.tokoku.co.id")
	mu.Lock()
	defer mu.Unlock()
	if !res.IsLookupAvailable || asked != "/id/domain/tokoku.co.id" {
		t.Fatalf("expected compound lookup, asked %q, res %+v", asked, res)
	}

	// TLD fallback for a compound suffix without its own entry
	c.Servers = map[string]string{"id": srv.URL}
	if s, err := c.ServerFor("tokoku.web.id"); err != nil || s != srv.URL {
		t.Fatalf("expected TLD fallback, got %q %v", s, err)
	}
}

func TestRegistrationDateFallback(t *testing.T) {
	got, err := RegistrationDate(map[string][]string{
		"last changed": {"2023-05-01T00:00:00Z"},
		"expiration":   {"2030-01-01T00:00:00Z"},
		"transfer":     {"2021-03-04T10:00:00Z", "garbage"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format("2006-01-02") != "2021-03-04" {
		t.Fatalf("expected earliest event, got %s", got)
	}
}

func TestInvalidHosts(t *testing.T) {
	c := New(nil, nil)
	for _, h := range []string{"", "10.0.0.1", "localhost"} {
		if res := c.Check(context.Background(), h); res.IsLookupAvailable {
			t.Fatalf("%q: expected unavailable", h)
		}
	}
}
