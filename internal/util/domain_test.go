package util

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		valid   bool
		host    string
		scheme  string
		implied bool
	}{
		{"https://www.google.com/search?q=1", true, "www.google.com", "https", false},
		{"example.com/path", true, "example.com", "https", true},
		{"  HTTP://Example.COM.  ", true, "example.com", "http", false},
		{"http://192.168.1.10/admin", true, "192.168.1.10", "http", false},
		{"https://xn--80ak6aa92e.com", true, "xn--80ak6aa92e.com", "https", false},
		{"https://bücher.de", true, "xn--bcher-kva.de", "https", false},
		{"", false, "", "", false},
		{"   ", false, "", "", false},
		{"not a url", false, "", "", false},
		{"https://localhost", false, "", "", false},
		{"ftp://example.com", false, "", "", false},
		{"javascript:alert(1)", false, "", "", false},
		{"https://a..b.com", false, "", "", false},
		{"https://exa_mple.com", false, "", "", false},
		{"https://", false, "", "", false},
		{"mailto:support@paypal.com", false, "", "", false},
		{"sms:+1@github.com", false, "", "", false},
		{"geo:0,0@github.com", false, "", "", false},
		{"tel:+6281234@bca.co.id", false, "", "", false},
		{"HTTPS:github.com", false, "", "", false},
		{"example.com:8443/login", true, "example.com", "https", true},
	}
	for _, tt := range tests {
		c := Parse(tt.raw)
		if c.Valid != tt.valid {
			t.Fatalf("Parse(%q).Valid = %v, want %v", tt.raw, c.Valid, tt.valid)
		}
		if !tt.valid {
			continue
		}
		if c.Host != tt.host || c.Scheme != tt.scheme || c.SchemeImplied != tt.implied {
			t.Fatalf("Parse(%q) = host %q scheme %q implied %v", tt.raw, c.Host, c.Scheme, c.SchemeImplied)
		}
	}
}

func TestParseUserInfo(t *testing.T) {
	c := Parse("https://paypal.com@evil.example/login")
	if !c.Valid || c.Host != "evil.example" || !c.HasUserInfo {
		t.Fatalf("unexpected candidate: %+v", c)
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := map[string]string{
		"www.google.com":         "google.com",
		"a.b.c.example.org":      "example.org",
		"klikbca.co.id":          "klikbca.co.id",
		"www.tokopedia.co.id":    "tokopedia.co.id",
		"shop.example.com.au":    "example.com.au",
		"news.bbc.co.uk":         "bbc.co.uk",
		"co.id":                  "co.id",
		"10.0.0.1":               "10.0.0.1",
		"login.secure.paypal.tk": "paypal.tk",
	}
	for host, want := range tests {
		if got := RegistrableDomain(host); got != want {
			t.Fatalf("RegistrableDomain(%q) = %q, want %q", host, got, want)
		}
	}
}

func TestSubdomainCount(t *testing.T) {
	tests := map[string]int{
		"google.com":               0,
		"www.google.com":           1,
		"a.b.c.d.example.com":      4,
		"www.tokopedia.co.id":      1,
		"192.168.0.1":              0,
		"secure.login.bank.web.id": 2,
	}
	for host, want := range tests {
		if got := SubdomainCount(host); got != want {
			t.Fatalf("SubdomainCount(%q) = %d, want %d", host, got, want)
		}
	}
}

func TestIsIPv4(t *testing.T) {
	if !IsIPv4("192.168.1.1") || IsIPv4("::1") || IsIPv4("example.com") || IsIPv4("1.2.3") {
		t.Fatalf("IsIPv4 misclassified")
	}
}

func TestSameBaseDomain(t *testing.T) {
	if !SameBaseDomain("https://a.example.com/x", "http://b.example.com") {
		t.Fatalf("expected same base domain")
	}
	if SameBaseDomain("https://example.com", "https://example.org") {
		t.Fatalf("expected different base domain")
	}
}

func TestIsInternalHost(t *testing.T) {
	for _, h := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.5", "localhost", "[::1]", "printer.local", "::ffff:10.0.0.1", "router.home.arpa", "100.64.1.1"} {
		if !IsInternalHost(h) {
			t.Fatalf("expected %s to be internal", h)
		}
	}
	for _, h := range []string{"8.8.8.8", "example.com", "::ffff:8.8.8.8", "local.example.com"} {
		if IsInternalHost(h) {
			t.Fatalf("expected %s to be external", h)
		}
	}
}

func TestCandidateURL(t *testing.T) {
	tests := map[string]string{
		"example.com/x":                     "https://example.com/x",
		"http://127.0.0.1:8080/x?q=1#frag":  "http://127.0.0.1:8080/x?q=1#frag",
		"https://user:pw@Example.com/login": "https://example.com/login",
		"http://[::1]:9000/":                "http://[::1]:9000/",
		"":                                  "",
	}
	for in, want := range tests {
		if got := Parse(in).URL(); got != want {
			t.Fatalf("Parse(%q).URL() = %q, want %q", in, got, want)
		}
	}
}
