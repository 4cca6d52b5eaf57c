package review

import (
	"strings"
	"testing"

	"github.com/selimozcann/LinkGuard/internal/heuristic"
	"github.com/selimozcann/LinkGuard/internal/kvstore"
	"github.com/selimozcann/LinkGuard/internal/ml"
	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/trust"
)

func newAggregator() *Aggregator {
	return NewAggregator(trust.New(kvstore.NewMemory(), nil), heuristic.New(heuristic.DefaultTables()), nil)
}

func ageOf(days int) *model.DomainAge {
	return &model.DomainAge{
		Domain:            "example.com",
		AgeInDays:         &days,
		IsNewDomain:       days < 30,
		IsYoungDomain:     days < 180,
		IsLookupAvailable: true,
	}
}

func ids(r model.SafetyReview) []string {
	out := make([]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		out = append(out, c.ID)
	}
	return out
}

func TestCheckOrder(t *testing.T) {
	a := newAggregator()
	ti := &model.ThreatIntel{IsAPIAvailable: true}
	got := strings.Join(ids(a.PerformSafetyReview("https://example.com", ti, ageOf(400))), ",")
	want := "trusted_domain,domain_age,https,tld,ip_address,subdomain_count,typosquatting,homoglyph,suspicious_pattern,dangerous_file,threat_intel"
	if got != want {
		t.Fatalf("order = %s\nwant    %s", got, want)
	}

	got = strings.Join(ids(a.PerformSafetyReview("https://example.com", nil, nil)), ",")
	want = "trusted_domain,https,tld,ip_address,subdomain_count,typosquatting,homoglyph,suspicious_pattern,dangerous_file"
	if got != want {
		t.Fatalf("optional checks must be omitted: %s", got)
	}
}

func TestDomainAgeSeverity(t *testing.T) {
	a := newAggregator()
	tests := []struct {
		days   int
		sev    model.Severity
		passed bool
	}{
		{5, model.SeverityDanger, false},
		{90, model.SeverityWarning, false},
		{730, model.SeverityInfo, true},
	}
	for _, tt := range tests {
		c, ok := a.PerformSafetyReview("https://example.com", nil, ageOf(tt.days)).Check(CheckDomainAge)
		if !ok {
			t.Fatalf("%d days: check missing", tt.days)
		}
		if c.Severity != tt.sev || c.Passed != tt.passed {
			t.Fatalf("%d days: got %+v", tt.days, c)
		}
	}

	unavailable := &model.DomainAge{Domain: "example.com"}
	if _, ok := a.PerformSafetyReview("https://example.com", nil, unavailable).Check(CheckDomainAge); ok {
		t.Fatalf("unavailable lookup must omit the check")
	}
}

func TestPunycodeWarning(t *testing.T) {
	a := newAggregator()
	c, ok := a.PerformSafetyReview("https://xn--80ak6aa92e.com", nil, nil).Check(CheckHomoglyph)
	if !ok || c.Passed || c.Severity != model.SeverityWarning {
		t.Fatalf("expected homoglyph warning, got %+v", c)
	}
	if !strings.Contains(c.Description, "Punycode") {
		t.Fatalf("description should mention Punycode: %q", c.Description)
	}
}

func TestMixedScriptDanger(t *testing.T) {
	a := newAggregator()
	// Cyrillic "а" inside an otherwise Latin label.
	c, _ := a.PerformSafetyReview("https://p\u0430ypal.com", nil, nil).Check(CheckHomoglyph)
	if c.Passed || c.Severity != model.SeverityDanger {
		t.Fatalf("expected mixed script danger, got %+v", c)
	}
	c, _ = a.PerformSafetyReview("https://example.com", nil, nil).Check(CheckHomoglyph)
	if !c.Passed {
		t.Fatalf("plain ASCII host flagged: %+v", c)
	}
}

func TestThreatIntelCheck(t *testing.T) {
	a := newAggregator()
	threat := &model.ThreatIntel{IsThreat: true, ThreatType: "MALWARE", IsAPIAvailable: true}
	r := a.PerformSafetyReview("https://example.com", threat, nil)
	if r.RiskLevel != model.RiskBlocked {
		t.Fatalf("confirmed threat must block, got %s", r.RiskLevel)
	}
	c, _ := r.Check(CheckThreatIntel)
	if c.Passed || c.Severity != model.SeverityDanger || !strings.Contains(c.Description, "MALWARE") {
		t.Fatalf("unexpected threat check %+v", c)
	}

	down := &model.ThreatIntel{}
	r = a.PerformSafetyReview("https://example.com", down, nil)
	c, ok := r.Check(CheckThreatIntel)
	if !ok || !c.Passed || c.Severity != model.SeverityInfo {
		t.Fatalf("unavailable service should be a neutral pass, got %+v", c)
	}
	if r.RiskLevel != model.RiskLow {
		t.Fatalf("unavailable service must not raise risk, got %s", r.RiskLevel)
	}
}

func TestDangerousFileBlocks(t *testing.T) {
	a := newAggregator()
	for _, u := range []string{"https://example.com/app.apk", "https://example.com/Setup.EXE", "https://example.com/run.js"} {
		if r := a.PerformSafetyReview(u, nil, nil); r.RiskLevel != model.RiskBlocked {
			t.Fatalf("%s: expected blocked, got %s", u, r.RiskLevel)
		}
	}
	if r := a.PerformSafetyReview("https://example.com/report.pdf", nil, nil); r.RiskLevel == model.RiskBlocked {
		t.Fatalf("pdf must not be blocked")
	}
}

func TestMalformedInput(t *testing.T) {
	a := newAggregator()
	for _, in := range []string{"", "   ", "javascript:alert(1)", "http://", "https://exa mple.com", "ftp://files.example.com"} {
		r := a.PerformSafetyReview(in, nil, nil)
		if r.RiskLevel != model.RiskBlocked || len(r.Checks) != 1 || r.Checks[0].ID != CheckInvalidURL {
			t.Fatalf("%q: expected single invalid_url check, got %+v", in, r)
		}
	}
}

func TestRiskLevels(t *testing.T) {
	a := newAggregator()
	tests := []struct {
		url  string
		want model.RiskLevel
	}{
		{"https://www.paypal.com", model.RiskLow},
		{"http://example.com", model.RiskLow},
		{"http://example.xyz", model.RiskMedium},
		{"https://paypa1.com", model.RiskMedium},
		{"https://google-login-secure.xyz", model.RiskHigh},
		{"http://192.168.1.20/login", model.RiskHigh},
	}
	for _, tt := range tests {
		if got := a.PerformSafetyReview(tt.url, nil, nil).RiskLevel; got != tt.want {
			t.Fatalf("%s: risk %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestRiskLevelPoints(t *testing.T) {
	warn := model.SafetyCheck{ID: CheckHTTPS, Severity: model.SeverityWarning}
	danger := model.SafetyCheck{ID: CheckTyposquatting, Severity: model.SeverityDanger}
	info := model.SafetyCheck{ID: CheckTrustedDomain, Severity: model.SeverityInfo}
	tests := []struct {
		checks []model.SafetyCheck
		want   model.RiskLevel
	}{
		{nil, model.RiskLow},
		{[]model.SafetyCheck{info, warn}, model.RiskLow},
		{[]model.SafetyCheck{warn, warn}, model.RiskMedium},
		{[]model.SafetyCheck{danger}, model.RiskMedium},
		{[]model.SafetyCheck{danger, warn, warn}, model.RiskHigh},
		{[]model.SafetyCheck{{ID: CheckDangerousFile, Severity: model.SeverityDanger}}, model.RiskBlocked},
	}
	for i, tt := range tests {
		if got := RiskLevel(tt.checks); got != tt.want {
			t.Fatalf("case %d: got %s, want %s", i, got, tt.want)
		}
	}
}

func TestSuspiciousPatternFromPath(t *testing.T) {
	a := newAggregator()
	u := "https://bad.xyz/internet-banking/login/verify/otp/reset-password/a/b?data=aGVsbG8gd29ybGQgdGhpcyBpcyBiYXNlNjQ=&email=test@test.com"
	c, _ := a.PerformSafetyReview(u, nil, nil).Check(CheckSuspiciousPattern)
	if c.Passed || c.Severity != model.SeverityWarning {
		t.Fatalf("expected suspicious pattern warning, got %+v", c)
	}
}

func TestClassifierNeverExceedsWarning(t *testing.T) {
	scorer := heuristic.New(heuristic.DefaultTables())
	a := NewAggregator(trust.New(nil, nil), scorer, ml.New(ml.DefaultModel(), scorer))
	r := a.PerformSafetyReview("http://secure-login-verify-account.paypa1-update.tk/signin/confirm?acct=1", nil, nil)
	c, _ := r.Check(CheckSuspiciousPattern)
	if c.Severity == model.SeverityDanger {
		t.Fatalf("suspicious pattern can only warn, got %+v", c)
	}
}

func TestTrustedDomainCheck(t *testing.T) {
	reg := trust.New(kvstore.NewMemory(), nil)
	a := NewAggregator(reg, heuristic.New(heuristic.DefaultTables()), nil)

	c, _ := a.PerformSafetyReview("https://www.paypal.com", nil, nil).Check(CheckTrustedDomain)
	if !c.Passed || !strings.Contains(c.Description, "PayPal") {
		t.Fatalf("expected official PayPal, got %+v", c)
	}
	c, _ = a.PerformSafetyReview("https://mybakery.example", nil, nil).Check(CheckTrustedDomain)
	if c.Passed || c.Severity != model.SeverityInfo {
		t.Fatalf("unknown domain should fail at info, got %+v", c)
	}
	for i := 0; i < trust.SafeVoteThreshold; i++ {
		if _, err := reg.Vote("mybakery.example", true); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	c, _ = a.PerformSafetyReview("https://mybakery.example", nil, nil).Check(CheckTrustedDomain)
	if !c.Passed {
		t.Fatalf("user trust not applied: %+v", c)
	}
}
