package trust

import (
	"errors"
	"testing"

	"github.com/selimozcann/LinkGuard/internal/kvstore"
)

type failingStore struct{ kvstore.Store }

func (failingStore) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (failingStore) Set(string, string) error         { return errors.New("disk gone") }

func TestStaticTrustSuffixWalk(t *testing.T) {
	r := New(nil, nil)
	tests := []struct {
		host string
		want bool
	}{
		{"google.com", true},
		{"mail.google.com", true},
		{"en.m.wikipedia.org", true},
		{"www.bca.co.id", true},
		{"google.com.evil.xyz", false},
		{"notgoogle.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := r.IsTrusted(tt.host); got != tt.want {
			t.Fatalf("IsTrusted(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestOfficialBrand(t *testing.T) {
	r := New(nil, nil)
	b, ok := r.OfficialBrand("www.paypal.com")
	if !ok || b.Name != "PayPal" {
		t.Fatalf("expected PayPal, got %v %v", b, ok)
	}
	if _, ok := r.OfficialBrand("paypal-secure.com"); ok {
		t.Fatalf("lookalike must not resolve to an official brand")
	}
}

func TestVoteThresholdAndReset(t *testing.T) {
	store := kvstore.NewMemory()
	r := New(store, nil)

	for i := 1; i < SafeVoteThreshold; i++ {
		rec, err := r.Vote("shop.example.net", true)
		if err != nil {
			t.Fatalf("Vote: %v", err)
		}
		if rec.UserEarnedTrust {
			t.Fatalf("trust granted too early at vote %d", i)
		}
	}
	rec, _ := r.Vote("example.net", true)
	if !rec.UserEarnedTrust || rec.SafeVotes != SafeVoteThreshold {
		t.Fatalf("expected trust after threshold, got %+v", rec)
	}
	if !r.IsTrusted("www.example.net") {
		t.Fatalf("subdomain should inherit user trust")
	}

	// persisted across instances
	if !New(store, nil).IsUserTrusted("example.net") {
		t.Fatalf("user trust not persisted")
	}

	rec, _ = r.Vote("example.net", false)
	if rec.UserEarnedTrust || rec.SafeVotes != 0 {
		t.Fatalf("unsafe vote should revoke and reset, got %+v", rec)
	}
	if r.IsTrusted("example.net") {
		t.Fatalf("trust should be revoked")
	}
}

func TestVoteStoreFailure(t *testing.T) {
	r := New(failingStore{}, nil)
	rec, err := r.Vote("example.net", true)
	if err == nil {
		t.Fatalf("expected persistence error")
	}
	if rec.SafeVotes != 1 {
		t.Fatalf("in-memory vote should still count, got %+v", rec)
	}
}
