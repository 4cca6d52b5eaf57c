package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/selimozcann/LinkGuard/internal/heuristic"
)

func newClassifier() *Classifier {
	return New(nil, heuristic.New(heuristic.DefaultTables()))
}

func TestFeaturesInvalidIsZero(t *testing.T) {
	c := newClassifier()
	for _, in := range []string{"", "  ", "not a url", "http://"} {
		x := c.Features(in)
		for i, v := range x {
			if v != 0 {
				t.Fatalf("Features(%q)[%d] = %v, want 0", in, i, v)
			}
		}
	}
}

func TestFeaturesClamped(t *testing.T) {
	c := newClassifier()
	long := "http://a-b-c-d-e-f-g-h-i-j-k-l.example.com/" + strings.Repeat("login/", 60) + "?u=1@2"
	x := c.Features(long)
	for i, v := range x {
		if v < 0 || v > 1 {
			t.Fatalf("feature %d out of range: %v", i, v)
		}
	}
	if x[0] != 1 || x[2] != 1 || x[7] != 1 || x[8] != 1 {
		t.Fatalf("expected saturated features, got %v", x)
	}
	if x[3] != 1 {
		t.Fatalf("expected '@' flag")
	}
}

func TestFeatureFlags(t *testing.T) {
	c := newClassifier()
	ip := c.Features("http://10.0.0.1/")
	if ip[4] != 1 || ip[10] != 0 {
		t.Fatalf("raw IP flags wrong: %v", ip)
	}
	brand := c.Features("https://paypal-help.xyz")
	if brand[11] != 1 || brand[10] != 0 {
		t.Fatalf("brand-adjacent flags wrong: %v", brand)
	}
	official := c.Features("https://www.paypal.com")
	if official[11] != 0 || official[10] != 1 {
		t.Fatalf("official domain flags wrong: %v", official)
	}
}

func TestPredict(t *testing.T) {
	c := newClassifier()
	if p := c.Predict("https://google.com"); p >= 0.2 {
		t.Fatalf("benign URL scored %v", p)
	}
	for _, u := range []string{"http://192.168.1.1/login", "https://paypal-login-secure.xyz/verify"} {
		if p := c.Predict(u); p < 0.8 {
			t.Fatalf("%s scored %v, want >= 0.8", u, p)
		}
	}
	if p := c.Predict(""); math.Abs(p-1/(1+math.Exp(3))) > 1e-9 {
		t.Fatalf("zero vector should give sigmoid(bias), got %v", p)
	}
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()

	good := DefaultModel()
	good.B2 = -1
	raw, _ := json.Marshal(good)
	goodPath := filepath.Join(dir, "good.json")
	if err := os.WriteFile(goodPath, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := LoadModel(goodPath)
	if err != nil || m.B2 != -1 {
		t.Fatalf("LoadModel: %v %+v", err, m)
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"w1":[[1,2]],"b1":[0],"w2":[1],"b2":0}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(badPath); !errors.Is(err, ErrModelShape) {
		t.Fatalf("expected ErrModelShape, got %v", err)
	}
	if LoadOrDefault(badPath, nil).B2 != DefaultModel().B2 {
		t.Fatalf("expected fallback to default model")
	}
	if LoadOrDefault(filepath.Join(dir, "missing.json"), nil) == nil {
		t.Fatalf("expected default model")
	}
}
