package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	c, err := FromEnv(env(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.HTTPAddr != ":8080" || c.MaxRedirects != 7 || c.HopTimeout != 10*time.Second || c.RDAPTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestFromEnv(t *testing.T) {
	c, err := FromEnv(env(map[string]string{
		"LINKGUARD_HTTP_ADDR":      "127.0.0.1:9000",
		"LINKGUARD_HOP_TIMEOUT":    "3s",
		"LINKGUARD_MAX_REDIRECTS":  "4",
		"LINKGUARD_PROXY":          "socks5://127.0.0.1:1080",
		"LINKGUARD_HIGH_RISK_TLDS": " .TK, xyz ,,",
		"LINKGUARD_VERBOSE":        "true",
		"SAFE_BROWSING_API_KEY":    "key",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.HTTPAddr != "127.0.0.1:9000" || c.HopTimeout != 3*time.Second || c.MaxRedirects != 4 || !c.Verbose {
		t.Fatalf("values not applied: %+v", c)
	}
	if len(c.HighRiskTLDs) != 2 || c.HighRiskTLDs[0] != "tk" || c.HighRiskTLDs[1] != "xyz" {
		t.Fatalf("tlds: %v", c.HighRiskTLDs)
	}
	if c.SafeBrowsingKey != "key" {
		t.Fatalf("api key not read")
	}
}

func TestInvalidValues(t *testing.T) {
	bad := []map[string]string{
		{"LINKGUARD_HOP_TIMEOUT": "soon"},
		{"LINKGUARD_MAX_REDIRECTS": "many"},
		{"LINKGUARD_MAX_REDIRECTS": "-1"},
		{"LINKGUARD_PROXY": "ftp://proxy:21"},
		{"LINKGUARD_VERBOSE": "maybe"},
		{"SAFE_BROWSING_URL": "not a url"},
		{"LINKGUARD_RDAP_TIMEOUT": "0s"},
	}
	for _, m := range bad {
		if _, err := FromEnv(env(m)); err == nil {
			t.Fatalf("expected error for %v", m)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("LINKGUARD_STATE_FILE=/tmp/linkguard-test.json\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINKGUARD_STATE_FILE", "")
	os.Unsetenv("LINKGUARD_STATE_FILE")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.StateFile != "/tmp/linkguard-test.json" {
		t.Fatalf("state file = %q", c.StateFile)
	}
	if _, err := Load(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}

func TestClone(t *testing.T) {
	c := Default()
	c.HighRiskTLDs = []string{"tk"}
	cp := c.Clone()
	cp.HighRiskTLDs[0] = "xyz"
	cp.HTTPAddr = ":1"
	if c.HighRiskTLDs[0] != "tk" || c.HTTPAddr != ":8080" {
		t.Fatalf("clone shares state")
	}
}
