// Package config loads LinkGuard settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	StateFile    string
	ModelFile    string
	Proxy        string
	UserAgent    string
	HopTimeout   time.Duration
	MaxRedirects int
	RDAPTimeout  time.Duration
	IntelTimeout time.Duration
	IntelRPS     float64

	SafeBrowsingKey string
	SafeBrowsingURL string
	PhishTankKey    string
	PhishTankURL    string

	HighRiskTLDs []string
	Verbose      bool
	JSONLogs     bool
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HTTPAddr:     ":8080",
		HopTimeout:   10 * time.Second,
		MaxRedirects: 7,
		RDAPTimeout:  5 * time.Second,
		IntelTimeout: 10 * time.Second,
		IntelRPS:     5,
	}
}

// Load reads files (".env" when none are given; a missing file is not an
// error) and then the environment on top of the defaults.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	c := Default()
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("LINKGUARD_HTTP_ADDR", &c.HTTPAddr)
	str("LINKGUARD_STATE_FILE", &c.StateFile)
	str("LINKGUARD_MODEL_FILE", &c.ModelFile)
	str("LINKGUARD_PROXY", &c.Proxy)
	str("LINKGUARD_USER_AGENT", &c.UserAgent)
	str("SAFE_BROWSING_API_KEY", &c.SafeBrowsingKey)
	str("SAFE_BROWSING_URL", &c.SafeBrowsingURL)
	str("PHISHTANK_APP_KEY", &c.PhishTankKey)
	str("PHISHTANK_URL", &c.PhishTankURL)

	var errs []error
	dur := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	dur("LINKGUARD_HOP_TIMEOUT", &c.HopTimeout)
	dur("LINKGUARD_RDAP_TIMEOUT", &c.RDAPTimeout)
	dur("LINKGUARD_INTEL_TIMEOUT", &c.IntelTimeout)

	if v := strings.TrimSpace(getenv("LINKGUARD_MAX_REDIRECTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LINKGUARD_MAX_REDIRECTS: %w", err))
		} else {
			c.MaxRedirects = n
		}
	}
	if v := strings.TrimSpace(getenv("LINKGUARD_INTEL_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("LINKGUARD_INTEL_RPS: %w", err))
		} else {
			c.IntelRPS = f
		}
	}
	for _, key := range []string{"LINKGUARD_VERBOSE", "LINKGUARD_JSON_LOGS"} {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if key == "LINKGUARD_VERBOSE" {
			c.Verbose = b
		} else {
			c.JSONLogs = b
		}
	}
	if v := getenv("LINKGUARD_HIGH_RISK_TLDS"); strings.TrimSpace(v) != "" {
		for _, tld := range strings.Split(v, ",") {
			if tld = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tld)), "."); tld != "" {
				c.HighRiskTLDs = append(c.HighRiskTLDs, tld)
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HopTimeout <= 0 || c.RDAPTimeout <= 0 || c.IntelTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 20 {
		errs = append(errs, fmt.Errorf("max redirects %d out of range 0-20", c.MaxRedirects))
	}
	if c.IntelRPS < 0 {
		errs = append(errs, errors.New("intel rate must not be negative"))
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid proxy %q", c.Proxy))
		} else {
			switch u.Scheme {
			case "http", "https", "socks5", "socks5h":
			default:
				errs = append(errs, fmt.Errorf("unsupported proxy scheme %q", u.Scheme))
			}
		}
	}
	for _, raw := range []string{c.SafeBrowsingURL, c.PhishTankURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid service url %q", raw))
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.HighRiskTLDs = append([]string(nil), c.HighRiskTLDs...)
	return &cp
}
