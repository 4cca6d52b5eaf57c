package threatintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/selimozcann/LinkGuard/internal/cache"
	"github.com/selimozcann/LinkGuard/internal/logging"
	"github.com/selimozcann/LinkGuard/internal/metrics"
	"github.com/selimozcann/LinkGuard/internal/model"
)

const (
	DefaultBlocklistURL = "https://safebrowsing.googleapis.com"
	blocklistTTL        = 30 * time.Minute
)

// BlocklistConfig configures the Safe Browsing style client.
type BlocklistConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RatePerS  float64
	RateBurst int
}

// Blocklist looks URLs up in a Safe Browsing v4 style threatMatches API.
type Blocklist struct {
	cfg     BlocklistConfig
	client  *http.Client
	cache   *cache.TTLCache[model.ThreatIntel]
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewBlocklist(cfg BlocklistConfig, client *http.Client, logger *slog.Logger) *Blocklist {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBlocklistURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Blocklist{
		cfg:     cfg,
		client:  client,
		cache:   cache.New[model.ThreatIntel]("blocklist", cacheSize, blocklistTTL),
		limiter: newLimiter(cfg.RatePerS, cfg.RateBurst),
		logger:  logging.OrDefault(logger),
	}
}

// Configured reports whether an API key is set.
func (b *Blocklist) Configured() bool { return b.cfg.APIKey != "" }

type sbEntry struct {
	URL string `json:"url"`
}

type sbRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string  `json:"threatTypes"`
		PlatformTypes    []string  `json:"platformTypes"`
		ThreatEntryTypes []string  `json:"threatEntryTypes"`
		ThreatEntries    []sbEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type sbResponse struct {
	Matches []struct {
		ThreatType string  `json:"threatType"`
		Threat     sbEntry `json:"threat"`
	} `json:"matches"`
}

// Check looks up a single URL.
func (b *Blocklist) Check(ctx context.Context, target string) model.ThreatIntel {
	return b.CheckBatch(ctx, []string{target})[target]
}

// CheckBatch looks up several URLs with one network call for those not in
// the cache. When that call fails every uncached URL is reported as not a
// threat and unavailable.
func (b *Blocklist) CheckBatch(ctx context.Context, targets []string) map[string]model.ThreatIntel {
	out := make(map[string]model.ThreatIntel, len(targets))
	if !b.Configured() {
		metrics.Lookups.WithLabelValues(SourceBlocklist, "unconfigured").Inc()
		for _, t := range targets {
			out[t] = Unavailable(SourceBlocklist)
		}
		return out
	}

	var uncached []string
	for _, t := range targets {
		if _, done := out[t]; done {
			continue
		}
		if hit, ok := b.cache.Get(t); ok {
			hit.FromCache = true
			out[t] = hit
			metrics.Lookups.WithLabelValues(SourceBlocklist, "cached").Inc()
			continue
		}
		out[t] = model.ThreatIntel{}
		uncached = append(uncached, t)
	}
	if len(uncached) == 0 {
		return out
	}

	matches, err := b.query(ctx, uncached)
	if err != nil {
		b.logger.Warn("blocklist lookup failed", "service", SourceBlocklist, "urls", len(uncached), "err", err)
		metrics.Lookups.WithLabelValues(SourceBlocklist, "error").Inc()
		for _, t := range uncached {
			out[t] = Unavailable(SourceBlocklist)
		}
		return out
	}
	metrics.Lookups.WithLabelValues(SourceBlocklist, "ok").Inc()

	for _, t := range uncached {
		res := clean(SourceBlocklist)
		if tt, hit := matches[t]; hit {
			res.IsThreat = true
			res.ThreatType = tt
			res.Description = describe(tt)
		}
		b.cache.Set(t, res)
		out[t] = res
	}
	return out
}

func (b *Blocklist) query(ctx context.Context, targets []string) (map[string]string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	var body sbRequest
	body.Client.ClientID = "linkguard"
	body.Client.ClientVersion = "1.0"
	body.ThreatInfo.ThreatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION"}
	body.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	body.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	for _, t := range targets {
		body.ThreatInfo.ThreatEntries = append(body.ThreatInfo.ThreatEntries, sbEntry{URL: t})
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimSuffix(b.cfg.BaseURL, "/") + "/v4/threatMatches:find?key=" + url.QueryEscape(b.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var parsed sbResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	matches := make(map[string]string, len(parsed.Matches))
	for _, m := range parsed.Matches {
		if _, seen := matches[m.Threat.URL]; !seen {
			matches[m.Threat.URL] = m.ThreatType
		}
	}
	return matches, nil
}

func describe(threatType string) string {
	switch threatType {
	case "SOCIAL_ENGINEERING":
		return "Listed as a phishing / social engineering site"
	case "MALWARE":
		return "Listed as distributing malware"
	case "UNWANTED_SOFTWARE":
		return "Listed as distributing unwanted software"
	case "POTENTIALLY_HARMFUL_APPLICATION":
		return "Listed as serving a potentially harmful application"
	default:
		return "Listed by the blocklist service"
	}
}
