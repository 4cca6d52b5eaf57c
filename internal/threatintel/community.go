package threatintel

import (
	"context"
	"encoding/json"
	"errors"
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
	DefaultCommunityURL = "https://checkurl.phishtank.com"
	communityTTL        = 60 * time.Minute
)

// CommunityConfig configures the PhishTank style client.
type CommunityConfig struct {
	AppKey    string
	BaseURL   string
	Timeout   time.Duration
	RatePerS  float64
	RateBurst int
}

// Community looks URLs up in a community-reported phishing database.
type Community struct {
	cfg     CommunityConfig
	client  *http.Client
	cache   *cache.TTLCache[model.ThreatIntel]
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewCommunity(cfg CommunityConfig, client *http.Client, logger *slog.Logger) *Community {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCommunityURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Community{
		cfg:     cfg,
		client:  client,
		cache:   cache.New[model.ThreatIntel]("community", cacheSize, communityTTL),
		limiter: newLimiter(cfg.RatePerS, cfg.RateBurst),
		logger:  logging.OrDefault(logger),
	}
}

// Configured reports whether an app key is set.
func (c *Community) Configured() bool { return c.cfg.AppKey != "" }

type ptResponse struct {
	Results struct {
		InDatabase bool   `json:"in_database"`
		Verified   bool   `json:"verified"`
		Valid      bool   `json:"valid"`
		PhishID    any    `json:"phish_id"`
		DetailPage string `json:"phish_detail_page"`
	} `json:"results"`
}

// Check looks up target. Only verified database entries count as threats.
func (c *Community) Check(ctx context.Context, target string) model.ThreatIntel {
	if !c.Configured() {
		metrics.Lookups.WithLabelValues(SourceCommunity, "unconfigured").Inc()
		return Unavailable(SourceCommunity)
	}
	if hit, ok := c.cache.Get(target); ok {
		hit.FromCache = true
		metrics.Lookups.WithLabelValues(SourceCommunity, "cached").Inc()
		return hit
	}

	res, err := c.query(ctx, target)
	if errors.Is(err, ErrNotConfigured) {
		metrics.Lookups.WithLabelValues(SourceCommunity, "unconfigured").Inc()
		return Unavailable(SourceCommunity)
	}
	if err != nil {
		c.logger.Warn("community lookup failed", "service", SourceCommunity, "err", err)
		metrics.Lookups.WithLabelValues(SourceCommunity, "error").Inc()
		return Unavailable(SourceCommunity)
	}
	metrics.Lookups.WithLabelValues(SourceCommunity, "ok").Inc()
	c.cache.Set(target, res)
	return res
}

func (c *Community) query(ctx context.Context, target string) (model.ThreatIntel, error) {
	if !c.Configured() {
		return model.ThreatIntel{}, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return model.ThreatIntel{}, fmt.Errorf("throttle: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	form := url.Values{}
	form.Set("url", target)
	form.Set("format", "json")
	form.Set("app_key", c.cfg.AppKey)
	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/checkurl/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return model.ThreatIntel{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "phishtank/linkguard")
	resp, err := c.client.Do(req)
	if err != nil {
		return model.ThreatIntel{}, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.ThreatIntel{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var parsed ptResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return model.ThreatIntel{}, fmt.Errorf("decode response: %w", err)
	}
	res := clean(SourceCommunity)
	if parsed.Results.InDatabase && parsed.Results.Verified {
		res.IsThreat = true
		res.ThreatType = "PHISHING"
		res.Description = "Verified phishing report in the community database"
		if id := fmt.Sprint(parsed.Results.PhishID); parsed.Results.PhishID != nil && id != "" {
			res.Description += " (#" + id + ")"
		}
	}
	return res, nil
}
