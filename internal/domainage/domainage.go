// Package domainage looks up domain registration dates over RDAP.
package domainage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/selimozcann/LinkGuard/internal/cache"
	"github.com/selimozcann/LinkGuard/internal/logging"
	"github.com/selimozcann/LinkGuard/internal/metrics"
	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/util"
)

const (
	NewDomainDays   = 30
	YoungDomainDays = 180

	DefaultTimeout = 5 * time.Second
	cacheTTL       = 24 * time.Hour
	cacheSize      = 200
	service        = "rdap"
)

// ErrNoServer means no RDAP server is known for the suffix.
var ErrNoServer = errors.New("domainage: no rdap server for suffix")

// DefaultServers maps a compound suffix or TLD onto its RDAP base URL.
var DefaultServers = map[string]string{
	"com":    "https://rdap.verisign.com/com/v1/",
	"net":    "https://rdap.verisign.com/net/v1/",
	"org":    "https://rdap.publicinterestregistry.org/rdap/",
	"info":   "https://rdap.identitydigital.services/rdap/",
	"io":     "https://rdap.identitydigital.services/rdap/",
	"id":     "https://rdap.pandi.id/rdap/",
	"co.id":  "https://rdap.pandi.id/rdap/",
	"my.id":  "https://rdap.pandi.id/rdap/",
	"web.id": "https://rdap.pandi.id/rdap/",
	"biz.id": "https://rdap.pandi.id/rdap/",
	"dev":    "https://pubapi.registry.google/rdap/",
	"app":    "https://pubapi.registry.google/rdap/",
	"uk":     "https://rdap.nominet.uk/uk/",
	"co.uk":  "https://rdap.nominet.uk/uk/",
	"au":     "https://rdap.cctld.au/rdap/",
	"com.au": "https://rdap.cctld.au/rdap/",
	"xyz":    "https://rdap.centralnic.com/xyz/",
	"site":   "https://rdap.centralnic.com/site/",
	"online": "https://rdap.centralnic.com/online/",
	"top":    "https://rdap.zdnsgtld.com/top/",
	"me":     "https://rdap.identitydigital.services/rdap/",
	"co":     "https://rdap.registry.co/co/",
	"nl":     "https://rdap.sidn.nl/",
}

type rdapDomain struct {
	Events []struct {
		EventAction string `json:"eventAction"`
		EventDate   string `json:"eventDate"`
	} `json:"events"`
}

// Checker resolves domain ages. Only successful lookups are cached.
type Checker struct {
	Client  *http.Client
	Servers map[string]string
	Timeout time.Duration
	Logger  *slog.Logger

	cache *cache.TTLCache[model.DomainAge]
	now   func() time.Time
}

func New(client *http.Client, logger *slog.Logger) *Checker {
	if client == nil {
		client = &http.Client{}
	}
	return &Checker{
		Client:  client,
		Servers: DefaultServers,
		Timeout: DefaultTimeout,
		Logger:  logging.OrDefault(logger),
		cache:   cache.New[model.DomainAge]("domain_age", cacheSize, cacheTTL),
		now:     time.Now,
	}
}

// WithClock replaces the time source of the checker and its cache.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	c.cache.WithClock(now)
	return c
}

// ServerFor returns the RDAP base URL for the registrable root, trying the
// compound suffix first and the TLD second.
func (c *Checker) ServerFor(root string) (string, error) {
	suffix := util.Suffix(root)
	if s, ok := c.Servers[suffix]; ok {
		return s, nil
	}
	if i := strings.LastIndexByte(suffix, '.'); i >= 0 {
		if s, ok := c.Servers[suffix[i+1:]]; ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoServer, suffix)
}

// Check returns the age of the registrable root of host. Every failure
// yields IsLookupAvailable == false with nil age fields.
func (c *Checker) Check(ctx context.Context, host string) model.DomainAge {
	root := util.RegistrableDomain(host)
	unavailable := model.DomainAge{Domain: root}
	if root == "" || util.IsIPv4(root) || !strings.Contains(root, ".") {
		return unavailable
	}
	if cached, ok := c.cache.Get(root); ok {
		c.Logger.Debug("domain age cache hit", "domain", root)
		metrics.Lookups.WithLabelValues(service, "cached").Inc()
		return cached
	}
	server, err := c.ServerFor(root)
	if err != nil {
		metrics.Lookups.WithLabelValues(service, "unconfigured").Inc()
		return unavailable
	}

	registered, err := c.lookup(ctx, server, root)
	if err != nil {
		c.Logger.Warn("domain age lookup failed", "service", service, "domain", root, "err", err)
		metrics.Lookups.WithLabelValues(service, "error").Inc()
		return unavailable
	}
	metrics.Lookups.WithLabelValues(service, "ok").Inc()

	res := c.ageOf(root, registered)
	c.cache.Set(root, res)
	return res
}

func (c *Checker) ageOf(root string, registered time.Time) model.DomainAge {
	days := int(c.now().Sub(registered).Hours() / 24)
	if days < 0 {
		days = 0
	}
	date := registered.UTC().Format("2006-01-02")
	return model.DomainAge{
		Domain:            root,
		AgeInDays:         &days,
		RegistrationDate:  &date,
		IsNewDomain:       days < NewDomainDays,
		IsYoungDomain:     days < YoungDomainDays,
		IsLookupAvailable: true,
	}
}

func (c *Checker) lookup(ctx context.Context, server, root string) (time.Time, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := strings.TrimSuffix(server, "/") + "/domain/" + root
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("build rdap request: %w", err)
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("rdap request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return time.Time{}, fmt.Errorf("rdap status %d", resp.StatusCode)
	}

	var doc rdapDomain
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return time.Time{}, fmt.Errorf("decode rdap: %w", err)
	}
	return RegistrationDate(doc.eventsByAction())
}

func (d rdapDomain) eventsByAction() map[string][]string {
	m := make(map[string][]string)
	for _, e := range d.Events {
		m[strings.ToLower(e.EventAction)] = append(m[strings.ToLower(e.EventAction)], e.EventDate)
	}
	return m
}

// RegistrationDate picks the "registration" event, or the earliest event
// of any kind when there is none.
func RegistrationDate(events map[string][]string) (time.Time, error) {
	if dates := parseAll(events["registration"]); len(dates) > 0 {
		return dates[0], nil
	}
	var all []time.Time
	for _, ds := range events {
		all = append(all, parseAll(ds)...)
	}
	if len(all) == 0 {
		return time.Time{}, errors.New("rdap: no dated events")
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Before(all[j]) })
	return all[0], nil
}

func parseAll(ds []string) []time.Time {
	var out []time.Time
	for _, d := range ds {
		if t, ok := parseDate(d); ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
