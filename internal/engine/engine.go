// Package engine wires the analyzers into a single review pipeline.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/selimozcann/LinkGuard/internal/config"
	"github.com/selimozcann/LinkGuard/internal/detect"
	"github.com/selimozcann/LinkGuard/internal/domainage"
	"github.com/selimozcann/LinkGuard/internal/heuristic"
	"github.com/selimozcann/LinkGuard/internal/httpclient"
	"github.com/selimozcann/LinkGuard/internal/kvstore"
	"github.com/selimozcann/LinkGuard/internal/logging"
	"github.com/selimozcann/LinkGuard/internal/metrics"
	"github.com/selimozcann/LinkGuard/internal/ml"
	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/ratelimit"
	"github.com/selimozcann/LinkGuard/internal/reputation"
	"github.com/selimozcann/LinkGuard/internal/review"
	"github.com/selimozcann/LinkGuard/internal/securitylog"
	"github.com/selimozcann/LinkGuard/internal/threatintel"
	"github.com/selimozcann/LinkGuard/internal/trace"
	"github.com/selimozcann/LinkGuard/internal/trust"
	"github.com/selimozcann/LinkGuard/internal/util"
)

// Report is everything known about one reviewed link.
type Report struct {
	Input         string                 `json:"input"`
	Host          string                 `json:"host,omitempty"`
	Target        string                 `json:"target"`
	Verdict       model.Verdict          `json:"verdict"`
	FastAllowed   bool                   `json:"fast_allowed"`
	Gate          review.GateResult      `json:"gate"`
	Resolved      *model.Resolved        `json:"resolved,omitempty"`
	Findings      []model.Finding        `json:"findings,omitempty"`
	Heuristic     heuristic.Result       `json:"heuristic"`
	Path          heuristic.PathAnalysis `json:"path"`
	MLProbability float64                `json:"ml_probability"`
	Reputation    model.Reputation       `json:"reputation"`
	DomainAge     *model.DomainAge       `json:"domain_age,omitempty"`
	ThreatIntel   *model.ThreatIntel     `json:"threat_intel,omitempty"`
	Review        model.SafetyReview     `json:"review"`
	DurationMs    int64                  `json:"duration_ms"`
	StartedAt     time.Time              `json:"started_at"`
	Error         string                 `json:"error,omitempty"`
}

// Engine holds the analyzers. Fields may be replaced before first use.
type Engine struct {
	Trust      *trust.Registry
	Scorer     *heuristic.Scorer
	Classifier *ml.Classifier
	Reputation *reputation.Service
	Gate       *review.Gate
	Aggregator *review.Aggregator
	Resolver   *trace.Resolver
	DomainAge  *domainage.Checker
	Blocklist  *threatintel.Blocklist
	Community  *threatintel.Community
	Events     *securitylog.Logger
	PIN        *ratelimit.Limiter

	// NoResolve skips redirect resolution, for offline use.
	NoResolve bool

	logger *slog.Logger
	now    func() time.Time
}

// New builds an engine from cfg. store holds user trust, the security log
// and the PIN state; nil keeps them in memory.
func New(cfg *config.Config, store kvstore.Store, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger = logging.OrDefault(logger)
	if store == nil {
		store = kvstore.NewMemory()
	}

	hopClient, err := httpclient.New(httpclient.Config{Timeout: cfg.HopTimeout, Proxy: cfg.Proxy, UserAgent: cfg.UserAgent, Retries: 1})
	if err != nil {
		return nil, fmt.Errorf("hop client: %w", err)
	}
	apiClient, err := httpclient.New(httpclient.Config{
		Timeout:   cfg.IntelTimeout,
		Proxy:     cfg.Proxy,
		UserAgent: cfg.UserAgent,
		Headers:   http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}

	tables := heuristic.DefaultTables()
	if len(cfg.HighRiskTLDs) > 0 {
		tables.HighRiskTLDs = cfg.HighRiskTLDs
	}
	scorer := heuristic.New(tables)
	reg := trust.New(store, logger)
	rep := reputation.New()
	clf := ml.New(ml.LoadOrDefault(cfg.ModelFile, logger), scorer)

	resolver := trace.New(hopClient, logger)
	resolver.MaxDepth = cfg.MaxRedirects
	resolver.HopTimeout = cfg.HopTimeout

	age := domainage.New(apiClient, logger)
	age.Timeout = cfg.RDAPTimeout

	bl := threatintel.NewBlocklist(threatintel.BlocklistConfig{
		APIKey:    cfg.SafeBrowsingKey,
		BaseURL:   cfg.SafeBrowsingURL,
		Timeout:   cfg.IntelTimeout,
		RatePerS:  cfg.IntelRPS,
		RateBurst: 1,
	}, apiClient, logger)
	comm := threatintel.NewCommunity(threatintel.CommunityConfig{
		AppKey:    cfg.PhishTankKey,
		BaseURL:   cfg.PhishTankURL,
		Timeout:   cfg.IntelTimeout,
		RatePerS:  cfg.IntelRPS,
		RateBurst: 1,
	}, apiClient, logger)

	events := securitylog.New(store, logger)
	return &Engine{
		Trust:      reg,
		Scorer:     scorer,
		Classifier: clf,
		Reputation: rep,
		Gate:       review.NewGate(reg, scorer, rep),
		Aggregator: review.NewAggregator(reg, scorer, clf),
		Resolver:   resolver,
		DomainAge:  age,
		Blocklist:  bl,
		Community:  comm,
		Events:     events,
		PIN:        ratelimit.New(store, events, logger),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// CheckGate runs only the fast-allow gate.
func (e *Engine) CheckGate(raw string) review.GateResult {
	return e.Gate.Check(raw, "")
}

// Review analyzes raw end to end. It never returns an error: every lookup
// failure degrades to a neutral signal.
func (e *Engine) Review(ctx context.Context, raw string) Report {
	start := e.now()
	c := util.Parse(raw)
	rep := Report{Input: raw, Host: c.Host, Target: c.URL(), StartedAt: start.UTC()}
	defer func() {
		rep.DurationMs = e.now().Sub(start).Milliseconds()
	}()

	rep.Gate = e.Gate.Check(raw, "")
	if rep.Gate.IsSafe {
		rep.FastAllowed = true
		metrics.GateShortCircuits.Inc()
		rep.Heuristic = e.Scorer.AnalyzeCandidate(c)
		rep.Path = heuristic.AnalyzePath(c)
		rep.Reputation = e.Reputation.Lookup(c.Host)
		rep.Review = e.Aggregator.PerformSafetyReview(raw, nil, nil)
		rep.Verdict = model.VerdictAllow
		e.finish(&rep)
		return rep
	}

	if !c.Valid {
		rep.Heuristic = e.Scorer.AnalyzeCandidate(c)
		rep.Review = e.Aggregator.PerformSafetyReview(raw, nil, nil)
		rep.Verdict = model.VerdictBlock
		e.finish(&rep)
		return rep
	}

	if !e.NoResolve && e.Resolver != nil {
		resolved := e.Resolver.Resolve(ctx, c.URL())
		rep.Resolved = &resolved
		rep.Findings = detect.Chain(resolved.Chain)
		if t := util.Parse(resolved.FinalURL); t.Valid {
			rep.Target = t.URL()
			c = t
		}
	}

	rep.Heuristic = e.Scorer.AnalyzeCandidate(c)
	rep.Path = heuristic.AnalyzePath(c)
	rep.Reputation = e.Reputation.Lookup(c.Host)
	if e.Classifier != nil {
		rep.MLProbability = e.Classifier.Predict(rep.Target)
	}

	age, ti := e.lookups(ctx, c.Host, rep.Target)
	rep.ThreatIntel = ti
	if age.IsLookupAvailable {
		rep.DomainAge = &age
	}

	rep.Review = e.Aggregator.PerformSafetyReview(rep.Target, ti, &age)
	rep.Verdict = model.VerdictFor(rep.Review.RiskLevel)
	if rep.Resolved != nil && detect.FinalIsInternal(rep.Resolved.Chain) && rep.Verdict == model.VerdictAllow {
		rep.Verdict = model.VerdictWarn
	}
	e.finish(&rep)
	return rep
}

// lookups runs the domain age and both threat lookups concurrently. Each
// carries its own timeout; one failing never cancels the others. The threat
// result is nil when no service is configured.
func (e *Engine) lookups(ctx context.Context, host, target string) (model.DomainAge, *model.ThreatIntel) {
	var (
		wg       sync.WaitGroup
		age      model.DomainAge
		bl, comm *model.ThreatIntel
	)
	if e.DomainAge != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			age = e.DomainAge.Check(ctx, host)
		}()
	}
	if e.Blocklist != nil && e.Blocklist.Configured() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := e.Blocklist.Check(ctx, target)
			bl = &r
		}()
	}
	if e.Community != nil && e.Community.Configured() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := e.Community.Check(ctx, target)
			comm = &r
		}()
	}
	wg.Wait()
	return age, threatintel.Merge(bl, comm)
}

func (e *Engine) finish(rep *Report) {
	metrics.Verdicts.WithLabelValues(string(rep.Verdict)).Inc()
	if e.Events == nil {
		return
	}
	details := map[string]string{
		"url":        rep.Input,
		"risk_level": string(rep.Review.RiskLevel),
	}
	if rep.Target != "" && rep.Target != rep.Input {
		details["target"] = rep.Target
	}
	if rep.FastAllowed {
		details["fast_allowed"] = "true"
	}
	if rep.ThreatIntel != nil && rep.ThreatIntel.IsThreat {
		e.Events.LogEvent(securitylog.EventThreatFound, "Threat service flagged "+rep.Target, map[string]string{
			"url":         rep.Target,
			"threat_type": rep.ThreatIntel.ThreatType,
			"source":      rep.ThreatIntel.Source,
		})
	}
	switch rep.Verdict {
	case model.VerdictBlock:
		e.Events.LogEvent(securitylog.EventLinkBlocked, "Blocked "+rep.Input, details)
	case model.VerdictWarn:
		e.Events.LogEvent(securitylog.EventLinkWarned, "Warned about "+rep.Input, details)
	default:
		e.Events.LogEvent(securitylog.EventLinkAllowed, "Allowed "+rep.Input, details)
	}
	e.logger.Debug("review finished", "url", rep.Input, "verdict", rep.Verdict, "risk", rep.Review.RiskLevel)
}

// Feedback records a user's safe/unsafe judgement of domain.
func (e *Engine) Feedback(domain string, safe bool) (trust.Record, error) {
	before := e.Trust.Lookup(domain)
	rec, err := e.Trust.Vote(domain, safe)
	if rec.Domain == "" {
		return rec, err
	}
	if e.Events != nil {
		switch {
		case safe && rec.UserEarnedTrust && !before.UserEarnedTrust:
			e.Events.LogEvent(securitylog.EventTrustGranted, "Domain trusted after repeated safe feedback", map[string]string{"domain": rec.Domain})
		case !safe && (before.UserEarnedTrust || before.SafeVotes > 0):
			e.Events.LogEvent(securitylog.EventTrustRevoked, "Domain trust reset by unsafe feedback", map[string]string{"domain": rec.Domain})
		}
	}
	if err != nil {
		e.logger.Warn("trust feedback not persisted", "domain", rec.Domain, "err", err)
	}
	return rec, err
}
