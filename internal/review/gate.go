package review

import (
	"strings"

	"github.com/selimozcann/LinkGuard/internal/heuristic"
	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/reputation"
	"github.com/selimozcann/LinkGuard/internal/trust"
	"github.com/selimozcann/LinkGuard/internal/util"
)

// GateMaxScore is the heuristic score below which a trusted link may skip
// the full review.
const GateMaxScore = 20

const (
	ReasonGateSafe       = "Trusted domain over HTTPS with no risk signals"
	ReasonGateInvalid    = "Link could not be parsed"
	ReasonGateUntrusted  = "Domain is not trusted"
	ReasonGateNoHTTPS    = "Link does not use HTTPS"
	ReasonGateDangerous  = "Link points to a dangerous file type"
	ReasonGateShortener  = "Link uses a URL shortener"
	ReasonGateHeuristics = "Heuristic score is too high"
)

// GateSignals are the inputs of the gate. Signals after the first failing
// one are left at their zero value; ReputationTier is always filled in and
// never gates.
type GateSignals struct {
	Trusted              bool       `json:"trusted"`
	HTTPS                bool       `json:"https"`
	NoDangerousExtension bool       `json:"no_dangerous_extension"`
	NotShortener         bool       `json:"not_shortener"`
	HeuristicScore       int        `json:"heuristic_score"`
	ReputationTier       model.Tier `json:"reputation_tier"`
}

// GateResult is the outcome of Gate.Check.
type GateResult struct {
	IsSafe  bool        `json:"is_safe"`
	Reason  string      `json:"reason"`
	Signals GateSignals `json:"signals"`
}

// Gate is the fast-allow short-circuit in front of the full review.
type Gate struct {
	trust      *trust.Registry
	scorer     *heuristic.Scorer
	reputation *reputation.Service
}

func NewGate(reg *trust.Registry, scorer *heuristic.Scorer, rep *reputation.Service) *Gate {
	if rep == nil {
		rep = reputation.New()
	}
	return &Gate{trust: reg, scorer: scorer, reputation: rep}
}

// Check evaluates raw. domain overrides the host used for the trust and
// shortener signals; an empty domain means the link's own host.
func (g *Gate) Check(raw, domain string) GateResult {
	c := util.Parse(raw)
	if !c.Valid {
		return GateResult{Reason: ReasonGateInvalid, Signals: GateSignals{ReputationTier: model.TierUnknown}}
	}
	host := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if host == "" {
		host = c.Host
	}

	var res GateResult
	res.Signals.ReputationTier = g.reputation.Lookup(host).Tier

	if res.Signals.Trusted = g.trust != nil && g.trust.IsTrusted(host); !res.Signals.Trusted {
		res.Reason = ReasonGateUntrusted
		return res
	}
	if res.Signals.HTTPS = c.Scheme == "https"; !res.Signals.HTTPS {
		res.Reason = ReasonGateNoHTTPS
		return res
	}
	_, dangerous := DangerousExtension(c.Path)
	if res.Signals.NoDangerousExtension = !dangerous; dangerous {
		res.Reason = ReasonGateDangerous
		return res
	}
	if res.Signals.NotShortener = !IsShortener(host); !res.Signals.NotShortener {
		res.Reason = ReasonGateShortener
		return res
	}
	res.Signals.HeuristicScore = g.scorer.AnalyzeCandidate(c).Score
	if res.Signals.HeuristicScore >= GateMaxScore {
		res.Reason = ReasonGateHeuristics
		return res
	}
	res.IsSafe = true
	res.Reason = ReasonGateSafe
	return res
}
