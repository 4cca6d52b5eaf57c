// Package review turns a link into an ordered list of explainable safety
// checks and a risk level, and decides when a link is trivially safe.
package review

import (
	"fmt"
	"strings"

	"github.com/selimozcann/LinkGuard/internal/heuristic"
	"github.com/selimozcann/LinkGuard/internal/ml"
	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/trust"
	"github.com/selimozcann/LinkGuard/internal/util"
)

const (
	highRiskPoints   = 4
	mediumRiskPoints = 2
)

// Aggregator runs the safety checks. The classifier is optional.
type Aggregator struct {
	trust      *trust.Registry
	scorer     *heuristic.Scorer
	classifier *ml.Classifier
}

func NewAggregator(reg *trust.Registry, scorer *heuristic.Scorer, clf *ml.Classifier) *Aggregator {
	return &Aggregator{trust: reg, scorer: scorer, classifier: clf}
}

// PerformSafetyReview checks raw. The domain age and threat checks are added
// only when their results are supplied and usable. Malformed input yields a
// single invalid_url check and RiskBlocked.
func (a *Aggregator) PerformSafetyReview(raw string, ti *model.ThreatIntel, age *model.DomainAge) model.SafetyReview {
	c := util.Parse(raw)
	if !c.Valid {
		return model.SafetyReview{
			Checks:    []model.SafetyCheck{failed(CheckInvalidURL, model.SeverityDanger, "The link could not be parsed as a web address")},
			RiskLevel: model.RiskBlocked,
		}
	}

	checks := make([]model.SafetyCheck, 0, 11)
	checks = append(checks, a.trustCheck(c.Host))
	if chk, ok := domainAgeCheck(age); ok {
		checks = append(checks, chk)
	}

	if c.Scheme == "https" {
		checks = append(checks, passed(CheckHTTPS, "Connection is encrypted (HTTPS)"))
	} else {
		checks = append(checks, failed(CheckHTTPS, model.SeverityWarning, "Connection is not encrypted (HTTP)"))
	}

	tld := c.Host[strings.LastIndex(c.Host, ".")+1:]
	if !util.IsIPv4(c.Host) && a.scorer.IsHighRiskTLD(tld) {
		checks = append(checks, failed(CheckTLD, model.SeverityWarning, fmt.Sprintf("The .%s extension is often abused", tld)))
	} else {
		checks = append(checks, passed(CheckTLD, "Domain extension is not on the high-risk list"))
	}

	if util.IsIPv4(c.Host) || strings.Contains(c.Host, ":") {
		checks = append(checks, failed(CheckIPAddress, model.SeverityDanger, "Link points to a raw IP address instead of a domain"))
	} else {
		checks = append(checks, passed(CheckIPAddress, "Link uses a domain name"))
	}

	if n := util.SubdomainCount(c.Host); n > maxSubdomains {
		checks = append(checks, failed(CheckSubdomainCount, model.SeverityWarning, fmt.Sprintf("Unusually many subdomains (%d)", n)))
	} else {
		checks = append(checks, passed(CheckSubdomainCount, "Normal number of subdomains"))
	}

	if brand, method, ok := a.scorer.MatchBrand(c.Host); ok {
		verb := method
		if method == "leetspeak" {
			verb = "spells out"
		}
		checks = append(checks, failed(CheckTyposquatting, model.SeverityDanger,
			fmt.Sprintf("Domain %s %s but is not an official %s domain", verb, strings.ToLower(brand.Name), brand.Name)))
	} else {
		checks = append(checks, passed(CheckTyposquatting, "No brand impersonation detected"))
	}

	checks = append(checks, homoglyphCheck(c))
	checks = append(checks, a.patternCheck(c))

	if ext, ok := DangerousExtension(c.Path); ok {
		checks = append(checks, failed(CheckDangerousFile, model.SeverityDanger, fmt.Sprintf("Link downloads a %s file", ext)))
	} else {
		checks = append(checks, passed(CheckDangerousFile, "No executable download"))
	}

	if ti != nil {
		switch {
		case ti.IsThreat:
			desc := ti.Description
			if desc == "" {
				desc = "Reported as " + ti.ThreatType
			}
			checks = append(checks, failed(CheckThreatIntel, model.SeverityDanger, desc))
		case ti.IsAPIAvailable:
			checks = append(checks, passed(CheckThreatIntel, "Not found in threat databases"))
		default:
			checks = append(checks, passed(CheckThreatIntel, "Threat databases could not be reached"))
		}
	}

	return model.SafetyReview{Checks: checks, RiskLevel: RiskLevel(checks)}
}

func (a *Aggregator) trustCheck(host string) model.SafetyCheck {
	if a.trust == nil {
		return failed(CheckTrustedDomain, model.SeverityInfo, "Domain is not on a trusted list")
	}
	if b, ok := a.trust.OfficialBrand(host); ok {
		return passed(CheckTrustedDomain, "Official "+b.Name+" domain")
	}
	if a.trust.IsStaticallyTrusted(host) {
		return passed(CheckTrustedDomain, "Domain is on the trusted list")
	}
	if a.trust.IsUserTrusted(host) {
		return passed(CheckTrustedDomain, "You marked this domain as safe")
	}
	return failed(CheckTrustedDomain, model.SeverityInfo, "Domain is not on a trusted list")
}

func (a *Aggregator) patternCheck(c util.Candidate) model.SafetyCheck {
	var reasons []string
	if n, examples := a.scorer.CountKeywords(c.Host + c.Path + "?" + c.Query); n > 0 {
		reasons = append(reasons, "suspicious words ("+strings.Join(examples, ", ")+")")
	}
	if p := heuristic.AnalyzePath(c); p.Score >= PathScoreThreshold {
		reasons = append(reasons, strings.Join(p.Signals, ", "))
	}
	if a.classifier != nil {
		if p := a.classifier.Predict(c.Raw); p >= MLThreshold {
			reasons = append(reasons, fmt.Sprintf("phishing model score %.0f%%", p*100))
		}
	}
	if len(reasons) == 0 {
		return passed(CheckSuspiciousPattern, "No suspicious patterns")
	}
	return failed(CheckSuspiciousPattern, model.SeverityWarning, "Suspicious pattern: "+strings.Join(reasons, "; "))
}

// RiskLevel grades checks. A failed dangerous-file, threat or invalid-URL
// check blocks; otherwise each failed danger counts 2 and each failed
// warning 1.
func RiskLevel(checks []model.SafetyCheck) model.RiskLevel {
	points := 0
	for _, c := range checks {
		if c.Passed {
			continue
		}
		switch c.ID {
		case CheckDangerousFile, CheckThreatIntel, CheckInvalidURL:
			if c.Severity == model.SeverityDanger {
				return model.RiskBlocked
			}
		}
		switch c.Severity {
		case model.SeverityDanger:
			points += 2
		case model.SeverityWarning:
			points++
		}
	}
	switch {
	case points >= highRiskPoints:
		return model.RiskHigh
	case points >= mediumRiskPoints:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
