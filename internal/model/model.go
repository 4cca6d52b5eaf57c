package model

// HopType tells how a hop in a redirect chain was reached.
type HopType string

const (
	HopOrigin     HopType = "origin"
	HopHTTP       HopType = "http"
	HopClientSide HopType = "client-side"
)

// Hop represents a single step in a redirect chain.
type Hop struct {
	URL        string  `json:"url"`
	Domain     string  `json:"domain"`
	Type       HopType `json:"hop_type"`
	StatusCode int     `json:"status_code,omitempty"`
}

// Resolved is the outcome of following a URL to its final destination.
type Resolved struct {
	FinalURL             string `json:"final_url"`
	Chain                []Hop  `json:"chain"`
	CrossDomainHopCount  int    `json:"cross_domain_hop_count"`
	IsSuspiciousRedirect bool   `json:"is_suspicious_redirect"`
	TotalRedirects       int    `json:"total_redirects"`
}

// Finding represents a security issue discovered in a redirect chain.
// Severity uses the same info/warning/danger scale as safety checks.
type Finding struct {
	Type     string   `json:"type"`
	AtHop    int      `json:"at_hop"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// Severity grades a safety check or finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Rank orders severities from info (0) to danger (2).
func (s Severity) Rank() int {
	switch s {
	case SeverityDanger:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// RiskLevel is the final grade of a safety review.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskBlocked RiskLevel = "blocked"
)

// Verdict is what the caller should do with the link.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictWarn  Verdict = "warn"
	VerdictBlock Verdict = "block"
)

// VerdictFor maps a risk level onto a verdict.
func VerdictFor(level RiskLevel) Verdict {
	switch level {
	case RiskBlocked:
		return VerdictBlock
	case RiskMedium, RiskHigh:
		return VerdictWarn
	default:
		return VerdictAllow
	}
}

// SafetyCheck is one explainable signal of a review. ID is stable per check type.
type SafetyCheck struct {
	ID          string   `json:"id"`
	Passed      bool     `json:"passed"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// SafetyReview is the ordered list of checks and the resulting risk level.
type SafetyReview struct {
	Checks    []SafetyCheck `json:"checks"`
	RiskLevel RiskLevel     `json:"risk_level"`
}

// Check returns the check with the given ID.
func (r SafetyReview) Check(id string) (SafetyCheck, bool) {
	for _, c := range r.Checks {
		if c.ID == id {
			return c, true
		}
	}
	return SafetyCheck{}, false
}

// DomainAge is the result of a registration-date lookup. Nil pointers and
// false flags mean "unknown", never "old".
type DomainAge struct {
	Domain            string  `json:"domain"`
	AgeInDays         *int    `json:"age_in_days"`
	RegistrationDate  *string `json:"registration_date"`
	IsNewDomain       bool    `json:"is_new_domain"`
	IsYoungDomain     bool    `json:"is_young_domain"`
	IsLookupAvailable bool    `json:"is_lookup_available"`
}

// ThreatIntel is the answer of an external reputation lookup.
type ThreatIntel struct {
	IsThreat       bool   `json:"is_threat"`
	ThreatType     string `json:"threat_type,omitempty"`
	Description    string `json:"description,omitempty"`
	IsAPIAvailable bool   `json:"is_api_available"`
	FromCache      bool   `json:"from_cache"`
	Source         string `json:"source,omitempty"`
}

// Reputation is the static popularity tier of a domain.
type Reputation struct {
	Domain          string `json:"domain"`
	Tier            Tier   `json:"tier"`
	ScoreAdjustment int    `json:"score_adjustment"`
	IsKnown         bool   `json:"is_known"`
}

// Tier of the static popularity table.
type Tier string

const (
	TierTop100  Tier = "top-100"
	TierTop1000 Tier = "top-1000"
	TierUnknown Tier = "unknown"
)
