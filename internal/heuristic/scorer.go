// Package heuristic scores a URL for phishing risk from brand
// impersonation, TLD, structure and keyword signals.
package heuristic

import (
	"fmt"
	"strings"

	"github.com/selimozcann/LinkGuard/internal/trust"
	"github.com/selimozcann/LinkGuard/internal/util"
)

const (
	maxBrandScore     = 40
	maxTLDScore       = 20
	maxStructureScore = 20
	maxKeywordScore   = 20

	// SuspiciousThreshold is the total score from which a URL is suspicious.
	SuspiciousThreshold = 40

	maxKeywordExamples = 3

	ReasonInvalidURL = "Invalid URL Structure"
)

// Details breaks the score down by category.
type Details struct {
	BrandScore     int `json:"brand_score"`
	TLDScore       int `json:"tld_score"`
	StructureScore int `json:"structure_score"`
	KeywordScore   int `json:"keyword_score"`
}

// Result is the outcome of Analyze.
type Result struct {
	Score        int      `json:"score"`
	IsSuspicious bool     `json:"is_suspicious"`
	Reasons      []string `json:"reasons"`
	Details      Details  `json:"details"`
	MatchedBrand string   `json:"matched_brand,omitempty"`
	MatchMethod  string   `json:"match_method,omitempty"`
	KeywordCount int      `json:"keyword_count"`
	Invalid      bool     `json:"invalid,omitempty"`
}

// Scorer is safe for concurrent use; it holds only immutable tables.
type Scorer struct {
	brands   []trust.Brand
	tlds     map[string]struct{}
	keywords []string
	leet     *strings.Replacer
}

func New(t Tables) *Scorer {
	s := &Scorer{
		brands:   t.Brands,
		tlds:     make(map[string]struct{}, len(t.HighRiskTLDs)),
		keywords: t.SuspiciousKeywords,
		leet:     strings.NewReplacer(leetReplacer...),
	}
	for _, tld := range t.HighRiskTLDs {
		s.tlds[strings.TrimPrefix(strings.ToLower(tld), ".")] = struct{}{}
	}
	return s
}

// Analyze parses raw and scores it. Unparseable input scores 100.
func (s *Scorer) Analyze(raw string) Result {
	return s.AnalyzeCandidate(util.Parse(raw))
}

func (s *Scorer) AnalyzeCandidate(c util.Candidate) Result {
	if !c.Valid {
		return Result{Score: 100, IsSuspicious: true, Reasons: []string{ReasonInvalidURL}, Invalid: true}
	}

	var res Result
	if brand, method, ok := s.MatchBrand(c.Host); ok {
		res.Details.BrandScore = maxBrandScore
		res.MatchedBrand = brand.Name
		res.MatchMethod = method
		res.Reasons = append(res.Reasons, fmt.Sprintf("Possible %s impersonation (%s)", brand.Name, method))
	}

	if tld := topLevel(c.Host); s.IsHighRiskTLD(tld) {
		res.Details.TLDScore = maxTLDScore
		res.Reasons = append(res.Reasons, fmt.Sprintf("High-risk TLD .%s", tld))
	}

	res.Details.StructureScore, res.Reasons = s.structure(c, res.Reasons)

	count, examples := s.CountKeywords(c.Host + c.Path + "?" + c.Query)
	res.KeywordCount = count
	if count > 0 {
		res.Details.KeywordScore = min(count*10, maxKeywordScore)
		res.Reasons = append(res.Reasons, "Suspicious keywords: "+strings.Join(examples, ", "))
	}

	d := res.Details
	res.Score = min(d.BrandScore+d.TLDScore+d.StructureScore+d.KeywordScore, 100)
	res.IsSuspicious = res.Score >= SuspiciousThreshold
	return res
}

// structure counts hyphens on the Unicode form so the IDNA "xn--" marker
// and the punycode delimiter do not count as typed hyphens.
func (s *Scorer) structure(c util.Candidate, reasons []string) (int, []string) {
	host, uni := c.Host, c.UnicodeHost
	if uni == "" {
		uni = host
	}
	if util.IsIPv4(host) {
		return maxStructureScore, append(reasons, "Raw IP address instead of a domain")
	}
	score := 0
	if n := util.SubdomainCount(host); n > 3 {
		score += 10
		reasons = append(reasons, fmt.Sprintf("Excessive subdomains (%d)", n))
	}
	if n := strings.Count(uni, "-"); n > 2 {
		score += 10
		reasons = append(reasons, fmt.Sprintf("Many hyphens in host (%d)", n))
	}
	return min(score, maxStructureScore), reasons
}

// IsHighRiskTLD reports whether tld (without the dot) is on the list.
func (s *Scorer) IsHighRiskTLD(tld string) bool {
	_, ok := s.tlds[strings.ToLower(tld)]
	return ok
}

// CountKeywords counts every occurrence of every suspicious keyword in text
// and returns up to three distinct examples.
func (s *Scorer) CountKeywords(text string) (int, []string) {
	text = strings.ToLower(text)
	count := 0
	var examples []string
	for _, kw := range s.keywords {
		n := strings.Count(text, kw)
		if n == 0 {
			continue
		}
		count += n
		if len(examples) < maxKeywordExamples {
			examples = append(examples, kw)
		}
	}
	return count, examples
}

// MatchBrand returns the first brand host appears to impersonate and the
// method that matched. Hosts under one of the brand's official domains never
// match that brand.
func (s *Scorer) MatchBrand(host string) (trust.Brand, string, bool) {
	host = strings.ToLower(host)
	if host == "" || util.IsIPv4(host) {
		return trust.Brand{}, "", false
	}
	tokens := hostTokens(host)
	normalized := s.leet.Replace(host)
	for _, b := range s.brands {
		if isOfficial(host, b) {
			continue
		}
		for _, kw := range b.Keywords {
			if strings.Contains(host, kw) {
				return b, "contains", true
			}
			if len(kw) > 3 {
				for _, tok := range tokens {
					if levenshtein(tok, kw) <= 2 {
						return b, "looks like", true
					}
				}
			}
			if strings.Contains(normalized, kw) {
				return b, "leetspeak", true
			}
		}
	}
	return trust.Brand{}, "", false
}

func isOfficial(host string, b trust.Brand) bool {
	for _, d := range b.OfficialDomains {
		if util.MatchesDomain(host, d) {
			return true
		}
	}
	return false
}

// hostTokens splits the labels in front of the suffix on dots and hyphens.
func hostTokens(host string) []string {
	suffix := util.Suffix(host)
	head := strings.TrimSuffix(host, "."+suffix)
	return strings.FieldsFunc(head, func(r rune) bool { return r == '.' || r == '-' })
}

func topLevel(host string) string {
	if i := strings.LastIndexByte(host, '.'); i >= 0 {
		return host[i+1:]
	}
	return host
}

// levenshtein is the classic two-row edit distance over bytes; hosts are
// ASCII after IDNA mapping.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
