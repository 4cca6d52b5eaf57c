package heuristic

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/selimozcann/LinkGuard/internal/util"
)

const maxPathScore = 15

var (
	sensitiveSegments = map[string]struct{}{
		"login": {}, "signin": {}, "sign-in": {}, "logon": {}, "verify": {}, "verification": {},
		"otp": {}, "reset-password": {}, "password": {}, "banking": {}, "internet-banking": {},
		"account": {}, "wallet": {}, "secure": {}, "update": {}, "confirm": {}, "unlock": {},
		"verifikasi": {}, "akun": {}, "masuk": {},
	}

	base64Re = regexp.MustCompile(`^[A-Za-z0-9+/_-]{16,}={0,2}$`)
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// PathAnalysis scores the path and query of a URL.
type PathAnalysis struct {
	Score   int      `json:"score"`
	Signals []string `json:"signals,omitempty"`
}

// AnalyzePath scores sensitive path segments, encoded payloads and
// credentials in the query. The total never exceeds 15.
func AnalyzePath(c util.Candidate) PathAnalysis {
	var pa PathAnalysis
	if !c.Valid {
		return pa
	}
	score := 0

	segments := strings.FieldsFunc(strings.ToLower(c.Path), func(r rune) bool { return r == '/' })
	for _, seg := range segments {
		if _, ok := sensitiveSegments[seg]; ok {
			score += 3
			pa.Signals = append(pa.Signals, "sensitive path segment /"+seg)
		}
	}
	if len(segments) > 5 {
		score += 3
		pa.Signals = append(pa.Signals, "deeply nested path")
	}

	values, _ := url.ParseQuery(c.Query)
	var sawBase64, sawEmail bool
	for _, vs := range values {
		for _, v := range vs {
			if !sawBase64 && looksBase64(v) {
				sawBase64 = true
				score += 5
				pa.Signals = append(pa.Signals, "encoded payload in query")
			}
			if !sawEmail && emailRe.MatchString(v) {
				sawEmail = true
				score += 5
				pa.Signals = append(pa.Signals, "e-mail address in query")
			}
		}
	}

	if c.HasUserInfo {
		score += 5
		pa.Signals = append(pa.Signals, "credentials before host (@)")
	}

	pa.Score = min(score, maxPathScore)
	return pa
}

func looksBase64(v string) bool {
	if !base64Re.MatchString(v) {
		return false
	}
	var upper, lower, digit bool
	for _, r := range v {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}
