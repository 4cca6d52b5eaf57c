package review

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/util"
)

// Stable check IDs, in review order.
const (
	CheckInvalidURL        = "invalid_url"
	CheckTrustedDomain     = "trusted_domain"
	CheckDomainAge         = "domain_age"
	CheckHTTPS             = "https"
	CheckTLD               = "tld"
	CheckIPAddress         = "ip_address"
	CheckSubdomainCount    = "subdomain_count"
	CheckTyposquatting     = "typosquatting"
	CheckHomoglyph         = "homoglyph"
	CheckSuspiciousPattern = "suspicious_pattern"
	CheckDangerousFile     = "dangerous_file"
	CheckThreatIntel       = "threat_intel"
)

const (
	maxSubdomains = 3

	// PathScoreThreshold is the path-analysis score from which the
	// suspicious pattern check fails.
	PathScoreThreshold = 6
	// MLThreshold is the classifier probability from which the suspicious
	// pattern check fails.
	MLThreshold = 0.8
)

// DangerousExtensions are file types that install or execute code.
var DangerousExtensions = []string{".apk", ".exe", ".msi", ".bat", ".cmd", ".scr", ".pif", ".com", ".vbs", ".js", ".jar"}

// Shorteners hide the real destination of a link.
var Shorteners = []string{
	"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "is.gd", "buff.ly",
	"s.id", "cutt.ly", "rebrand.ly", "shorturl.at", "rb.gy", "tiny.cc",
	"lnkd.in", "bit.do", "v.gd", "t.ly", "shorte.st", "adf.ly", "urlz.fr",
}

// DangerousExtension returns the dangerous extension the path ends with.
func DangerousExtension(p string) (string, bool) {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return "", false
	}
	for _, d := range DangerousExtensions {
		if ext == d {
			return ext, true
		}
	}
	return "", false
}

// IsShortener reports whether host belongs to a URL shortener.
func IsShortener(host string) bool {
	for _, s := range Shorteners {
		if util.MatchesDomain(host, s) {
			return true
		}
	}
	return false
}

func passed(id, desc string) model.SafetyCheck {
	return model.SafetyCheck{ID: id, Passed: true, Severity: model.SeverityInfo, Description: desc}
}

func failed(id string, sev model.Severity, desc string) model.SafetyCheck {
	return model.SafetyCheck{ID: id, Passed: false, Severity: sev, Description: desc}
}

func domainAgeCheck(age *model.DomainAge) (model.SafetyCheck, bool) {
	if age == nil || !age.IsLookupAvailable || age.AgeInDays == nil {
		return model.SafetyCheck{}, false
	}
	days := *age.AgeInDays
	switch {
	case age.IsNewDomain:
		return failed(CheckDomainAge, model.SeverityDanger, fmt.Sprintf("Domain was registered only %d days ago", days)), true
	case age.IsYoungDomain:
		return failed(CheckDomainAge, model.SeverityWarning, fmt.Sprintf("Domain is young (%d days old)", days)), true
	default:
		return passed(CheckDomainAge, fmt.Sprintf("Domain has existed for %d days", days)), true
	}
}

func homoglyphCheck(c util.Candidate) model.SafetyCheck {
	puny := false
	for _, label := range strings.Split(c.Host, ".") {
		if strings.HasPrefix(label, "xn--") {
			puny = true
			break
		}
	}
	if label, ok := mixedScriptLabel(c.UnicodeHost); ok {
		desc := fmt.Sprintf("Domain label %q mixes characters from different alphabets", label)
		if puny {
			desc += " (Punycode " + c.Host + ")"
		}
		return failed(CheckHomoglyph, model.SeverityDanger, desc)
	}
	if puny {
		return failed(CheckHomoglyph, model.SeverityWarning,
			fmt.Sprintf("Domain uses Punycode encoding and displays as %s", c.UnicodeHost))
	}
	return passed(CheckHomoglyph, "No look-alike characters in the domain")
}

// mixedScriptLabel returns the first label whose letters come from more than
// one script. A whole-script label under a Latin TLD is not mixed.
func mixedScriptLabel(host string) (string, bool) {
	for _, label := range strings.Split(host, ".") {
		seen := ""
		for _, r := range label {
			s := script(r)
			if s == "" {
				continue
			}
			if seen == "" {
				seen = s
			} else if s != seen {
				return label, true
			}
		}
	}
	return "", false
}

func script(r rune) string {
	switch {
	case r < unicode.MaxASCII && !unicode.IsLetter(r):
		return ""
	case unicode.In(r, unicode.Latin):
		return "latin"
	case unicode.In(r, unicode.Cyrillic):
		return "cyrillic"
	case unicode.In(r, unicode.Greek):
		return "greek"
	case unicode.In(r, unicode.Armenian):
		return "armenian"
	case unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han):
		return "cjk"
	default:
		return ""
	}
}
