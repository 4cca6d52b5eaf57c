package util

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// compoundSuffixes lists two-part country-code suffixes under which the
// registrable root takes three labels.
var compoundSuffixes = map[string]struct{}{
	"co.id": {}, "ac.id": {}, "or.id": {}, "go.id": {}, "web.id": {}, "my.id": {}, "biz.id": {}, "sch.id": {},
	"com.au": {}, "net.au": {}, "org.au": {}, "edu.au": {}, "gov.au": {},
	"co.uk": {}, "org.uk": {}, "ac.uk": {}, "gov.uk": {},
	"com.br": {}, "com.sg": {}, "com.my": {}, "com.ph": {}, "co.jp": {}, "co.kr": {},
	"co.nz": {}, "co.za": {}, "co.in": {}, "com.cn": {}, "com.hk": {}, "com.tw": {}, "com.mx": {},
}

// schemePrefix matches a URI scheme; portSuffix tells "host:8080" apart
// from an opaque URI such as "mailto:x@host".
var (
	schemePrefix = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):`)
	portSuffix   = regexp.MustCompile(`^[0-9]+(?:[/?#]|$)`)
)

// Candidate is a raw link split into the parts the analyzers need. A link
// that cannot be parsed yields Valid == false rather than an error.
type Candidate struct {
	Raw           string
	Scheme        string
	SchemeImplied bool
	Host          string // lower-case ASCII (punycode) form
	UnicodeHost   string
	Port          string
	Path          string
	RawPath       string
	Query         string
	Fragment      string
	HasUserInfo   bool
	Valid         bool
}

// URL rebuilds the normalized URL string.
func (c Candidate) URL() string {
	if !c.Valid {
		return c.Raw
	}
	host := c.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if c.Port != "" {
		host += ":" + c.Port
	}
	u := url.URL{Scheme: c.Scheme, Host: host, Path: c.Path, RawPath: c.RawPath, RawQuery: c.Query, Fragment: c.Fragment}
	return u.String()
}

// Parse splits raw into a Candidate. Links without a scheme are read as https.
func Parse(raw string) Candidate {
	c := Candidate{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return c
	}
	if !strings.Contains(s, "://") {
		if m := schemePrefix.FindStringSubmatch(s); m != nil && !portSuffix.MatchString(s[len(m[0]):]) {
			// mailto:, sms:, geo: and friends never name a web host.
			return c
		}
		s = "https://" + s
		c.SchemeImplied = true
	}
	u, err := url.Parse(s)
	if err != nil {
		return c
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return c
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return c
	}
	if ip := net.ParseIP(host); ip == nil {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil || !validHostname(ascii) {
			return c
		}
		host = ascii
	}
	c.Scheme = scheme
	c.Host = host
	c.UnicodeHost = host
	if uni, err := idna.Lookup.ToUnicode(host); err == nil && uni != "" {
		c.UnicodeHost = uni
	}
	c.Port = u.Port()
	c.Path = u.Path
	c.RawPath = u.RawPath
	c.Query = u.RawQuery
	c.Fragment = u.Fragment
	c.HasUserInfo = u.User != nil
	c.Valid = true
	return c
}

func validHostname(host string) bool {
	if !strings.Contains(host, ".") {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}

// Hostname returns the lower-case host of rawURL, or "" when it does not parse.
func Hostname(rawURL string) string {
	return Parse(rawURL).Host
}

// IsIPv4 reports whether host is a dotted IPv4 literal.
func IsIPv4(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.To4() != nil && strings.Count(host, ".") == 3
}

// Suffix returns the compound country-code suffix of host when it has one,
// otherwise its top-level label.
func Suffix(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) >= 2 {
		two := strings.Join(labels[len(labels)-2:], ".")
		if _, ok := compoundSuffixes[two]; ok {
			return two
		}
	}
	return labels[len(labels)-1]
}

// RegistrableDomain returns the registrable root (eTLD+1) of host.
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	if suffix := Suffix(host); strings.Contains(suffix, ".") {
		if len(labels) < 3 {
			return host
		}
		return strings.Join(labels[len(labels)-3:], ".")
	}
	if root, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return root
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// SubdomainCount returns the number of labels in front of the registrable root.
func SubdomainCount(host string) int {
	if host == "" || net.ParseIP(host) != nil {
		return 0
	}
	root := RegistrableDomain(host)
	n := strings.Count(host, ".") - strings.Count(root, ".")
	if n < 0 {
		return 0
	}
	return n
}

// SameBaseDomain reports whether two URLs share a registrable root.
func SameBaseDomain(a, b string) bool {
	ha, hb := Hostname(a), Hostname(b)
	if ha == "" || hb == "" {
		return false
	}
	return RegistrableDomain(ha) == RegistrableDomain(hb)
}

// MatchesDomain reports whether host equals domain or is one of its subdomains.
func MatchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
