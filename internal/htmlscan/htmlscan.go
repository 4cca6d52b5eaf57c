package htmlscan

import (
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"
)

// MaxBody is the number of body bytes inspected per hop.
const MaxBody = 512 * 1024

var (
	metaTagRe     = regexp.MustCompile(`(?is)<meta\b[^>]*>`)
	httpEquivRe   = regexp.MustCompile(`(?i)http-equiv\s*=\s*["']?\s*refresh`)
	metaContentRe = regexp.MustCompile(`(?i)content\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	refreshURLRe  = regexp.MustCompile(`(?i)^\s*\d+(?:\.\d+)?\s*[;,]\s*(?:url\s*=\s*)?['"]?([^'"]+)`)
	jsAssignRe    = regexp.MustCompile(`(?i)(?:window\.|document\.|self\.|top\.)?location(?:\.href)?\s*=\s*['"]([^'"]+)['"]`)
	jsCallRe      = regexp.MustCompile(`(?i)(?:window\.|document\.|self\.|top\.)?location\.(?:replace|assign)\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

// Via values reported for client-side redirects.
const (
	ViaMetaRefresh = "meta-refresh"
	ViaJS          = "js"
)

// ShouldFetchBody checks if content-type indicates HTML. An empty type is
// scanned too since many phishing kits omit it.
func ShouldFetchBody(ct string) bool {
	ct = strings.ToLower(ct)
	return ct == "" || strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// DetectRedirect inspects the body for meta refresh or JS redirects.
// It returns the next URL resolved against base and the mechanism used.
// Only http and https targets are reported.
func DetectRedirect(body []byte, base *url.URL) (next *url.URL, via string, ok bool) {
	for _, tag := range metaTagRe.FindAll(body, -1) {
		if !httpEquivRe.Match(tag) {
			continue
		}
		m := metaContentRe.FindSubmatch(tag)
		if m == nil {
			continue
		}
		content := string(m[1])
		if content == "" {
			content = string(m[2])
		}
		if t := refreshURLRe.FindStringSubmatch(html.UnescapeString(content)); t != nil {
			if u, ok := resolve(base, t[1]); ok {
				return u, ViaMetaRefresh, true
			}
		}
	}
	for _, re := range []*regexp.Regexp{jsAssignRe, jsCallRe} {
		if m := re.FindSubmatch(body); m != nil {
			if u, ok := resolve(base, string(m[1])); ok {
				return u, ViaJS, true
			}
		}
	}
	return nil, "", false
}

func resolve(base *url.URL, target string) (*url.URL, bool) {
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "#") {
		return nil, false
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

// ReadAndDetect reads from r up to limit and performs DetectRedirect.
func ReadAndDetect(r io.Reader, limit int64, base *url.URL) (next *url.URL, via string, body []byte, ok bool) {
	buf, _ := io.ReadAll(io.LimitReader(r, limit))
	next, via, ok = DetectRedirect(buf, base)
	return next, via, buf, ok
}
