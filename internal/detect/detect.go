package detect

import (
	"net/url"
	"strings"

	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/util"
)

// Finding types.
const (
	TypeInternalHost   = "INTERNAL_HOST"
	TypeHTTPSDowngrade = "HTTPS_DOWNGRADE"
	TypeTokenLeak      = "TOKEN_LEAK"
)

var tokenKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"id_token":      true,
	"refresh_token": true,
	"code":          true,
	"session":       true,
	"sessionid":     true,
	"bearer":        true,
	"otp":           true,
}

// Chain inspects every hop of a resolved chain.
func Chain(chain []model.Hop) []model.Finding {
	var out []model.Finding
	var prev *url.URL
	for i, h := range chain {
		u, err := url.Parse(h.URL)
		if err != nil {
			continue
		}
		if f := InternalHost(u, i); f != nil {
			out = append(out, *f)
		}
		if f := TokenLeakage(u, i); f != nil {
			out = append(out, *f)
		}
		if prev != nil {
			if f := HTTPSDowngrade(prev, u, i); f != nil {
				out = append(out, *f)
			}
		}
		prev = u
	}
	return out
}

// FinalIsInternal reports whether the chain lands on an internal host.
func FinalIsInternal(chain []model.Hop) bool {
	if len(chain) == 0 {
		return false
	}
	u, err := url.Parse(chain[len(chain)-1].URL)
	return err == nil && util.IsInternalHost(u.Hostname())
}

// InternalHost checks whether the URL points to a loopback or private host.
func InternalHost(u *url.URL, hop int) *model.Finding {
	if util.IsInternalHost(u.Hostname()) {
		return &model.Finding{Type: TypeInternalHost, Severity: model.SeverityDanger, AtHop: hop, Detail: u.Host}
	}
	return nil
}

// HTTPSDowngrade reports if the scheme changed from https to http.
func HTTPSDowngrade(prev, next *url.URL, hop int) *model.Finding {
	if prev.Scheme == "https" && next.Scheme == "http" {
		return &model.Finding{Type: TypeHTTPSDowngrade, Severity: model.SeverityWarning, AtHop: hop, Detail: prev.String() + " -> " + next.String()}
	}
	return nil
}

// TokenLeakage detects sensitive tokens in query or fragment.
func TokenLeakage(u *url.URL, hop int) *model.Finding {
	q := u.Query()
	for k := range q {
		if tokenKeys[strings.ToLower(k)] {
			return &model.Finding{Type: TypeTokenLeak, Severity: model.SeverityWarning, AtHop: hop, Detail: k + " in query"}
		}
	}
	if frag := u.Fragment; frag != "" {
		for _, part := range strings.Split(frag, "&") {
			kv := strings.SplitN(part, "=", 2)
			if tokenKeys[strings.ToLower(kv[0])] {
				return &model.Finding{Type: TypeTokenLeak, Severity: model.SeverityDanger, AtHop: hop, Detail: kv[0] + " in fragment"}
			}
		}
	}
	return nil
}
