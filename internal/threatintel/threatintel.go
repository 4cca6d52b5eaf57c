// Package threatintel queries external URL reputation services. Every
// failure degrades to "not a threat, unavailable"; an outage never turns
// into a block.
package threatintel

import (
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/selimozcann/LinkGuard/internal/model"
)

const (
	DefaultTimeout = 10 * time.Second
	cacheSize      = 500

	SourceBlocklist = "blocklist"
	SourceCommunity = "community"
)

// ErrNotConfigured is returned when a client has no API key.
var ErrNotConfigured = errors.New("threatintel: not configured")

// Unavailable is the degraded result shape.
func Unavailable(source string) model.ThreatIntel {
	return model.ThreatIntel{Source: source}
}

func clean(source string) model.ThreatIntel {
	return model.ThreatIntel{IsAPIAvailable: true, Source: source}
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Merge folds the answers of both services into one: a threat when either
// confirms one, available when either answered. Nil inputs are skipped and
// two nils give nil.
func Merge(results ...*model.ThreatIntel) *model.ThreatIntel {
	var out *model.ThreatIntel
	for _, r := range results {
		if r == nil {
			continue
		}
		if out == nil {
			cp := *r
			out = &cp
			continue
		}
		if r.IsThreat && !out.IsThreat {
			out.IsThreat = true
			out.ThreatType = r.ThreatType
			out.Description = r.Description
		}
		out.IsAPIAvailable = out.IsAPIAvailable || r.IsAPIAvailable
		out.FromCache = out.FromCache && r.FromCache
		if r.Source != "" && r.Source != out.Source {
			if out.Source == "" {
				out.Source = r.Source
			} else {
				out.Source += "+" + r.Source
			}
		}
	}
	return out
}
