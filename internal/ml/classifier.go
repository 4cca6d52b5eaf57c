// Package ml turns a URL into a fixed feature vector and scores it with a
// small feed-forward network. The probability is a supporting signal only.
package ml

import (
	"math"
	"strings"

	"github.com/selimozcann/LinkGuard/internal/heuristic"
	"github.com/selimozcann/LinkGuard/internal/util"
)

var knownTLDs = map[string]struct{}{
	"com": {}, "org": {}, "net": {}, "edu": {}, "gov": {}, "id": {}, "co.id": {},
	"go.id": {}, "ac.id": {}, "or.id": {}, "uk": {}, "co.uk": {}, "de": {},
	"fr": {}, "jp": {}, "co.jp": {}, "au": {}, "com.au": {}, "sg": {}, "com.sg": {},
	"my": {}, "com.my": {}, "io": {}, "us": {}, "ca": {}, "nl": {}, "in": {},
}

// Classifier extracts features and runs the model.
type Classifier struct {
	model  *Model
	scorer *heuristic.Scorer
}

// New returns a classifier. A nil model selects DefaultModel.
func New(m *Model, scorer *heuristic.Scorer) *Classifier {
	if m == nil {
		m = DefaultModel()
	}
	return &Classifier{model: m, scorer: scorer}
}

// Features maps raw onto the 12 model inputs, each clamped to [0,1].
// Invalid input yields the zero vector.
func (c *Classifier) Features(raw string) [FeatureCount]float64 {
	var x [FeatureCount]float64
	cand := util.Parse(raw)
	if !cand.Valid {
		return x
	}
	full := strings.TrimSpace(raw)
	host := cand.Host

	digits := 0
	for _, r := range full {
		if r >= '0' && r <= '9' {
			digits++
		}
	}

	x[0] = float64(len(full)) / 200
	x[1] = float64(strings.Count(host, ".")) / 10
	x[2] = float64(strings.Count(host, "-")) / 10
	if cand.HasUserInfo || strings.Contains(full, "@") {
		x[3] = 1
	}
	if util.IsIPv4(host) {
		x[4] = 1
	}
	if len(full) > 0 {
		x[5] = float64(digits) / float64(len(full))
	}
	x[6] = entropy(host) / 5
	x[7] = float64(len(cand.Path)) / 100
	if c.scorer != nil {
		kw, _ := c.scorer.CountKeywords(host + cand.Path + "?" + cand.Query)
		x[8] = float64(kw) / 5
		if _, _, ok := c.scorer.MatchBrand(host); ok {
			x[11] = 1
		}
	}
	x[9] = float64(util.SubdomainCount(host)) / 5
	if _, ok := knownTLDs[util.Suffix(host)]; ok && !util.IsIPv4(host) {
		x[10] = 1
	}
	for i := range x {
		x[i] = clamp(x[i])
	}
	return x
}

// Predict returns the phishing probability of raw in [0,1].
func (c *Classifier) Predict(raw string) float64 {
	return c.model.Forward(c.Features(raw))
}

func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	n := 0
	for _, r := range s {
		counts[r]++
		n++
	}
	var h float64
	for _, k := range counts {
		p := float64(k) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

func clamp(v float64) float64 {
	switch {
	case v < 0, math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
