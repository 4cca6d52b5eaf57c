// Package trust answers whether a host is trusted, either statically or
// because the user repeatedly marked it safe.
package trust

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/selimozcann/LinkGuard/internal/kvstore"
	"github.com/selimozcann/LinkGuard/internal/logging"
	"github.com/selimozcann/LinkGuard/internal/util"
)

const (
	// SafeVoteThreshold is the number of consecutive "safe" votes after
	// which a domain becomes user-trusted.
	SafeVoteThreshold = 3

	storeKey = "linkguard.user_trust"
)

// Record describes the trust state of one domain.
type Record struct {
	Domain            string `json:"domain"`
	StaticallyTrusted bool   `json:"statically_trusted"`
	UserEarnedTrust   bool   `json:"user_earned_trust"`
	SafeVotes         int    `json:"safe_votes"`
}

type userEntry struct {
	SafeVotes int  `json:"safe_votes"`
	Trusted   bool `json:"trusted"`
}

// Registry combines the static allow-list, the brand table and user-earned
// trust. Lookups walk the host suffixes so subdomains inherit trust.
type Registry struct {
	mu     sync.Mutex
	static map[string]struct{}
	brands map[string]*Brand
	filter *bloom.BloomFilter
	user   map[string]userEntry
	store  kvstore.Store
	logger *slog.Logger
}

// New builds a registry. store may be nil, in which case user trust lives
// only in memory.
func New(store kvstore.Store, logger *slog.Logger) *Registry {
	r := &Registry{
		static: make(map[string]struct{}),
		brands: make(map[string]*Brand),
		user:   make(map[string]userEntry),
		store:  store,
		logger: logging.OrDefault(logger),
	}
	for i := range Brands {
		for _, d := range Brands[i].OfficialDomains {
			r.static[d] = struct{}{}
			r.brands[d] = &Brands[i]
		}
	}
	for _, d := range staticDomains {
		r.static[d] = struct{}{}
	}
	r.filter = bloom.NewWithEstimates(uint(len(r.static)*4+64), 0.01)
	for d := range r.static {
		r.filter.AddString(d)
	}
	r.load()
	return r
}

func (r *Registry) load() {
	if r.store == nil {
		return
	}
	raw, ok, err := r.store.Get(storeKey)
	if err != nil {
		r.logger.Warn("load user trust", "err", err)
		return
	}
	if !ok || raw == "" {
		return
	}
	var m map[string]userEntry
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		r.logger.Warn("decode user trust", "err", err)
		return
	}
	r.user = m
}

func (r *Registry) persist() error {
	if r.store == nil {
		return nil
	}
	raw, err := json.Marshal(r.user)
	if err != nil {
		return fmt.Errorf("encode user trust: %w", err)
	}
	if err := r.store.Set(storeKey, string(raw)); err != nil {
		return fmt.Errorf("persist user trust: %w", err)
	}
	return nil
}

// suffixes lists host and each parent domain down to two labels, most
// specific first.
func suffixes(host string) []string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	var out []string
	for {
		out = append(out, host)
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		rest := host[i+1:]
		if !strings.Contains(rest, ".") {
			break
		}
		host = rest
	}
	return out
}

// IsStaticallyTrusted reports whether host or one of its parents is on the
// static allow-list.
func (r *Registry) IsStaticallyTrusted(host string) bool {
	for _, s := range suffixes(host) {
		if !r.filter.TestString(s) {
			continue
		}
		if _, ok := r.static[s]; ok {
			return true
		}
	}
	return false
}

// OfficialBrand returns the brand whose official domain covers host.
func (r *Registry) OfficialBrand(host string) (*Brand, bool) {
	for _, s := range suffixes(host) {
		if b, ok := r.brands[s]; ok {
			return b, true
		}
	}
	return nil, false
}

// IsUserTrusted reports whether the registrable root of host earned trust.
func (r *Registry) IsUserTrusted(host string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user[util.RegistrableDomain(host)].Trusted
}

// IsTrusted is true for statically trusted, official brand and user-trusted
// hosts.
func (r *Registry) IsTrusted(host string) bool {
	if host == "" {
		return false
	}
	if r.IsStaticallyTrusted(host) {
		return true
	}
	if _, ok := r.OfficialBrand(host); ok {
		return true
	}
	return r.IsUserTrusted(host)
}

// Lookup returns the full trust record of host.
func (r *Registry) Lookup(host string) Record {
	root := util.RegistrableDomain(host)
	r.mu.Lock()
	e := r.user[root]
	r.mu.Unlock()
	return Record{
		Domain:            root,
		StaticallyTrusted: r.IsStaticallyTrusted(host),
		UserEarnedTrust:   e.Trusted,
		SafeVotes:         e.SafeVotes,
	}
}

// Vote records explicit user feedback for the domain of host. Trust is
// granted at SafeVoteThreshold consecutive safe votes; any unsafe vote
// revokes it and resets the count. The in-memory state is updated even when
// persisting fails.
func (r *Registry) Vote(host string, safe bool) (Record, error) {
	root := util.RegistrableDomain(host)
	if root == "" {
		return Record{}, fmt.Errorf("trust vote: empty domain")
	}
	r.mu.Lock()
	e := r.user[root]
	if safe {
		e.SafeVotes++
		if e.SafeVotes >= SafeVoteThreshold {
			e.Trusted = true
		}
		r.user[root] = e
	} else {
		e = userEntry{}
		delete(r.user, root)
	}
	err := r.persist()
	r.mu.Unlock()

	rec := Record{
		Domain:            root,
		StaticallyTrusted: r.IsStaticallyTrusted(host),
		UserEarnedTrust:   e.Trusted,
		SafeVotes:         e.SafeVotes,
	}
	return rec, err
}
