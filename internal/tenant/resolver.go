package tenant

import (
	"log/slog"
	"net"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/net/idna"

	"github.com/fieldsites/sitebuilder/internal/config"
	"github.com/fieldsites/sitebuilder/internal/errors"
	"github.com/fieldsites/sitebuilder/internal/logfields"
)

// Resolver maps hosts to business IDs against an atomically swappable
// mapping snapshot, so a config reload never blocks in-flight lookups.
type Resolver struct {
	snapshot   atomic.Pointer[map[string]string]
	defaultBiz string
	production bool
	logger     *slog.Logger
}

// NewResolver builds a resolver from the tenants config section.
// In production a configured default business ID is rejected by config
// validation before this is reached; the flag here is a second gate.
func NewResolver(cfg config.TenantsConfig, production bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		defaultBiz: cfg.DefaultBusinessID,
		production: production,
		logger:     logger,
	}
	r.Replace(cfg.Mapping)
	return r
}

// Replace swaps the mapping snapshot. Keys are normalized the same way
// inbound hosts are, so "Www.Example.COM:443" in config still matches.
func (r *Resolver) Replace(mapping map[string]string) {
	normalized := make(map[string]string, len(mapping))
	for host, businessID := range mapping {
		key, err := NormalizeHost(host)
		if err != nil {
			r.logger.Warn("skipping unnormalizable mapping host",
				logfields.Host(host), logfields.Error(err))
			continue
		}
		normalized[key] = businessID
	}
	r.snapshot.Store(&normalized)
}

// Size returns the number of hosts in the current snapshot.
func (r *Resolver) Size() int {
	return len(*r.snapshot.Load())
}

// Businesses returns the distinct business IDs in the current snapshot,
// sorted, including the default business when one is configured. The
// revalidation daemon iterates this set.
func (r *Resolver) Businesses() []string {
	mapping := *r.snapshot.Load()
	seen := make(map[string]bool, len(mapping)+1)
	for _, businessID := range mapping {
		seen[businessID] = true
	}
	if r.defaultBiz != "" {
		seen[r.defaultBiz] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HostFor returns a host mapped to the business, preferring the first in
// sorted order so URL construction is stable across snapshots.
func (r *Resolver) HostFor(businessID string) (string, bool) {
	mapping := *r.snapshot.Load()
	hosts := make([]string, 0, 1)
	for host, id := range mapping {
		if id == businessID {
			hosts = append(hosts, host)
		}
	}
	if len(hosts) == 0 {
		return "", false
	}
	sort.Strings(hosts)
	return hosts[0], true
}

// Resolve maps a request host to a business. Lookup order:
// exact mapping hit, then the environment default. An unmapped host with
// no usable default yields an UNRESOLVED_HOST error; in production the
// default is never consulted and the miss is logged at error level.
func (r *Resolver) Resolve(host string) (Resolution, error) {
	normalized, err := NormalizeHost(host)
	if err != nil {
		return Resolution{}, errors.UnresolvedHost(host).WithContext("reason", "malformed host")
	}

	mapping := *r.snapshot.Load()
	if businessID, ok := mapping[normalized]; ok {
		return Resolution{BusinessID: businessID, Source: SourceHostMapping, Host: normalized}, nil
	}

	if r.production {
		r.logger.Error("unmapped host in production",
			logfields.Host(normalized), logfields.Source(string(SourceHostMapping)))
		return Resolution{}, errors.UnresolvedHost(normalized)
	}

	if r.defaultBiz != "" {
		r.logger.Warn("serving unmapped host via default business",
			logfields.Host(normalized), logfields.BusinessID(r.defaultBiz))
		return Resolution{BusinessID: r.defaultBiz, Source: SourceEnvDefault, Host: normalized}, nil
	}

	return Resolution{}, errors.UnresolvedHost(normalized)
}

// ResolveOverride produces an explicit-override resolution for callers that
// already know the business, such as the generate CLI command.
func ResolveOverride(businessID string) (Resolution, error) {
	if businessID == "" {
		return Resolution{}, errors.ValidationFailed("business_id", "must not be empty")
	}
	return Resolution{BusinessID: businessID, Source: SourceExplicitOverride}, nil
}

// NormalizeHost canonicalizes an inbound host: strip any port, lowercase,
// and punycode-encode international domains so mapping keys compare stably.
func NormalizeHost(host string) (string, error) {
	h := strings.TrimSpace(host)
	if h == "" {
		return "", errors.ValidationFailed("host", "must not be empty")
	}
	if stripped, _, err := net.SplitHostPort(h); err == nil {
		h = stripped
	}
	h = strings.TrimSuffix(strings.ToLower(h), ".")
	if h == "" {
		return "", errors.ValidationFailed("host", "must not be empty")
	}
	ascii, err := idna.Lookup.ToASCII(h)
	if err != nil {
		// Non-DNS hosts like "localhost" or raw IPs pass through untouched.
		if net.ParseIP(h) != nil || !strings.Contains(h, ".") {
			return h, nil
		}
		return "", errors.ValidationFailed("host", "not a valid domain name")
	}
	return ascii, nil
}
