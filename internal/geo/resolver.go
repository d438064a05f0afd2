// Package geo resolves client IP addresses to coarse locations.
//
// Resolution never fails from the caller's point of view: private and
// loopback addresses short-circuit to a fixed placeholder, public addresses
// are tried against an ordered list of providers, and total failure yields a
// nil record.
package geo

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantumlife/viewerscope/internal/core"
	"github.com/quantumlife/viewerscope/internal/logging"
)

// Resolver maps an IP to a location. Implementations never return an error;
// nil means "unknown".
type Resolver interface {
	Resolve(ctx context.Context, ip string) *core.LocationRecord
}

// Provider is a single location backend that may fail.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (*core.LocationRecord, error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ctx context.Context, ip string) *core.LocationRecord

// Resolve calls f
func (f ResolverFunc) Resolve(ctx context.Context, ip string) *core.LocationRecord {
	return f(ctx, ip)
}

// privatePrefixes are matched against the raw address string.
var privatePrefixes = []string{
	"10.",
	"192.168.",
	"127.",
	"169.254.",
	"fe80:",
	"::ffff:10.",
	"::ffff:192.168.",
	"::ffff:127.",
}

// IsPrivate reports whether ip is loopback, link-local, RFC1918 or one of the
// literal placeholders browsers and proxies send.
func IsPrivate(ip string) bool {
	ip = strings.ToLower(strings.TrimSpace(ip))
	switch ip {
	case "", "localhost", "unknown", "::1", "0:0:0:0:0:0:0:1", "::ffff:127.0.0.1":
		return true
	}

	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}

	// 172.16.0.0/12
	rest := strings.TrimPrefix(ip, "::ffff:")
	if strings.HasPrefix(rest, "172.") {
		var second int
		if _, err := fmt.Sscanf(rest[len("172."):], "%d.", &second); err == nil && second >= 16 && second <= 31 {
			return true
		}
	}

	return false
}

// LocalPlaceholder is returned for addresses that never leave the machine or LAN.
func LocalPlaceholder(ip string) *core.LocationRecord {
	return &core.LocationRecord{
		IP:          ip,
		City:        "Local Network",
		Region:      "Development",
		Country:     "Localhost",
		CountryCode: "LO",
		Timezone:    "UTC",
		ISP:         "Local Network",
	}
}

// Chain tries providers in order; the first non-nil, non-error answer wins.
type Chain struct {
	providers []Provider
	log       *logging.Logger
}

// NewChain creates a resolver over the given providers
func NewChain(providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		log:       logging.WithField("component", "geo"),
	}
}

// Providers returns the provider names in order
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Name implements Provider
func (c *Chain) Name() string {
	return "chain(" + strings.Join(c.Providers(), ",") + ")"
}

// Lookup implements Provider. Private addresses come back as the placeholder.
func (c *Chain) Lookup(ctx context.Context, ip string) (*core.LocationRecord, error) {
	if IsPrivate(ip) {
		return LocalPlaceholder(ip), nil
	}

	for _, p := range c.providers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec, err := p.Lookup(ctx, ip)
		if err != nil {
			c.log.WithFields(map[string]interface{}{
				"provider": p.Name(),
				"ip_hash":  HashIP(ip),
			}).Debug("lookup failed: %v", err)
			continue
		}
		if rec != nil {
			return rec, nil
		}
	}

	return nil, core.ErrLocationNotFound
}

// Resolve implements Resolver
func (c *Chain) Resolve(ctx context.Context, ip string) *core.LocationRecord {
	rec, err := c.Lookup(ctx, ip)
	if err != nil {
		return nil
	}
	return rec
}
