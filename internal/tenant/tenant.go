// Package tenant resolves inbound request hosts to business identities.
// Resolution is the only way request handling learns which business a
// request belongs to; everything downstream keys off the BusinessID.
package tenant

import (
	"context"
	"errors"
)

// Source records how a resolution was produced.
type Source string

const (
	// SourceHostMapping means the host matched the custom-domain table.
	SourceHostMapping Source = "host-mapping"
	// SourceEnvDefault means the configured default business served an
	// unmapped host. Never valid in production.
	SourceEnvDefault Source = "env-default"
	// SourceExplicitOverride means the caller named the business directly,
	// bypassing host lookup (CLI generation, admin tooling).
	SourceExplicitOverride Source = "explicit-override"
)

// Resolution is the outcome of mapping a request to a business.
type Resolution struct {
	BusinessID string
	Source     Source
	// Host is the normalized host the resolution was derived from.
	// Empty for explicit overrides.
	Host string
}

// Context key for storing the resolution in request context
type contextKey string

const resolutionContextKey contextKey = "tenant-resolution"

// ErrNoResolution is returned when no resolution is found in context
var ErrNoResolution = errors.New("no tenant resolution in context")

// WithResolution stores a resolution in the context
func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionContextKey, res)
}

// FromContext retrieves a resolution from the context
func FromContext(ctx context.Context) (Resolution, error) {
	res, ok := ctx.Value(resolutionContextKey).(Resolution)
	if !ok {
		return Resolution{}, ErrNoResolution
	}
	return res, nil
}
