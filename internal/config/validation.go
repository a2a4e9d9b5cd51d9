package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldsites/sitebuilder/internal/errors"
)

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return errors.ValidationFailed("app.environment",
			fmt.Sprintf("unknown environment %q", c.App.Environment))
	}

	if c.Backend.BaseURL == "" && !c.Backend.AllowFallbackProfile {
		return errors.ConfigRequired("backend.base_url")
	}
	if c.Backend.BaseURL != "" && c.Backend.AllowFallbackProfile {
		return errors.ValidationFailed("backend.allow_fallback_profile",
			"fallback profile cannot be enabled when a backend is configured")
	}
	if c.Backend.MaxRetries != nil && *c.Backend.MaxRetries < 0 {
		return errors.ValidationFailed("backend.max_retries", "cannot be negative")
	}

	for field, raw := range map[string]string{
		"backend.timeout":             c.Backend.Timeout,
		"backend.retry_initial_delay": c.Backend.RetryInitialDelay,
		"backend.retry_max_delay":     c.Backend.RetryMaxDelay,
		"revalidate.profile":          c.Revalidate.Profile,
		"revalidate.services":         c.Revalidate.Services,
		"revalidate.products":         c.Revalidate.Products,
		"revalidate.projects":         c.Revalidate.Projects,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			return errors.ValidationFailed(field, fmt.Sprintf("not a duration: %q", raw))
		}
	}

	for host, businessID := range c.Tenants.Mapping {
		if strings.TrimSpace(businessID) == "" {
			return errors.ValidationFailed("tenants.mapping",
				fmt.Sprintf("host %q maps to an empty business ID", host))
		}
	}

	// Production must not lean on the unmapped-host fallback.
	if c.IsProduction() && c.Tenants.DefaultBusinessID != "" {
		return errors.ValidationFailed("tenants.default_business_id",
			"default business fallback must not be configured in production")
	}

	if c.Events.Enabled && c.Events.NATSURL == "" {
		return errors.ConfigRequired("events.nats_url")
	}

	return nil
}
