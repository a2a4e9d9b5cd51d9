package config

import "time"

// Default tuning values for the data access client. The exponential initial
// delay of 2s yields the 2^attempt-seconds schedule (2s, 4s, ...).
const (
	DefaultFetchTimeout      = 8 * time.Second
	DefaultMaxRetries        = 2
	DefaultRetryInitialDelay = 2 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second
)

// Default revalidation windows, one per resource type.
const (
	DefaultProfileWindow  = time.Hour
	DefaultServicesWindow = 30 * time.Minute
	DefaultProductsWindow = 15 * time.Minute
	DefaultProjectsWindow = 10 * time.Minute
)

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sitebuilder"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Backend.Timeout == "" {
		cfg.Backend.Timeout = DefaultFetchTimeout.String()
	}
	if cfg.Backend.RetryBackoff == "" {
		cfg.Backend.RetryBackoff = RetryBackoffExponential
	} else {
		cfg.Backend.RetryBackoff = NormalizeRetryBackoff(string(cfg.Backend.RetryBackoff))
		if cfg.Backend.RetryBackoff == "" { // fallback to default if unknown
			cfg.Backend.RetryBackoff = RetryBackoffExponential
		}
	}
	if cfg.Backend.RetryInitialDelay == "" {
		cfg.Backend.RetryInitialDelay = DefaultRetryInitialDelay.String()
	}
	if cfg.Backend.RetryMaxDelay == "" {
		cfg.Backend.RetryMaxDelay = DefaultRetryMaxDelay.String()
	}

	if cfg.Revalidate.Profile == "" {
		cfg.Revalidate.Profile = DefaultProfileWindow.String()
	}
	if cfg.Revalidate.Services == "" {
		cfg.Revalidate.Services = DefaultServicesWindow.String()
	}
	if cfg.Revalidate.Products == "" {
		cfg.Revalidate.Products = DefaultProductsWindow.String()
	}
	if cfg.Revalidate.Projects == "" {
		cfg.Revalidate.Projects = DefaultProjectsWindow.String()
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./sitebuilder.db"
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "sitebuilder.regeneration"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Int returns a pointer to v, for optional numeric config fields.
func Int(v int) *int { return &v }

// Retries returns the retry budget after the first attempt. An unset field
// means the default; an explicit zero disables retries entirely.
func (b BackendConfig) Retries() int {
	if b.MaxRetries == nil {
		return DefaultMaxRetries
	}
	if *b.MaxRetries < 0 {
		return 0
	}
	return *b.MaxRetries
}

// FetchTimeout returns the parsed per-attempt timeout.
func (b BackendConfig) FetchTimeout() time.Duration {
	return parseDurationOr(b.Timeout, DefaultFetchTimeout)
}

// InitialDelay returns the parsed backoff base delay.
func (b BackendConfig) InitialDelay() time.Duration {
	return parseDurationOr(b.RetryInitialDelay, DefaultRetryInitialDelay)
}

// MaxDelay returns the parsed backoff cap.
func (b BackendConfig) MaxDelay() time.Duration {
	return parseDurationOr(b.RetryMaxDelay, DefaultRetryMaxDelay)
}

// ProfileWindow returns the profile revalidation window.
func (r RevalidateConfig) ProfileWindow() time.Duration {
	return windowOr(r.Profile, DefaultProfileWindow)
}

// ServicesWindow returns the services revalidation window.
func (r RevalidateConfig) ServicesWindow() time.Duration {
	return windowOr(r.Services, DefaultServicesWindow)
}

// ProductsWindow returns the products revalidation window.
func (r RevalidateConfig) ProductsWindow() time.Duration {
	return windowOr(r.Products, DefaultProductsWindow)
}

// ProjectsWindow returns the projects revalidation window.
func (r RevalidateConfig) ProjectsWindow() time.Duration {
	return windowOr(r.Projects, DefaultProjectsWindow)
}

// parseDurationOr is for durations where zero is meaningless (timeouts,
// delays); anything non-positive falls back.
func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// windowOr preserves an explicit zero: a "0s" revalidation window disables
// response caching for that resource. Only unset or invalid falls back.
func windowOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
