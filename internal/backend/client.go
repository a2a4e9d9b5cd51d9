package backend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fieldsites/sitebuilder/internal/config"
	"github.com/fieldsites/sitebuilder/internal/errors"
	"github.com/fieldsites/sitebuilder/internal/logfields"
	"github.com/fieldsites/sitebuilder/internal/metrics"
	"github.com/fieldsites/sitebuilder/internal/retry"
)

// Resource names used for cache keys, metrics labels, and diagnostics.
const (
	ResourceProfile    = "profile"
	ResourceServices   = "services"
	ResourceProducts   = "products"
	ResourceProjects   = "projects"
	ResourceLocations  = "locations"
	ResourceCategories = "categories"
	ResourcePlans      = "membership-plans"
)

// FetchOptions narrows list endpoints. The zero value fetches everything.
type FetchOptions struct {
	FeaturedOnly bool
	Limit        int
}

// Client fetches JSON resources from the business-management API with
// per-attempt timeouts, bounded retries, and per-resource revalidation
// caching. All configuration is injected at construction; there is no
// package-level state.
type Client struct {
	baseURL      string
	fallbackOnly bool

	httpClient *http.Client
	timeout    time.Duration
	policy     retry.Policy
	windows    config.RevalidateConfig

	cache   *ttlCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewClient builds a client from the backend and revalidation config
// sections. An empty base URL is only legal with AllowFallbackProfile set,
// in which case the client serves the development fallback profile and
// empty catalogs without touching the network.
func NewClient(backend config.BackendConfig, windows config.RevalidateConfig, logger *slog.Logger, rec metrics.Recorder) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if backend.BaseURL == "" && !backend.AllowFallbackProfile {
		return nil, errors.ConfigRequired("backend.base_url")
	}

	timeout := backend.FetchTimeout()
	return &Client{
		baseURL:      strings.TrimRight(backend.BaseURL, "/"),
		fallbackOnly: backend.BaseURL == "" && backend.AllowFallbackProfile,
		httpClient:   &http.Client{},
		timeout:      timeout,
		policy:       retry.FromBackend(backend),
		windows:      windows,
		cache:        newTTLCache(),
		logger:       logger,
		metrics:      rec,
	}, nil
}

// BaseURL returns the configured upstream base URL, empty in fallback mode.
func (c *Client) BaseURL() string { return c.baseURL }

// FallbackOnly reports whether the client serves the development fallback
// profile instead of a real backend.
func (c *Client) FallbackOnly() bool { return c.fallbackOnly }

// Invalidate drops cached responses for one business so the next fetch goes
// upstream. Scheduled revalidation and the generate command call this before
// regenerating to force fresh data.
func (c *Client) Invalidate(businessID string) {
	c.cache.invalidatePrefix(fmt.Sprintf("/api/public/businesses/%s/", url.PathEscape(businessID)))
}

// FetchProfile returns the business profile. A failed profile fetch is fatal
// to page generation, so the terminal error is returned alongside the nil
// profile for the aggregator to classify.
func (c *Client) FetchProfile(ctx context.Context, businessID string) (*BusinessProfile, error) {
	if c.fallbackOnly {
		return DevelopmentFallbackProfile(businessID), nil
	}
	var profile BusinessProfile
	endpoint := c.endpoint(businessID, ResourceProfile, FetchOptions{})
	if err := c.fetchJSON(ctx, ResourceProfile, endpoint, c.windows.ProfileWindow(), &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		profile.ID = businessID
	}
	return &profile, nil
}

// FetchServices returns the service catalog.
func (c *Client) FetchServices(ctx context.Context, businessID string, opts FetchOptions) ([]ServiceItem, error) {
	if c.fallbackOnly {
		return []ServiceItem{}, nil
	}
	var services []ServiceItem
	endpoint := c.endpoint(businessID, ResourceServices, opts)
	if err := c.fetchJSON(ctx, ResourceServices, endpoint, c.windows.ServicesWindow(), &services); err != nil {
		return nil, err
	}
	return services, nil
}

// FetchProducts returns the product catalog.
func (c *Client) FetchProducts(ctx context.Context, businessID string, opts FetchOptions) ([]ProductItem, error) {
	if c.fallbackOnly {
		return []ProductItem{}, nil
	}
	var products []ProductItem
	endpoint := c.endpoint(businessID, ResourceProducts, opts)
	if err := c.fetchJSON(ctx, ResourceProducts, endpoint, c.windows.ProductsWindow(), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// FetchProjects returns the project portfolio.
func (c *Client) FetchProjects(ctx context.Context, businessID string, opts FetchOptions) ([]ProjectItem, error) {
	if c.fallbackOnly {
		return []ProjectItem{}, nil
	}
	var projects []ProjectItem
	endpoint := c.endpoint(businessID, ResourceProjects, opts)
	if err := c.fetchJSON(ctx, ResourceProjects, endpoint, c.windows.ProjectsWindow(), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// FetchLocations returns the service-area locations. Locations share the
// services window; they change at most as often as the catalog.
func (c *Client) FetchLocations(ctx context.Context, businessID string) ([]LocationItem, error) {
	if c.fallbackOnly {
		return []LocationItem{}, nil
	}
	var locations []LocationItem
	endpoint := c.endpoint(businessID, ResourceLocations, FetchOptions{})
	if err := c.fetchJSON(ctx, ResourceLocations, endpoint, c.windows.ServicesWindow(), &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// FetchCategories returns the backend's category records.
func (c *Client) FetchCategories(ctx context.Context, businessID string) ([]CategoryItem, error) {
	if c.fallbackOnly {
		return []CategoryItem{}, nil
	}
	var categories []CategoryItem
	endpoint := c.endpoint(businessID, ResourceCategories, FetchOptions{})
	if err := c.fetchJSON(ctx, ResourceCategories, endpoint, c.windows.ServicesWindow(), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// FetchMembershipPlans returns the recurring service plans.
func (c *Client) FetchMembershipPlans(ctx context.Context, businessID string) ([]MembershipPlan, error) {
	if c.fallbackOnly {
		return []MembershipPlan{}, nil
	}
	var plans []MembershipPlan
	endpoint := c.endpoint(businessID, ResourcePlans, FetchOptions{})
	if err := c.fetchJSON(ctx, ResourcePlans, endpoint, c.windows.ServicesWindow(), &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *Client) endpoint(businessID, resource string, opts FetchOptions) string {
	path := fmt.Sprintf("/api/public/businesses/%s/%s", url.PathEscape(businessID), resource)
	query := url.Values{}
	if opts.FeaturedOnly {
		query.Set("featured_only", "true")
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path
}

// fetchJSON performs one logical fetch: cache lookup, then up to
// 1+MaxRetries attempts with per-attempt timeouts. Client errors (4xx) stop
// immediately; server errors and network failures are retried with backoff.
// The terminal error is returned after logging; callers decide criticality.
func (c *Client) fetchJSON(ctx context.Context, resource, endpoint string, ttl time.Duration, out any) error {
	if body, ok := c.cache.get(endpoint); ok {
		return json.Unmarshal(body, out)
	}

	start := time.Now()
	machine := retry.NewMachine(c.policy)
	var lastErr error

	for !machine.Done() {
		attempt := machine.Attempt()
		c.metrics.IncFetchAttempt(resource)

		body, outcome, err := c.attempt(ctx, endpoint)
		machine.Observe(outcome)
		lastErr = err

		if outcome == retry.OutcomeSuccess {
			c.metrics.ObserveFetchDuration(resource, time.Since(start), true)
			if err := json.Unmarshal(body, out); err != nil {
				return errors.Wrap(err, errors.CategoryUpstream, errors.SeverityError,
					fmt.Sprintf("decode %s response", resource))
			}
			c.cache.put(endpoint, body, ttl)
			return nil
		}

		if machine.State() == retry.StateBackoff {
			delay := machine.BackoffDelay()
			c.metrics.IncFetchRetry(resource)
			c.logger.Warn("fetch failed, backing off",
				logfields.Resource(resource),
				logfields.Endpoint(endpoint),
				logfields.Attempt(attempt),
				slog.Duration("backoff", delay),
				logfields.Error(err))

			select {
			case <-ctx.Done():
				machine.Cancel()
				c.metrics.ObserveFetchDuration(resource, time.Since(start), false)
				return errors.WrapRetryable(ctx.Err(), errors.CategoryNetwork, errors.SeverityWarning,
					fmt.Sprintf("fetch %s canceled during backoff", resource))
			case <-time.After(delay):
				machine.Next()
			}
		}
	}

	c.metrics.ObserveFetchDuration(resource, time.Since(start), false)
	if errors.IsRetryable(lastErr) {
		c.metrics.IncRetryExhausted(resource)
	}
	c.logger.Error("fetch exhausted",
		logfields.Resource(resource),
		logfields.Endpoint(endpoint),
		logfields.Attempt(machine.Attempts()),
		logfields.Error(lastErr))
	return lastErr
}

// attempt performs a single HTTP GET bounded by the per-attempt timeout and
// classifies the result for the retry machine.
func (c *Client) attempt(ctx context.Context, endpoint string) ([]byte, retry.Outcome, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, retry.OutcomeFatal,
			errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, retry.OutcomeRetryable, errors.UpstreamTimeout(endpoint, err)
		}
		return nil, retry.OutcomeRetryable, errors.UpstreamNetwork(endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, retry.OutcomeRetryable, errors.Upstream5xx(endpoint, resp.StatusCode)
	case resp.StatusCode >= 400:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, retry.OutcomeFatal, errors.Upstream4xx(endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.OutcomeRetryable,
			errors.WrapRetryable(err, errors.CategoryNetwork, errors.SeverityWarning, "read response body")
	}
	return body, retry.OutcomeSuccess, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}
