package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Tenant resolution errors

func UnresolvedHost(host string) *SiteError {
	return New(CategoryTenant, SeverityError, "no business mapped to host").
		WithCode(CodeUnresolvedHost).
		WithContext("host", host)
}

// Upstream backend errors

func UpstreamTimeout(endpoint string, cause error) *SiteError {
	return WrapRetryable(cause, CategoryUpstream, SeverityWarning, "backend request timed out").
		WithCode(CodeUpstreamTimeout).
		WithContext("endpoint", endpoint)
}

func Upstream5xx(endpoint string, status int) *SiteError {
	return Retryable(CategoryUpstream, SeverityWarning, "backend returned server error").
		WithCode(CodeUpstream5xx).
		WithContext("endpoint", endpoint).
		WithContext("status", status)
}

func Upstream4xx(endpoint string, status int) *SiteError {
	return New(CategoryUpstream, SeverityWarning, "backend reports resource absent").
		WithCode(CodeUpstream4xx).
		WithContext("endpoint", endpoint).
		WithContext("status", status)
}

func UpstreamNetwork(endpoint string, cause error) *SiteError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "backend request failed").
		WithContext("endpoint", endpoint)
}

// Aggregation errors

func MissingProfile(businessID string) *SiteError {
	return New(CategoryContent, SeverityError, "business profile unavailable").
		WithCode(CodeMissingProfile).
		WithContext("business_id", businessID)
}

func DegradedCatalog(businessID string, failed []string) *SiteError {
	return New(CategoryContent, SeverityWarning, "one or more catalog resources unavailable").
		WithCode(CodeDegradedCatalog).
		WithContext("business_id", businessID).
		WithContext("failed_resources", failed)
}

// Content and sitemap errors

func UnknownTrade(trade string) *SiteError {
	return New(CategoryContent, SeverityError, "no configuration for trade").
		WithContext("trade", trade)
}

func SitemapDegraded(businessID string, cause error) *SiteError {
	return Wrap(cause, CategorySitemap, SeverityWarning, "sitemap degraded to homepage only").
		WithContext("business_id", businessID)
}

// Store errors

func StoreError(operation string, cause error) *SiteError {
	return Wrap(cause, CategoryStore, SeverityError, "page store operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
