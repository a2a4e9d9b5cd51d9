package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter handles error presentation and status code determination for HTTP handlers.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter with an optional slog logger.
// If logger is nil, the default package logger will be used.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse represents a standard JSON error payload.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor determines the HTTP status code for a given error based on
// its classification. Unknown errors map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	se, ok := err.(*SiteError)
	if !ok {
		return http.StatusInternalServerError
	}

	// An unresolved host is an explicit not-found, never a silent default.
	if se.Code == CodeUnresolvedHost {
		return http.StatusNotFound
	}
	// A missing profile fails the page with diagnostics attached.
	if se.Code == CodeMissingProfile {
		return http.StatusBadGateway
	}

	switch se.Category {
	case CategoryValidation, CategoryConfig:
		return http.StatusBadRequest
	case CategoryTenant:
		return http.StatusNotFound
	case CategoryUpstream, CategoryNetwork:
		return http.StatusBadGateway
	case CategoryContent, CategorySitemap:
		return http.StatusUnprocessableEntity
	case CategoryStore, CategoryInternal:
		return http.StatusInternalServerError
	case CategoryRuntime:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response and logs with appropriate level.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	payload := a.FormatErrorResponse(err)

	b, jerr := json.Marshal(payload)
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{\"error\":\"internal error\"}"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)

	if se, ok := err.(*SiteError); ok {
		a.logger.Log(r.Context(), a.slogLevelFromSeverity(se.Severity), se.Error())
		return
	}
	a.logger.Error(err.Error())
}

// FormatErrorResponse converts known errors into a canonical error payload.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{Error: ""}
	}
	if se, ok := err.(*SiteError); ok {
		resp := HTTPErrorResponse{Error: se.Message, Code: string(se.Code), Retryable: se.Retryable}
		if resp.Code == "" {
			resp.Code = string(se.Category)
		}
		if len(se.Context) > 0 {
			resp.Details = map[string]any(se.Context)
		}
		return resp
	}
	return HTTPErrorResponse{Error: err.Error()}
}

// Helper: map severities.
func (a *HTTPErrorAdapter) slogLevelFromSeverity(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError, SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
