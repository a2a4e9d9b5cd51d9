package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBusinessID = "business_id"
	KeyHost       = "host"
	KeySource     = "tenant_source"
	KeyResource   = "resource"
	KeyEndpoint   = "endpoint"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRoute      = "route"
	KeyTrade      = "trade"
	KeyRequestID  = "request_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BusinessID(id string) slog.Attr  { return slog.String(KeyBusinessID, id) }
func Host(h string) slog.Attr         { return slog.String(KeyHost, h) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Resource(r string) slog.Attr     { return slog.String(KeyResource, r) }
func Endpoint(e string) slog.Attr     { return slog.String(KeyEndpoint, e) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func Trade(t string) slog.Attr        { return slog.String(KeyTrade, t) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
