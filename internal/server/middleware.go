package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsites/sitebuilder/internal/errors"
	"github.com/fieldsites/sitebuilder/internal/logfields"
	"github.com/fieldsites/sitebuilder/internal/observability"
	"github.com/fieldsites/sitebuilder/internal/tenant"
)

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRecovery turns handler panics into 500s instead of dropped connections.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					logfields.Route(r.URL.Path),
					slog.Any("panic", rec))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withRequestLogging assigns a request ID and logs one line per request.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := observability.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.Info("request",
			logfields.RequestID(requestID),
			slog.String("method", r.Method),
			logfields.Route(r.URL.Path),
			logfields.Host(r.Host),
			logfields.Status(rec.status),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	})
}

// withTenant resolves the Host header and stores the resolution in the
// request context. An unresolved host is an explicit 404, never a silent
// default business.
func (s *Server) withTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := s.resolver.Resolve(r.Host)
		if err != nil {
			s.errAdapter.WriteErrorResponse(w, r, err)
			return
		}
		ctx := tenant.WithResolution(r.Context(), res)
		ctx = observability.WithBusinessID(ctx, res.BusinessID)
		ctx = observability.WithHost(ctx, res.Host)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolutionFrom pulls the tenant resolution back out for handlers.
func (s *Server) resolutionFrom(w http.ResponseWriter, r *http.Request) (tenant.Resolution, bool) {
	res, err := tenant.FromContext(r.Context())
	if err != nil {
		s.errAdapter.WriteErrorResponse(w, r, errors.InternalError("request missing tenant resolution", err))
		return tenant.Resolution{}, false
	}
	return res, true
}
