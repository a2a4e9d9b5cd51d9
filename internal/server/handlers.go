package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fieldsites/sitebuilder/internal/aggregator"
	"github.com/fieldsites/sitebuilder/internal/logfields"
	"github.com/fieldsites/sitebuilder/internal/seo"
)

// baseURLFor reconstructs the tenant's absolute base URL from the request,
// honoring the proxy's forwarded scheme.
func baseURLFor(r *http.Request, host string) string {
	scheme := "https"
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	} else if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + host
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolutionFrom(w, r)
	if !ok {
		return
	}

	entries, err := s.sitemaps.Build(r.Context(), res.BusinessID, baseURLFor(r, res.Host))
	if err != nil {
		s.errAdapter.WriteErrorResponse(w, r, err)
		return
	}
	body, err := seo.RenderXML(entries)
	if err != nil {
		s.errAdapter.WriteErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolutionFrom(w, r)
	if !ok {
		return
	}
	policy := seo.DefaultRobotsPolicy(baseURLFor(r, res.Host))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(policy.Render()))
}

// handlePage serves a stored page bundle. When no bundle exists yet the
// server regenerates the business once and retries, so a fresh tenant's
// first request does not 404.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolutionFrom(w, r)
	if !ok {
		return
	}

	route := strings.TrimPrefix(r.URL.Path, "/api/page")
	if route == "" {
		route = "/"
	}

	bundle, err := s.store.Get(r.Context(), res.BusinessID, route)
	if err != nil {
		s.errAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if bundle == nil {
		if _, err := s.regenerator.Regenerate(r.Context(), res.BusinessID); err != nil {
			s.errAdapter.WriteErrorResponse(w, r, err)
			return
		}
		bundle, err = s.store.Get(r.Context(), res.BusinessID, route)
		if err != nil {
			s.errAdapter.WriteErrorResponse(w, r, err)
			return
		}
	}
	if bundle == nil {
		s.logger.Debug("no bundle for route",
			logfields.BusinessID(res.BusinessID),
			logfields.Route(route))
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(bundle.Payload)
}

// handleDiagnostics runs a full aggregation and returns the diagnostics
// envelope, bypassing stored bundles. Failures still produce a body; that
// is the endpoint's purpose.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	res, ok := s.resolutionFrom(w, r)
	if !ok {
		return
	}

	env, err := s.agg.Load(r.Context(), res.BusinessID, aggregator.LoadOptions{
		IncludeServices:  true,
		IncludeProducts:  true,
		IncludeProjects:  true,
		IncludeLocations: true,
	})

	status := http.StatusOK
	if err != nil {
		status = s.errAdapter.StatusCodeFor(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Source      string                 `json:"tenant_source"`
		Diagnostics aggregator.Diagnostics `json:"diagnostics"`
	}{
		Source:      string(res.Source),
		Diagnostics: env.Diagnostics,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
