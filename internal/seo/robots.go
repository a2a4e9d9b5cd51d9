package seo

import (
	"strings"
)

// RobotsPolicy is the crawl policy served at /robots.txt. Disallowed paths
// cover the JSON/diagnostics surface, which is not for crawlers.
type RobotsPolicy struct {
	UserAgent  string
	Allow      []string
	Disallow   []string
	SitemapURL string
}

// DefaultRobotsPolicy allows everything except the API surface and points
// crawlers at the tenant's sitemap.
func DefaultRobotsPolicy(baseURL string) RobotsPolicy {
	return RobotsPolicy{
		UserAgent:  "*",
		Allow:      []string{"/"},
		Disallow:   []string{"/api/"},
		SitemapURL: strings.TrimRight(baseURL, "/") + "/sitemap.xml",
	}
}

// Render emits the robots.txt text.
func (p RobotsPolicy) Render() string {
	var b strings.Builder
	b.WriteString("User-agent: " + p.UserAgent + "\n")
	for _, path := range p.Allow {
		b.WriteString("Allow: " + path + "\n")
	}
	for _, path := range p.Disallow {
		b.WriteString("Disallow: " + path + "\n")
	}
	if p.SitemapURL != "" {
		b.WriteString("\nSitemap: " + p.SitemapURL + "\n")
	}
	return b.String()
}
