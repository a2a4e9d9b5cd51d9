package seo

import (
	"fmt"

	"github.com/fieldsites/sitebuilder/internal/aggregator"
)

// PageKind classifies a generated route.
type PageKind string

const (
	PageHome            PageKind = "home"
	PageServicesHub     PageKind = "services-hub"
	PageLocationsHub    PageKind = "locations-hub"
	PageService         PageKind = "service"
	PageServiceLocation PageKind = "service-location"
	PageProduct         PageKind = "product"
	PageProject         PageKind = "project"
	PageLocation        PageKind = "location"
	PageAbout           PageKind = "about"
	PageContact         PageKind = "contact"
)

// PageRoute is one entry in the generation manifest: the route a bundle is
// stored under plus the slugs needed to render it.
type PageRoute struct {
	Route        string   `json:"route"`
	Kind         PageKind `json:"kind"`
	ServiceSlug  string   `json:"service_slug,omitempty"`
	LocationSlug string   `json:"location_slug,omitempty"`
	ProductSlug  string   `json:"product_slug,omitempty"`
	ProjectSlug  string   `json:"project_slug,omitempty"`
}

// BuildManifest enumerates every route to generate for a business from its
// aggregation envelope. The route space is a superset of the sitemap URL
// space: products and projects get bundles even though only service pages
// are sitemap-prioritized.
func BuildManifest(env *aggregator.Envelope) []PageRoute {
	routes := []PageRoute{
		{Route: "/", Kind: PageHome},
		{Route: "/services", Kind: PageServicesHub},
		{Route: "/locations", Kind: PageLocationsHub},
		{Route: "/about", Kind: PageAbout},
		{Route: "/contact", Kind: PageContact},
	}
	if env == nil {
		return routes
	}

	var locationSlugs []string
	for _, loc := range env.Locations {
		slug := loc.Slug
		if slug == "" {
			slug = Slugify(loc.Name)
		}
		if slug == "" {
			continue
		}
		locationSlugs = append(locationSlugs, slug)
		routes = append(routes, PageRoute{
			Route:        "/locations/" + slug,
			Kind:         PageLocation,
			LocationSlug: slug,
		})
	}

	for _, svc := range env.Services {
		slug := svc.Slug
		if slug == "" {
			slug = Slugify(svc.Name)
		}
		if slug == "" {
			continue
		}
		routes = append(routes, PageRoute{
			Route:       "/services/" + slug,
			Kind:        PageService,
			ServiceSlug: slug,
		})
		for _, locSlug := range locationSlugs {
			routes = append(routes, PageRoute{
				Route:        fmt.Sprintf("/services/%s/%s", slug, locSlug),
				Kind:         PageServiceLocation,
				ServiceSlug:  slug,
				LocationSlug: locSlug,
			})
		}
	}

	for _, product := range env.Products {
		slug := product.Slug
		if slug == "" {
			slug = Slugify(product.Name)
		}
		if slug == "" {
			continue
		}
		routes = append(routes, PageRoute{
			Route:       "/products/" + slug,
			Kind:        PageProduct,
			ProductSlug: slug,
		})
	}

	for _, project := range env.Projects {
		slug := project.Slug
		if slug == "" {
			slug = Slugify(project.Name)
		}
		if slug == "" {
			continue
		}
		routes = append(routes, PageRoute{
			Route:       "/projects/" + slug,
			Kind:        PageProject,
			ProjectSlug: slug,
		})
	}

	return routes
}
