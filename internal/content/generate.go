package content

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fieldsites/sitebuilder/internal/backend"
	"github.com/fieldsites/sitebuilder/internal/errors"
	"github.com/fieldsites/sitebuilder/internal/seo"
	"github.com/fieldsites/sitebuilder/internal/trades"
)

// Input is everything Generate needs. CurrentYear is injected so the
// years-in-business math never reads a clock inside the pure function.
type Input struct {
	Profile     *backend.BusinessProfile
	Services    []backend.ServiceItem
	Trade       trades.TradeConfiguration
	CurrentYear int
}

// FreeEstimate is the price display for services without pricing.
const FreeEstimate = "Free Estimate"

var markdown = goldmark.New()

// titleCase builds a fresh Caser per call. cases.Caser carries internal
// transform state and must not be shared across goroutines; Generate runs
// concurrently from the scheduler and the on-demand handler.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Generate derives the full presentation content. It never fabricates
// profile data: a nil profile is an error, enforced here as the last line
// of defense behind the aggregator's fatal-profile handling.
func Generate(in Input) (*GeneratedContent, error) {
	profile := in.Profile
	if profile == nil {
		return nil, errors.MissingProfile("")
	}
	tc := in.Trade

	out := &GeneratedContent{
		Business: BusinessInfo{
			ID:      profile.ID,
			Name:    profile.Name,
			Trade:   profile.Trade,
			Phone:   profile.Phone,
			Email:   profile.Email,
			Address: profile.Address,
			City:    profile.City,
			State:   profile.State,
			Zip:     profile.Zip,
			LogoURL: profile.LogoURL,
		},
		Hero:     generateHero(profile, tc),
		Services: categorizeServices(in.Services, tc),
		About:    generateAbout(profile, tc, in.CurrentYear),
		Trust:    generateTrust(profile, tc),
		Booking:  generateBooking(profile, tc),
		Colors:   resolveColors(profile, tc),
	}
	out.SEO = generateSEO(profile, tc)
	return out, nil
}

// substitute fills the {trade}, {city}, and {business} placeholders.
func substitute(template string, profile *backend.BusinessProfile) string {
	r := strings.NewReplacer(
		"{trade}", titleCase(profile.Trade),
		"{city}", profile.City,
		"{business}", profile.Name,
	)
	return r.Replace(template)
}

func generateHero(profile *backend.BusinessProfile, tc trades.TradeConfiguration) HeroContent {
	hero := HeroContent{
		Headline:    substitute(tc.Hero.HeadlineTemplate, profile),
		Subheadline: substitute(tc.Hero.SubheadlineTemplate, profile),
		CTALabel:    tc.Hero.CTALabel,
	}
	if tc.Hero.EmergencyMessage != "" && tc.HasEmergencyCategory() {
		hero.EmergencyMessage = tc.Hero.EmergencyMessage
	}
	return hero
}

// categorizeServices assigns services to the trade taxonomy. The taxonomy
// is the source of truth: explicit category matches win, keyword matches
// second, and anything left lands in a trailing catch-all bucket.
func categorizeServices(services []backend.ServiceItem, tc trades.TradeConfiguration) ServicesContent {
	assigned := make(map[string]bool, len(services))
	var categories []ServiceCategory

	for _, cat := range tc.Categories {
		var members []backend.ServiceItem
		for _, svc := range services {
			if assigned[svc.ID] {
				continue
			}
			if matchesCategory(svc, cat) {
				members = append(members, svc)
				assigned[svc.ID] = true
			}
		}
		if len(members) == 0 {
			continue
		}
		categories = append(categories, buildCategory(cat.Name, cat.Slug, cat.IsEmergency, members))
	}

	var leftover []backend.ServiceItem
	for _, svc := range services {
		if !assigned[svc.ID] {
			leftover = append(leftover, svc)
		}
	}
	if len(leftover) > 0 {
		categories = append(categories, buildCategory("More Services", "more-services", false, leftover))
	}

	return ServicesContent{Categories: categories}
}

func matchesCategory(svc backend.ServiceItem, cat trades.CategoryConfig) bool {
	if svc.Category != "" {
		return strings.EqualFold(svc.Category, cat.Name) || seo.Slugify(svc.Category) == cat.Slug
	}
	haystack := strings.ToLower(svc.Name + " " + svc.Description)
	for _, kw := range cat.Keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func buildCategory(name, slug string, emergency bool, members []backend.ServiceItem) ServiceCategory {
	cat := ServiceCategory{
		Name:          name,
		Slug:          slug,
		IsEmergency:   emergency,
		StartingPrice: startingPrice(members),
	}
	for _, svc := range members {
		cat.Services = append(cat.Services, CategorizedService{
			Name:            svc.Name,
			Slug:            serviceSlug(svc),
			Description:     svc.Description,
			DescriptionHTML: renderMarkdown(svc.Description),
			PriceDisplay:    priceDisplay(svc.BasePrice, svc.PriceType),
			ImageURL:        svc.ImageURL,
			IsEmergency:     svc.IsEmergency,
			IsFeatured:      svc.IsFeatured,
		})
	}
	return cat
}

func serviceSlug(svc backend.ServiceItem) string {
	if svc.Slug != "" {
		return svc.Slug
	}
	return seo.Slugify(svc.Name)
}

// startingPrice is the minimum base price across the category's services,
// formatted per the minimum service's price type.
func startingPrice(members []backend.ServiceItem) string {
	var min *backend.ServiceItem
	for i := range members {
		if members[i].BasePrice == nil {
			continue
		}
		if min == nil || *members[i].BasePrice < *min.BasePrice {
			min = &members[i]
		}
	}
	if min == nil {
		return FreeEstimate
	}
	return priceDisplay(min.BasePrice, min.PriceType)
}

// priceDisplay renders one price: fixed prices as "$N", hourly as "$N/hr",
// anything else as "From $N", and no price as the free-estimate label.
func priceDisplay(price *float64, priceType string) string {
	if price == nil {
		return FreeEstimate
	}
	n := strconv.FormatFloat(*price, 'f', -1, 64)
	switch priceType {
	case "fixed":
		return "$" + n
	case "hourly":
		return "$" + n + "/hr"
	default:
		return "From $" + n
	}
}

func renderMarkdown(description string) string {
	if description == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(description), &buf); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

// generateAbout applies the three-tier years fallback: established-year
// math first, the stored years field second, the generic label last. The
// numeric Years field is set only by the first two tiers.
func generateAbout(profile *backend.BusinessProfile, tc trades.TradeConfiguration, currentYear int) AboutContent {
	about := AboutContent{
		Heading:      "About " + profile.Name,
		ServiceAreas: profile.ServiceAreas,
	}

	switch {
	case profile.EstablishedYear > 0 && currentYear >= profile.EstablishedYear:
		about.Years = currentYear - profile.EstablishedYear
		about.YearsLabel = fmt.Sprintf("%d+ Years", about.Years)
	case profile.YearsInBusiness > 0:
		about.Years = profile.YearsInBusiness
		about.YearsLabel = fmt.Sprintf("%d+ Years", about.Years)
	default:
		about.YearsLabel = "Experienced"
	}

	displayTrade := tc.DisplayName
	if displayTrade == "" {
		displayTrade = titleCase(profile.Trade)
	}
	if about.Years > 0 {
		about.Body = fmt.Sprintf("%s has served %s for over %d years, providing professional %s services you can count on.",
			profile.Name, profile.City, about.Years, strings.ToLower(displayTrade))
	} else {
		about.Body = fmt.Sprintf("%s is an experienced %s company proudly serving %s.",
			profile.Name, strings.ToLower(displayTrade), profile.City)
	}
	return about
}

func generateTrust(profile *backend.BusinessProfile, tc trades.TradeConfiguration) TrustContent {
	certs := profile.Certifications
	if len(certs) == 0 {
		certs = tc.Certifications
	}
	return TrustContent{
		LicenseNumber:  profile.LicenseNumber,
		Insured:        profile.Insured,
		AverageRating:  profile.AverageRating,
		ReviewCount:    profile.ReviewCount,
		Certifications: certs,
	}
}

func generateSEO(profile *backend.BusinessProfile, tc trades.TradeConfiguration) SEOContent {
	business := LocalBusiness{
		Context:    "https://schema.org",
		Type:       "LocalBusiness",
		Name:       profile.Name,
		Telephone:  profile.Phone,
		Email:      profile.Email,
		URL:        profile.WebsiteURL,
		Image:      profile.LogoURL,
		AreaServed: profile.ServiceAreas,
	}
	if profile.Address != "" || profile.City != "" {
		business.Address = &PostalAddress{
			Type:            "PostalAddress",
			StreetAddress:   profile.Address,
			AddressLocality: profile.City,
			AddressRegion:   profile.State,
			PostalCode:      profile.Zip,
		}
	}
	if profile.ReviewCount > 0 {
		business.AggregateRating = &AggregateRating{
			Type:        "AggregateRating",
			RatingValue: profile.AverageRating,
			ReviewCount: profile.ReviewCount,
		}
	}

	return SEOContent{
		Title:          substitute(tc.SEO.TitleTemplate, profile),
		Description:    substitute(tc.SEO.DescriptionTemplate, profile),
		StructuredData: business,
	}
}

func generateBooking(profile *backend.BusinessProfile, tc trades.TradeConfiguration) BookingContent {
	return BookingContent{
		LeadTimeHours:          tc.Booking.LeadTimeHours,
		EmergencyLeadTimeHours: tc.Booking.EmergencyLeadTimeHours,
		EmergencyAvailable:     profile.EmergencyService && tc.HasEmergencyCategory(),
	}
}

// resolveColors prefers the operator-set brand colors slot by slot, with
// the trade palette filling the gaps.
func resolveColors(profile *backend.BusinessProfile, tc trades.TradeConfiguration) ColorScheme {
	colors := ColorScheme{
		Primary:   tc.Palette.Primary,
		Secondary: tc.Palette.Secondary,
		Accent:    tc.Palette.Accent,
	}
	if profile.BrandColors == nil {
		return colors
	}
	if profile.BrandColors.Primary != "" {
		colors.Primary = profile.BrandColors.Primary
	}
	if profile.BrandColors.Secondary != "" {
		colors.Secondary = profile.BrandColors.Secondary
	}
	if profile.BrandColors.Accent != "" {
		colors.Accent = profile.BrandColors.Accent
	}
	return colors
}
