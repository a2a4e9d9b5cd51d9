// Package content turns a business profile plus its trade rule table into
// the presentation content for a site. Generation is pure: no I/O, no
// clocks, no randomness. The same input always produces the same output,
// which makes bundles safely cacheable and diffable.
package content

// BusinessInfo is the identity block rendered in headers and footers.
type BusinessInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Trade   string `json:"trade"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

// HeroContent is the above-the-fold block.
type HeroContent struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline,omitempty"`
	// EmergencyMessage is present only when the trade taxonomy carries an
	// emergency category.
	EmergencyMessage string `json:"emergency_message,omitempty"`
	CTALabel         string `json:"cta_label,omitempty"`
}

// CategorizedService is one service rendered inside a category.
type CategorizedService struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	// DescriptionHTML is the markdown-rendered description.
	DescriptionHTML string `json:"description_html,omitempty"`
	PriceDisplay    string `json:"price_display"`
	ImageURL        string `json:"image_url,omitempty"`
	IsEmergency     bool   `json:"is_emergency,omitempty"`
	IsFeatured      bool   `json:"is_featured,omitempty"`
}

// ServiceCategory groups services under one taxonomy entry.
type ServiceCategory struct {
	Name          string               `json:"name"`
	Slug          string               `json:"slug"`
	IsEmergency   bool                 `json:"is_emergency,omitempty"`
	StartingPrice string               `json:"starting_price"`
	Services      []CategorizedService `json:"services"`
}

// ServicesContent is the categorized catalog section.
type ServicesContent struct {
	Categories []ServiceCategory `json:"categories"`
}

// AboutContent is the company story section.
type AboutContent struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	// YearsLabel is "N+ Years" when a numeric tier resolved, otherwise the
	// generic experience label.
	YearsLabel string `json:"years_label"`
	// Years is present only when derived from established_year or the
	// stored years_in_business field.
	Years        int      `json:"years,omitempty"`
	ServiceAreas []string `json:"service_areas,omitempty"`
}

// TrustContent carries the credibility signals.
type TrustContent struct {
	LicenseNumber  string   `json:"license_number,omitempty"`
	Insured        bool     `json:"insured"`
	AverageRating  float64  `json:"average_rating,omitempty"`
	ReviewCount    int      `json:"review_count,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
}

// SEOContent is the head metadata plus schema.org structured data.
type SEOContent struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	StructuredData LocalBusiness `json:"structured_data"`
}

// LocalBusiness is the schema.org/LocalBusiness payload. It is assembled
// from the same profile fields as the hero and about sections.
type LocalBusiness struct {
	Context         string           `json:"@context"`
	Type            string           `json:"@type"`
	Name            string           `json:"name"`
	Telephone       string           `json:"telephone,omitempty"`
	Email           string           `json:"email,omitempty"`
	URL             string           `json:"url,omitempty"`
	Image           string           `json:"image,omitempty"`
	Address         *PostalAddress   `json:"address,omitempty"`
	AggregateRating *AggregateRating `json:"aggregateRating,omitempty"`
	AreaServed      []string         `json:"areaServed,omitempty"`
}

// PostalAddress is the schema.org address node.
type PostalAddress struct {
	Type            string `json:"@type"`
	StreetAddress   string `json:"streetAddress,omitempty"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressRegion   string `json:"addressRegion,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
}

// AggregateRating is the schema.org rating node, present only with reviews.
type AggregateRating struct {
	Type        string  `json:"@type"`
	RatingValue float64 `json:"ratingValue"`
	ReviewCount int     `json:"reviewCount"`
}

// BookingContent carries scheduling policy for the booking widget.
type BookingContent struct {
	LeadTimeHours          int  `json:"lead_time_hours"`
	EmergencyLeadTimeHours int  `json:"emergency_lead_time_hours,omitempty"`
	EmergencyAvailable     bool `json:"emergency_available"`
}

// ColorScheme is the resolved palette: business override first, trade
// default second, never the reverse.
type ColorScheme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// GeneratedContent is the full derived output. It is a projection of
// profile plus trade configuration, recomputed on every pass and never
// treated as a source of truth.
type GeneratedContent struct {
	Business BusinessInfo    `json:"business"`
	Hero     HeroContent     `json:"hero"`
	Services ServicesContent `json:"services"`
	About    AboutContent    `json:"about"`
	Trust    TrustContent    `json:"trust"`
	SEO      SEOContent      `json:"seo"`
	Booking  BookingContent  `json:"booking"`
	Colors   ColorScheme     `json:"colors"`
}
