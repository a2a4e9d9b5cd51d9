// Package backend is the read-only client for the business-management API.
// It owns the retry and timeout behavior for every upstream fetch and the
// per-resource revalidation cache; callers receive decoded models or a
// terminal error, never a partially decoded response.
package backend

// BusinessProfile is the canonical business record, held as a read-only copy
// of what the upstream API returns.
type BusinessProfile struct {
	ID    string `json:"id"`
	Name  string `json:"business_name"`
	Trade string `json:"trade"`

	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`

	EstablishedYear int      `json:"established_year,omitempty"`
	YearsInBusiness int      `json:"years_in_business,omitempty"`
	LicenseNumber   string   `json:"license_number,omitempty"`
	Insured         bool     `json:"insured,omitempty"`
	AverageRating   float64  `json:"average_rating,omitempty"`
	ReviewCount     int      `json:"review_count,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`

	ServiceAreas     []string `json:"service_areas,omitempty"`
	EmergencyService bool     `json:"emergency_service,omitempty"`

	LogoURL     string       `json:"logo_url,omitempty"`
	BrandColors *BrandColors `json:"brand_colors,omitempty"`
	WebsiteURL  string       `json:"website_url,omitempty"`
}

// BrandColors is the operator-set palette override. Any empty field falls
// back to the trade default for that slot.
type BrandColors struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Accent    string `json:"accent,omitempty"`
}

// ServiceItem is one offered service. Slug is the stable URL key.
type ServiceItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	BasePrice   *float64 `json:"base_price,omitempty"`
	PriceType   string   `json:"price_type,omitempty"` // fixed, hourly, quote
	ImageURL    string   `json:"image_url,omitempty"`
	IsEmergency bool     `json:"is_emergency,omitempty"`
	IsFeatured  bool     `json:"is_featured,omitempty"`
}

// ProductItem is one catalog product.
type ProductItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	InStock     bool     `json:"in_stock,omitempty"`
	IsFeatured  bool     `json:"is_featured,omitempty"`
}

// ProjectItem is one portfolio entry.
type ProjectItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	CompletedAt string   `json:"completed_at,omitempty"`
	IsFeatured  bool     `json:"is_featured,omitempty"`
}

// LocationItem is one service-area location.
type LocationItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// CategoryItem is one service category as the backend knows it.
type CategoryItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// MembershipPlan is one recurring service plan.
type MembershipPlan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Interval string   `json:"interval,omitempty"` // monthly, yearly
	Benefits []string `json:"benefits,omitempty"`
}
