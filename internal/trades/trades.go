// Package trades holds the static per-trade rule tables: hero templates,
// category taxonomy, certifications, palettes, SEO templates, and booking
// policy. The tables ship with the binary and are not editable at runtime.
package trades

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/fieldsites/sitebuilder/internal/errors"
)

//go:embed trades.yaml
var tradesFS embed.FS

// HeroConfig supplies the headline templates. Templates use {trade} and
// {city} placeholders, substituted at generation time.
type HeroConfig struct {
	HeadlineTemplate    string `yaml:"headline_template"`
	SubheadlineTemplate string `yaml:"subheadline_template,omitempty"`
	// EmergencyMessage is only rendered when the taxonomy actually carries
	// an emergency-flagged category.
	EmergencyMessage string `yaml:"emergency_message,omitempty"`
	CTALabel         string `yaml:"cta_label,omitempty"`
}

// CategoryConfig is one taxonomy entry. Keywords drive service assignment
// when the backend record carries no explicit category.
type CategoryConfig struct {
	Name        string   `yaml:"name"`
	Slug        string   `yaml:"slug"`
	Keywords    []string `yaml:"keywords,omitempty"`
	IsEmergency bool     `yaml:"is_emergency,omitempty"`
}

// Palette is the trade-default color scheme, overridable per business.
type Palette struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
	Accent    string `yaml:"accent"`
}

// SEOTemplates hold the per-trade title/description templates.
type SEOTemplates struct {
	TitleTemplate       string `yaml:"title_template"`
	DescriptionTemplate string `yaml:"description_template"`
}

// BookingPolicy sets scheduling lead times in hours.
type BookingPolicy struct {
	LeadTimeHours          int `yaml:"lead_time_hours"`
	EmergencyLeadTimeHours int `yaml:"emergency_lead_time_hours,omitempty"`
}

// TradeConfiguration is the complete rule table for one trade.
type TradeConfiguration struct {
	Trade          string           `yaml:"trade"`
	DisplayName    string           `yaml:"display_name"`
	Hero           HeroConfig       `yaml:"hero"`
	Categories     []CategoryConfig `yaml:"categories"`
	CoreServices   []string         `yaml:"core_services,omitempty"`
	Certifications []string         `yaml:"certifications,omitempty"`
	Palette        Palette          `yaml:"palette"`
	SEO            SEOTemplates     `yaml:"seo"`
	Booking        BookingPolicy    `yaml:"booking"`
}

// HasEmergencyCategory reports whether the taxonomy carries any
// emergency-flagged category.
func (tc TradeConfiguration) HasEmergencyCategory() bool {
	for _, c := range tc.Categories {
		if c.IsEmergency {
			return true
		}
	}
	return false
}

// IsCoreService reports whether a service slug is on the curated
// core-services allow-list used for sitemap priorities.
func (tc TradeConfiguration) IsCoreService(slug string) bool {
	for _, s := range tc.CoreServices {
		if s == slug {
			return true
		}
	}
	return false
}

// GeneralTrade is the catch-all configuration key.
const GeneralTrade = "general"

// Registry holds the parsed trade tables.
type Registry struct {
	trades map[string]TradeConfiguration
}

// NewRegistry parses the embedded trade tables. Table errors are programmer
// errors caught at startup, never at request time.
func NewRegistry() (*Registry, error) {
	data, err := tradesFS.ReadFile("trades.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded trade tables: %w", err)
	}
	var file struct {
		Trades []TradeConfiguration `yaml:"trades"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse trade tables: %w", err)
	}

	trades := make(map[string]TradeConfiguration, len(file.Trades))
	for _, tc := range file.Trades {
		if tc.Trade == "" {
			return nil, fmt.Errorf("trade table entry missing trade key")
		}
		if tc.Hero.HeadlineTemplate == "" {
			return nil, fmt.Errorf("trade %q missing headline template", tc.Trade)
		}
		if _, dup := trades[tc.Trade]; dup {
			return nil, fmt.Errorf("duplicate trade table entry %q", tc.Trade)
		}
		trades[tc.Trade] = tc
	}
	if _, ok := trades[GeneralTrade]; !ok {
		return nil, fmt.Errorf("trade tables missing the %q catch-all", GeneralTrade)
	}
	return &Registry{trades: trades}, nil
}

// Get returns the configuration for an exact trade key.
func (r *Registry) Get(trade string) (TradeConfiguration, error) {
	tc, ok := r.trades[trade]
	if !ok {
		return TradeConfiguration{}, errors.UnknownTrade(trade)
	}
	return tc, nil
}

// GetOrGeneral returns the trade's configuration, falling back to the
// general table for unknown trades.
func (r *Registry) GetOrGeneral(trade string) TradeConfiguration {
	if tc, ok := r.trades[trade]; ok {
		return tc
	}
	return r.trades[GeneralTrade]
}

// Trades returns the known trade keys, sorted.
func (r *Registry) Trades() []string {
	keys := make([]string, 0, len(r.trades))
	for k := range r.trades {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
