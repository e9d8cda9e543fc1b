// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

const (
	// UnknownPricing is the pricing model used when none could be determined.
	UnknownPricing = "Unknown"

	// UnknownName is the placeholder name for a candidate with no better name.
	UnknownName = "Unknown"
)

// CompanyAnalysis is the structured output requested from the text-generation
// service when analysing a scraped page.
type CompanyAnalysis struct {
	// PricingModel is e.g. "Free", "Freemium", "Paid", "Enterprise" or UnknownPricing.
	PricingModel string `json:"pricing_model" yaml:"pricing_model"`

	// Description is a short summary of what the tool does.
	Description string `json:"description" yaml:"description"`

	IsOpenSource TriState `json:"is_open_source" yaml:"is_open_source"`
	APIAvailable TriState `json:"api_available" yaml:"api_available"`

	TechStack               []string `json:"tech_stack" yaml:"tech_stack"`
	LanguageSupport         []string `json:"language_support" yaml:"language_support"`
	IntegrationCapabilities []string `json:"integration_capabilities" yaml:"integration_capabilities"`
	Competitors             []string `json:"competitors" yaml:"competitors"`

	// DeveloperExperienceRating is a free-form rating such as "Good". Empty when unknown.
	DeveloperExperienceRating string `json:"developer_experience_rating" yaml:"developer_experience_rating"`
}

// DefaultAnalysis returns the analysis substituted when structured generation
// fails: unknown pricing, unknown booleans and empty collections.
func DefaultAnalysis() CompanyAnalysis {
	return CompanyAnalysis{
		PricingModel:            UnknownPricing,
		TechStack:               []string{},
		LanguageSupport:         []string{},
		IntegrationCapabilities: []string{},
		Competitors:             []string{},
	}
}

// CompanyProfile is one researched tool or company.
type CompanyProfile struct {
	Name        string `json:"name" yaml:"name"`
	Website     string `json:"website" yaml:"website"`
	Description string `json:"description" yaml:"description"`

	// PricingModel is UnknownPricing when undetermined.
	PricingModel string `json:"pricing_model" yaml:"pricing_model"`

	IsOpenSource TriState `json:"is_open_source" yaml:"is_open_source"`
	APIAvailable TriState `json:"api_available" yaml:"api_available"`

	TechStack               []string `json:"tech_stack" yaml:"tech_stack"`
	LanguageSupport         []string `json:"language_support" yaml:"language_support"`
	IntegrationCapabilities []string `json:"integration_capabilities" yaml:"integration_capabilities"`
	Competitors             []string `json:"competitors" yaml:"competitors"`

	DeveloperExperienceRating string `json:"developer_experience_rating,omitempty" yaml:"developer_experience_rating,omitempty"`
}

// NewCompanyProfile builds a profile for name from an analysis. The fallback
// description is used when the analysis has none. Every field is initialised:
// a blank name becomes UnknownName, a blank pricing model becomes
// UnknownPricing and collections are normalised to non-nil sets.
func NewCompanyProfile(name, website, fallbackDescription string, a CompanyAnalysis) CompanyProfile {
	name = strings.TrimSpace(name)
	if name == "" {
		name = UnknownName
	}
	pricing := strings.TrimSpace(a.PricingModel)
	if pricing == "" {
		pricing = UnknownPricing
	}
	desc := strings.TrimSpace(a.Description)
	if desc == "" {
		desc = strings.TrimSpace(fallbackDescription)
	}

	return CompanyProfile{
		Name:                      name,
		Website:                   strings.TrimSpace(website),
		Description:               desc,
		PricingModel:              pricing,
		IsOpenSource:              a.IsOpenSource,
		APIAvailable:              a.APIAvailable,
		TechStack:                 NormalizeSet(a.TechStack),
		LanguageSupport:           NormalizeSet(a.LanguageSupport),
		IntegrationCapabilities:   NormalizeSet(a.IntegrationCapabilities),
		Competitors:               NormalizeSet(a.Competitors),
		DeveloperExperienceRating: strings.TrimSpace(a.DeveloperExperienceRating),
	}
}

// NormalizeSet trims entries, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling seen. It never returns nil.
func NormalizeSet(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
