package backend

// DevelopmentFallbackProfile returns the placeholder profile served when no
// backend URL is configured and AllowFallbackProfile is set. It exists for
// local development against an empty environment and is unreachable once a
// real backend is configured; production tenants must never see it.
func DevelopmentFallbackProfile(businessID string) *BusinessProfile {
	id := businessID
	if id == "" {
		id = "dev-business"
	}
	return &BusinessProfile{
		ID:               id,
		Name:             "Demo Field Services",
		Trade:            "general",
		Phone:            "(555) 010-0000",
		Email:            "hello@demo.invalid",
		Address:          "100 Main St",
		City:             "Springfield",
		State:            "IL",
		Zip:              "62701",
		YearsInBusiness:  10,
		Insured:          true,
		ServiceAreas:     []string{"Springfield"},
		EmergencyService: false,
	}
}
