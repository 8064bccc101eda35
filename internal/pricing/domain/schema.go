package domain

// Models lists the pricing tables in dependency order.
func Models() []any {
	return []any{
		&PricingConfig{},
		&PricingVersion{},
		&Factor{},
		&TimeSlot{},
		&CampaignPricingSnapshot{},
	}
}
