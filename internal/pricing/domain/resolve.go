package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Resolve converts a loaded version into the engine input shape.
func (v *PricingVersion) Resolve() ResolvedVersion {
	factors := append([]Factor(nil), v.Factors...)
	sort.SliceStable(factors, func(i, j int) bool { return factors[i].Position < factors[j].Position })
	slots := append([]TimeSlot(nil), v.TimeSlots...)
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Position < slots[j].Position })

	resolved := ResolvedVersion{
		ID:            v.ID.String(),
		ConfigID:      v.ConfigID.String(),
		VersionNumber: v.VersionNumber,
		Status:        v.Status,
		BasePrice:     v.BasePrice,
		TokenUsdPrice: v.TokenUsdPrice,
		Factors:       make([]FactorRule, 0, len(factors)),
		TimeSlots:     make([]TimeSlotRule, 0, len(slots)),
	}
	for _, f := range factors {
		resolved.Factors = append(resolved.Factors, FactorRule{
			ID:         f.ID.String(),
			Name:       f.Name,
			Key:        f.Key,
			Type:       f.Type,
			Enabled:    f.Enabled,
			Priority:   f.Priority,
			Value:      f.Value,
			Resolution: f.resolution(),
		})
	}
	for _, ts := range slots {
		resolved.TimeSlots = append(resolved.TimeSlots, TimeSlotRule{
			ID:         ts.ID.String(),
			Name:       ts.Name,
			StartTime:  ts.StartTime,
			EndTime:    ts.EndTime,
			Multiplier: ts.Multiplier,
			Priority:   ts.Priority,
		})
	}
	return resolved
}

func (f Factor) resolution() Resolution {
	switch f.Resolution {
	case ResolutionLookup:
		table := LookupTable{}
		for k, v := range f.Lookup.Data() {
			table[k] = v
		}
		return Resolution{Kind: ResolutionLookup, Lookup: table}
	case ResolutionSlab:
		return Resolution{Kind: ResolutionSlab, Slabs: append([]Slab(nil), f.Slabs.Data()...)}
	default:
		return Resolution{Kind: ResolutionStatic}
	}
}

// EstimateUsd converts a token price to USD at the version rate, rounded to 4 places.
func (r ResolvedVersion) EstimateUsd(finalPrice decimal.Decimal) decimal.Decimal {
	return finalPrice.Mul(r.TokenUsdPrice).Round(4)
}
