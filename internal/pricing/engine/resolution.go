package engine

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
)

type valueResolver func(factor domain.FactorRule, input domain.CampaignInput) decimal.Decimal

var resolvers = map[domain.ResolutionKind]valueResolver{
	domain.ResolutionStatic: staticValue,
	domain.ResolutionLookup: lookupValue,
	domain.ResolutionSlab:   slabValue,
}

// resolveValue returns the number a factor contributes for the input. Every
// strategy falls back to the factor's own value when it has no match.
func resolveValue(factor domain.FactorRule, input domain.CampaignInput) decimal.Decimal {
	resolve, ok := resolvers[factor.Resolution.Kind]
	if !ok {
		return factor.Value
	}
	return resolve(factor, input)
}

func staticValue(factor domain.FactorRule, _ domain.CampaignInput) decimal.Decimal {
	return factor.Value
}

func lookupValue(factor domain.FactorRule, input domain.CampaignInput) decimal.Decimal {
	key, ok := input.FieldValue(factor.Key)
	if !ok {
		return factor.Value
	}
	if v, ok := factor.Resolution.Lookup[key]; ok {
		return v
	}
	return factor.Value
}

// slabValue returns the value of the first band containing the input field.
func slabValue(factor domain.FactorRule, input domain.CampaignInput) decimal.Decimal {
	n, ok := input.NumericField(factor.Key)
	if !ok {
		return factor.Value
	}
	v := decimal.NewFromInt(n)
	for _, slab := range factor.Resolution.Slabs {
		if slab.Contains(v) {
			return slab.Value
		}
	}
	return factor.Value
}
