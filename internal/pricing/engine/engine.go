// Package engine computes campaign prices from a resolved pricing version.
// Calculate is pure: it performs no I/O and keeps no state, so identical
// inputs always produce identical results.
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
)

const (
	// FinalPricePlaces is the precision finalPrice is rounded to, half away from zero.
	FinalPricePlaces = 4

	baseStepLabel      = "Base Price"
	timeSlotLabel      = "Time Slot: "
	volumeScalingLabel = "Volume Scaling (Screens * Days * Impressions/100)"
)

func Calculate(version domain.ResolvedVersion, input domain.CampaignInput) domain.Result {
	current := version.BasePrice
	breakdown := make([]domain.BreakdownStep, 0, len(version.Factors)+len(input.TimeSlots)+2)

	breakdown = append(breakdown, domain.BreakdownStep{
		Factor:    baseStepLabel,
		Priority:  0,
		Type:      domain.StepBase,
		PreValue:  decimal.Zero,
		Change:    version.BasePrice,
		PostValue: version.BasePrice,
	})

	for _, factor := range enabledFactors(version.Factors) {
		pre := current
		value := resolveValue(factor, input)

		var change decimal.Decimal
		stepType := domain.StepAdditive
		if factor.Type == domain.FactorMultiplier {
			current = current.Mul(value)
			change = current.Sub(pre)
			stepType = domain.StepMultiplier
		} else {
			current = current.Add(value)
			change = value
		}

		breakdown = append(breakdown, domain.BreakdownStep{
			Factor:    factor.Name,
			Priority:  factor.Priority,
			Type:      stepType,
			PreValue:  pre,
			Change:    change,
			PostValue: current,
		})
	}

	for _, slot := range selectedTimeSlots(version.TimeSlots, input.TimeSlots) {
		pre := current
		current = current.Mul(slot.Multiplier)
		breakdown = append(breakdown, domain.BreakdownStep{
			Factor:    timeSlotLabel + slot.Name,
			Priority:  slot.Priority,
			Type:      domain.StepTimeSlot,
			PreValue:  pre,
			Change:    current.Sub(pre),
			PostValue: current,
		})
	}

	pre := current
	current = current.Mul(VolumeScale(input))
	breakdown = append(breakdown, domain.BreakdownStep{
		Factor:    volumeScalingLabel,
		Priority:  0,
		Type:      domain.StepMultiplier,
		PreValue:  pre,
		Change:    current.Sub(pre),
		PostValue: current,
	})

	return domain.Result{
		BasePrice:        version.BasePrice,
		FinalPrice:       RoundFinal(current),
		Breakdown:        breakdown,
		PricingVersionID: version.ID,
	}
}

// VolumeScale is screenCount * totalDays * impressionsPerDay/100, computed exactly.
func VolumeScale(input domain.CampaignInput) decimal.Decimal {
	impressions := decimal.New(int64(input.ImpressionsPerDay), -2)
	return decimal.NewFromInt(int64(input.ScreenCount)).
		Mul(decimal.NewFromInt(int64(input.TotalDays))).
		Mul(impressions)
}

func RoundFinal(v decimal.Decimal) decimal.Decimal {
	return v.Round(FinalPricePlaces)
}

// enabledFactors orders enabled factors by priority, highest first. Ties keep
// declaration order.
func enabledFactors(factors []domain.FactorRule) []domain.FactorRule {
	out := make([]domain.FactorRule, 0, len(factors))
	for _, f := range factors {
		if f.Enabled {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// selectedTimeSlots returns the version's slots named in ids, highest
// priority first. Unknown ids are ignored and each slot applies once.
func selectedTimeSlots(slots []domain.TimeSlotRule, ids []string) []domain.TimeSlotRule {
	if len(ids) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]domain.TimeSlotRule, 0, len(ids))
	for _, slot := range slots {
		if _, ok := wanted[slot.ID]; ok {
			out = append(out, slot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// UnknownTimeSlots lists ids in the selection the version does not define.
func UnknownTimeSlots(version domain.ResolvedVersion, ids []string) []string {
	known := make(map[string]struct{}, len(version.TimeSlots))
	for _, slot := range version.TimeSlots {
		known[slot.ID] = struct{}{}
	}
	var unknown []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}
