package domain

import pricingdomain "github.com/smallbiznis/adpricing/internal/pricing/domain"

var playbackPriorities = map[pricingdomain.SlotPriority]int{
	pricingdomain.SlotPriorityNormal:  1,
	pricingdomain.SlotPriorityHigh:    2,
	pricingdomain.SlotPriorityPremium: 3,
}

// PlaybackPriority maps a booked slot priority to the player's queue rank.
// Unset or unknown priorities play at rank 1.
func PlaybackPriority(p pricingdomain.SlotPriority) int {
	if rank, ok := playbackPriorities[p]; ok {
		return rank
	}
	return 1
}
