package quota

import "github.com/poiesic/boardvec/core"

// Limits holds the configured ceilings for every tier. The free tier
// carries both a lifetime cap and a legacy per-collection cap; paid
// tiers carry a monthly ceiling only.
type Limits struct {
	FreeLifetime int
	FreeChannel  int

	StarterMonthly int
	ProMonthly     int

	// Free-tier chat and generation gates, per collection per month.
	FreeChatPerMonth       int
	FreeGenerationPerMonth int

	// Overage pricing for paid tiers, advisory only. Processing is
	// always hard-capped at the monthly ceiling regardless of what
	// the estimate says.
	OverageBlockSize       int
	OverageBlockPriceCents int
}

// DefaultLimits returns the production ceilings.
func DefaultLimits() Limits {
	return Limits{
		FreeLifetime:           50,
		FreeChannel:            25,
		StarterMonthly:         500,
		ProMonthly:             2000,
		FreeChatPerMonth:       10,
		FreeGenerationPerMonth: 5,
		OverageBlockSize:       100,
		OverageBlockPriceCents: 500,
	}
}

// MonthlyLimit returns the monthly ceiling for a paid tier, zero for
// the free tier.
func (l Limits) MonthlyLimit(tier core.Tier) int {
	switch tier {
	case core.TierStarter:
		return l.StarterMonthly
	case core.TierPro:
		return l.ProMonthly
	default:
		return 0
	}
}
