package usecase

import "rtb-engine/internal/core/domain"

// selectBestCampaign runs a first-price auction over the candidates:
// the highest effective bid price wins. Equal bids break on the smaller
// campaign ID so selection is deterministic even though the candidates
// arrive in map-iteration order. Callers must not pass an empty slice.
func selectBestCampaign(candidates []domain.Campaign) *domain.Campaign {
	best := &candidates[0]
	bestPrice := best.EffectiveBidPrice()
	for i := 1; i < len(candidates); i++ {
		c := &candidates[i]
		price := c.EffectiveBidPrice()
		if price > bestPrice || (price == bestPrice && c.ID < best.ID) {
			best = c
			bestPrice = price
		}
	}
	return best
}
