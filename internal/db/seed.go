package db

import (
	"context"
	"fmt"
	"time"

	"rtb-engine/internal/core/domain"
	"rtb-engine/internal/core/port"
)

// Seed inserts demo campaigns into the campaign store. Existing
// campaigns with the same IDs are overwritten, so the seed is safe to
// re-run between local sessions.
func Seed(ctx context.Context, store port.CampaignStore) error {
	now := time.Now().UTC()
	targetings := []*domain.TargetingRules{
		{Countries: []string{"USA", "CAN"}},
		{Countries: []string{"USA"}, DeviceTypes: []int{1}, OperatingSystems: []string{"iOS", "Android"}},
		{BlockedDomains: []string{"badsite.example"}},
		nil,
		{Countries: []string{"GBR"}, DaysOfWeek: []int{1, 2, 3, 4, 5}},
	}

	for i := 1; i <= 5; i++ {
		c := &domain.Campaign{
			ID:           fmt.Sprintf("demo-%d", i),
			Name:         fmt.Sprintf("Demo Campaign %d", i),
			AdvertiserID: fmt.Sprintf("adv-%d", i),
			Status:       domain.StatusActive,
			TotalBudget:  5000 * domain.MicrosPerUnit, // $5000.00
			DailyBudget:  1000 * domain.MicrosPerUnit, // $1000.00
			BidPrice:     int64(i) * 500_000,          // $0.50 .. $2.50 CPM
			Targeting:    targetings[i-1],
			CreativeID:   fmt.Sprintf("creative-%d", i),
			AdMarkup:     fmt.Sprintf("<div>demo ad %d</div>", i),
			AdvertiserDomains: []string{
				fmt.Sprintf("advertiser%d.example", i),
			},
			StartDate: now.AddDate(0, 0, -1),
			EndDate:   now.AddDate(0, 1, 0),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.Put(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
