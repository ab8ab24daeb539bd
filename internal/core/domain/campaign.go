package domain

import "time"

// CampaignStatus is the lifecycle state of a campaign. Only Active
// campaigns participate in bidding.
type CampaignStatus string

const (
	StatusDraft          CampaignStatus = "draft"
	StatusActive         CampaignStatus = "active"
	StatusPaused         CampaignStatus = "paused"
	StatusBudgetDepleted CampaignStatus = "budget_depleted"
	StatusCompleted      CampaignStatus = "completed"
	StatusArchived       CampaignStatus = "archived"
)

// Pause reasons recorded alongside a BudgetDepleted status. A daily
// reason is cleared by the daily budget reset; a total reason is
// permanent until an operator intervenes.
const (
	PauseReasonTotalBudget = "total_budget_depleted"
	PauseReasonDailyBudget = "daily_budget_depleted"
)

// Valid reports whether s is one of the known lifecycle states.
func (s CampaignStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusBudgetDepleted,
		StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Campaign represents an advertising campaign with targeting rules,
// budget constraints and bidding parameters. Budgets, spend and bid
// prices are micro-units (see money.go). A zero budget means unlimited.
//
// Campaign records are owned by the campaign store; in-process copies
// held by the snapshot cache are read-only and may lag the store by the
// cache TTL. Spend counters are only authoritative in the store.
type Campaign struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	AdvertiserID string         `json:"advertiser_id,omitempty"`
	Status       CampaignStatus `json:"status"`

	TotalBudget  int64 `json:"total_budget"`
	DailyBudget  int64 `json:"daily_budget"`
	CurrentSpend int64 `json:"current_spend"`
	TodaySpend   int64 `json:"today_spend"`

	BidPrice int64 `json:"bid_price"` // CPM
	MinBid   int64 `json:"min_bid,omitempty"`
	MaxBid   int64 `json:"max_bid,omitempty"`

	Targeting *TargetingRules `json:"targeting,omitempty"`

	CreativeID        string   `json:"creative_id,omitempty"`
	AdMarkup          string   `json:"ad_markup,omitempty"`
	AdvertiserDomains []string `json:"advertiser_domains,omitempty"`

	StartDate time.Time `json:"start_date,omitzero"`
	EndDate   time.Time `json:"end_date,omitzero"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// CanBid reports whether the campaign is eligible for bidding at the
// given instant: active, inside its date window and with budget left
// according to the local (possibly stale) spend counters. This is a
// heuristic filter; the budget ledger is the authority.
func (c *Campaign) CanBid(now time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	if !c.StartDate.IsZero() && now.Before(c.StartDate) {
		return false
	}
	if !c.EndDate.IsZero() && now.After(c.EndDate) {
		return false
	}
	if c.TotalBudget > 0 && c.CurrentSpend >= c.TotalBudget {
		return false
	}
	if c.DailyBudget > 0 && c.TodaySpend >= c.DailyBudget {
		return false
	}
	return true
}

// EffectiveBidPrice returns the CPM price the campaign actually bids:
// BidPrice clamped to [MinBid, MaxBid] where those bounds are set.
func (c *Campaign) EffectiveBidPrice() int64 {
	bid := c.BidPrice
	if c.MinBid > 0 && bid < c.MinBid {
		bid = c.MinBid
	}
	if c.MaxBid > 0 && bid > c.MaxBid {
		bid = c.MaxBid
	}
	return bid
}
