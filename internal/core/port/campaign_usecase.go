package port

import (
	"context"
	"errors"

	"rtb-engine/internal/core/domain"
)

// ErrInvalidCampaign is returned by management operations for payloads
// that fail validation.
var ErrInvalidCampaign = errors.New("invalid campaign")

// BudgetStats is a monitoring snapshot of a campaign's budget state.
// Remaining values are nil when the corresponding budget is unlimited.
type BudgetStats struct {
	CurrentSpend         int64
	TotalBudget          int64
	TodaySpend           int64
	DailyBudget          int64
	RemainingBudget      *int64
	RemainingDailyBudget *int64
}

// CampaignUseCase is the management port: campaign CRUD, status
// transitions and budget monitoring. It is not on the bidding hot path,
// so operations may be comparatively expensive.
type CampaignUseCase interface {
	CreateCampaign(ctx context.Context, c *domain.Campaign) (*domain.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
	UpdateCampaign(ctx context.Context, c *domain.Campaign) (*domain.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error

	// SetStatus transitions the campaign's lifecycle state.
	SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error

	// BudgetStats returns the monitoring view of a campaign's budget.
	BudgetStats(ctx context.Context, id string) (*BudgetStats, error)
}
