package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rtb-engine/internal/core/domain"
	"rtb-engine/internal/core/port"
)

// CampaignManager implements the management port: campaign CRUD, status
// transitions and budget monitoring. It is off the bidding hot path, so
// each write is followed by a forced cache refresh to keep decisions
// coherent without waiting out the TTL.
type CampaignManager struct {
	store  port.CampaignStore
	cache  *SnapshotCache
	ledger *BudgetLedger
	logger *slog.Logger
}

// NewCampaignManager returns a manager over the given collaborators.
func NewCampaignManager(store port.CampaignStore, cache *SnapshotCache, ledger *BudgetLedger, logger *slog.Logger) *CampaignManager {
	return &CampaignManager{store: store, cache: cache, ledger: ledger, logger: logger}
}

// CreateCampaign validates and stores a new campaign. A missing ID is
// generated server-side; a missing status defaults to draft.
func (m *CampaignManager) CreateCampaign(ctx context.Context, c *domain.Campaign) (*domain.Campaign, error) {
	if err := validateCampaign(c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.StatusDraft
	}
	if !c.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", port.ErrInvalidCampaign, c.Status)
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.CurrentSpend = 0
	c.TodaySpend = 0

	if err := m.store.Put(ctx, c); err != nil {
		return nil, err
	}
	m.refresh(ctx)
	m.logger.Info("campaign created", slog.String("campaign_id", c.ID), slog.String("name", c.Name))
	return c, nil
}

// GetCampaign returns one campaign from the store (not the cache), so
// management reads always see the latest record.
func (m *CampaignManager) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	return m.store.Get(ctx, id)
}

// ListCampaigns returns every stored campaign.
func (m *CampaignManager) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return m.store.ScanAll(ctx)
}

// UpdateCampaign replaces a campaign's configuration while preserving
// its authoritative spend counters and creation time.
func (m *CampaignManager) UpdateCampaign(ctx context.Context, c *domain.Campaign) (*domain.Campaign, error) {
	if c.ID == "" {
		return nil, fmt.Errorf("%w: id is required", port.ErrInvalidCampaign)
	}
	if err := validateCampaign(c); err != nil {
		return nil, err
	}
	existing, err := m.store.Get(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if c.Status == "" {
		c.Status = existing.Status
	}
	if !c.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", port.ErrInvalidCampaign, c.Status)
	}
	c.CurrentSpend = existing.CurrentSpend
	c.TodaySpend = existing.TodaySpend
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	if err := m.store.Put(ctx, c); err != nil {
		return nil, err
	}
	m.refresh(ctx)
	m.logger.Info("campaign updated", slog.String("campaign_id", c.ID))
	return c, nil
}

// DeleteCampaign removes a campaign from the store.
func (m *CampaignManager) DeleteCampaign(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.refresh(ctx)
	m.logger.Info("campaign deleted", slog.String("campaign_id", id))
	return nil
}

// SetStatus transitions a campaign's lifecycle state.
func (m *CampaignManager) SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", port.ErrInvalidCampaign, status)
	}
	if err := m.store.SetStatus(ctx, id, status, ""); err != nil {
		return err
	}
	m.refresh(ctx)
	m.logger.Info("campaign status changed", slog.String("campaign_id", id), slog.String("status", string(status)))
	return nil
}

// BudgetStats returns the monitoring view of a campaign's budget.
func (m *CampaignManager) BudgetStats(ctx context.Context, id string) (*port.BudgetStats, error) {
	return m.ledger.Stats(ctx, id)
}

func (m *CampaignManager) refresh(ctx context.Context) {
	if err := m.cache.RefreshNow(ctx); err != nil {
		m.logger.Warn("cache refresh after campaign write failed", slog.Any("error", err))
	}
}

func validateCampaign(c *domain.Campaign) error {
	if c == nil {
		return fmt.Errorf("%w: empty payload", port.ErrInvalidCampaign)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", port.ErrInvalidCampaign)
	}
	if c.BidPrice <= 0 {
		return fmt.Errorf("%w: bid price must be positive", port.ErrInvalidCampaign)
	}
	if c.TotalBudget < 0 || c.DailyBudget < 0 {
		return fmt.Errorf("%w: budgets must not be negative", port.ErrInvalidCampaign)
	}
	if c.MinBid > 0 && c.MaxBid > 0 && c.MinBid > c.MaxBid {
		return fmt.Errorf("%w: min bid above max bid", port.ErrInvalidCampaign)
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end date before start date", port.ErrInvalidCampaign)
	}
	return nil
}
