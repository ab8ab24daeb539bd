package port

import (
	"context"
	"errors"

	"rtb-engine/internal/core/domain"
)

// ErrCampaignNotFound is returned by store operations addressing a
// campaign that does not exist.
var ErrCampaignNotFound = errors.New("campaign not found")

// BudgetFields is the numeric budget state of a campaign as held by the
// store. All values are micro-units.
type BudgetFields struct {
	CurrentSpend int64
	TodaySpend   int64
	TotalBudget  int64
	DailyBudget  int64
}

// CampaignStore is the outbound port to the key-value store that owns
// campaign records. Implementations must be safe for concurrent use.
//
// The store's only strong primitive is AtomicAddSpend: an atomic
// add-and-return over the spend counters. It cannot enforce an upper
// bound, which is why the budget ledger layers the reserve/verify/
// compensate protocol on top of it.
type CampaignStore interface {
	// Get returns the campaign with the given id, with status and spend
	// counters reflecting the store's authoritative fields.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// Put writes the full campaign record, replacing any previous one.
	Put(ctx context.Context, c *domain.Campaign) error

	// Delete removes the campaign. Deleting an absent campaign returns
	// ErrCampaignNotFound.
	Delete(ctx context.Context, id string) error

	// ScanAll streams every campaign record in the store into a slice.
	ScanAll(ctx context.Context) ([]domain.Campaign, error)

	// ReadBudget returns a non-atomic snapshot of the budget fields.
	ReadBudget(ctx context.Context, id string) (*BudgetFields, error)

	// AtomicAddSpend atomically adds delta to both CurrentSpend and
	// TodaySpend and returns the post-add budget fields from the same
	// atomic operation. delta may be negative (compensation).
	AtomicAddSpend(ctx context.Context, id string, delta int64) (*BudgetFields, error)

	// SetStatus updates the campaign's lifecycle status and an optional
	// human-readable reason without touching spend counters.
	SetStatus(ctx context.Context, id string, status domain.CampaignStatus, reason string) error

	// ResetTodaySpend zeroes TodaySpend on every campaign and returns
	// how many records were touched. Campaigns paused with
	// domain.PauseReasonDailyBudget are set back to Active with the
	// reason cleared; any other pause survives the reset.
	ResetTodaySpend(ctx context.Context) (int, error)
}
