package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rtb-engine/internal/core/domain"
	"rtb-engine/internal/core/port"
)

// BudgetLedger owns spend accounting against the campaign store. It is
// the only component that mutates spend fields.
//
// The store's strongest primitive is an atomic add-and-return; it cannot
// compare-and-cap. The ledger therefore runs a two-phase protocol per
// reservation: optimistic pre-validation against a snapshot read, one
// atomic add of the impression cost to both counters, then verification
// of the post-add values with a compensating negative add if a racer
// pushed spend past a budget. Concurrent racers can each overshoot by at
// most one impression cost before compensation restores the bound, and
// the final ledger state converges to spend <= budget.
type BudgetLedger struct {
	store  port.CampaignStore
	logger *slog.Logger

	// pauseThreshold is the budget fraction at which a campaign is
	// considered depleted. Slightly under 1.0 so accumulated rounding in
	// the last impression cannot keep a spent campaign alive.
	pauseThreshold float64
}

// NewBudgetLedger returns a ledger over the given store. threshold of 0
// falls back to 0.99.
func NewBudgetLedger(store port.CampaignStore, logger *slog.Logger, threshold float64) *BudgetLedger {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.99
	}
	return &BudgetLedger{store: store, logger: logger, pauseThreshold: threshold}
}

// CanAffordBid is the cheap, advisory affordability filter: it projects
// one impression cost against a non-atomic budget snapshot. A false
// positive is corrected later by ReserveBudget; a store failure reads as
// "cannot afford" (fail closed).
func (l *BudgetLedger) CanAffordBid(ctx context.Context, campaignID string, bidPrice int64) bool {
	b, err := l.store.ReadBudget(ctx, campaignID)
	if err != nil {
		if !errors.Is(err, port.ErrCampaignNotFound) {
			l.logger.Warn("budget pre-check failed", slog.String("campaign_id", campaignID), slog.Any("error", err))
		}
		return false
	}
	cost := domain.CostPerImpression(bidPrice)
	if b.TotalBudget > 0 && b.CurrentSpend+cost > b.TotalBudget {
		return false
	}
	if b.DailyBudget > 0 && b.TodaySpend+cost > b.DailyBudget {
		return false
	}
	return true
}

// ReserveBudget authoritatively debits one impression cost from the
// campaign. The returned reservation is immutable and safe to share.
func (l *BudgetLedger) ReserveBudget(ctx context.Context, campaignID string, bidPrice int64) domain.BudgetReservation {
	cost := domain.CostPerImpression(bidPrice)

	// Re-read and pre-validate so an obviously depleted campaign skips
	// the atomic round-trip entirely.
	b, err := l.store.ReadBudget(ctx, campaignID)
	if err != nil {
		return l.failedReservation(campaignID, err)
	}
	if b.TotalBudget > 0 && b.CurrentSpend+cost > b.TotalBudget {
		return domain.ReservationFailed(domain.FailureTotalBudgetExceeded)
	}
	if b.DailyBudget > 0 && b.TodaySpend+cost > b.DailyBudget {
		return domain.ReservationFailed(domain.FailureDailyBudgetExceeded)
	}

	after, err := l.store.AtomicAddSpend(ctx, campaignID, cost)
	if err != nil {
		return l.failedReservation(campaignID, err)
	}

	// Verify: a racer may have reserved between our read and our add.
	overTotal := after.TotalBudget > 0 && after.CurrentSpend > after.TotalBudget
	overDaily := after.DailyBudget > 0 && after.TodaySpend > after.DailyBudget
	if overTotal || overDaily {
		// Compensate with a negative add. On failure the overshoot is at
		// most one impression cost; the pause path contains it.
		if _, rbErr := l.store.AtomicAddSpend(ctx, campaignID, -cost); rbErr != nil {
			l.logger.Error("budget rollback failed",
				slog.String("campaign_id", campaignID),
				slog.Int64("cost", cost),
				slog.Any("error", rbErr))
		}
		if overTotal {
			return domain.ReservationFailed(domain.FailureTotalBudgetExceeded)
		}
		return domain.ReservationFailed(domain.FailureDailyBudgetExceeded)
	}

	return domain.ReservationSuccess(after.CurrentSpend, after.TodaySpend)
}

func (l *BudgetLedger) failedReservation(campaignID string, err error) domain.BudgetReservation {
	if errors.Is(err, port.ErrCampaignNotFound) {
		return domain.ReservationFailed(domain.FailureCampaignNotFound)
	}
	l.logger.Error("budget reservation failed", slog.String("campaign_id", campaignID), slog.Any("error", err))
	return domain.ReservationFailed(domain.FailureTechnicalError)
}

// ShouldPause reports whether either budget is essentially depleted
// and which one, so the pause can record a reason the daily reset
// understands. Total depletion wins when both apply because no reset
// recovers it. The check is non-atomic and repeat-safe: asking about an
// already depleted campaign simply returns true again.
func (l *BudgetLedger) ShouldPause(ctx context.Context, campaignID string) (string, bool) {
	b, err := l.store.ReadBudget(ctx, campaignID)
	if err != nil {
		return "", false // don't pause on error
	}
	if b.TotalBudget > 0 && float64(b.CurrentSpend) >= float64(b.TotalBudget)*l.pauseThreshold {
		return domain.PauseReasonTotalBudget, true
	}
	if b.DailyBudget > 0 && float64(b.TodaySpend) >= float64(b.DailyBudget)*l.pauseThreshold {
		return domain.PauseReasonDailyBudget, true
	}
	return "", false
}

// Pause marks the campaign BudgetDepleted. The status write only stops
// future reservations; it never undoes a past one, and re-issuing it is
// a no-op.
func (l *BudgetLedger) Pause(ctx context.Context, campaignID, reason string) {
	err := l.store.SetStatus(ctx, campaignID, domain.StatusBudgetDepleted, reason)
	if err != nil && !errors.Is(err, port.ErrCampaignNotFound) {
		l.logger.Error("pause campaign failed", slog.String("campaign_id", campaignID), slog.Any("error", err))
		return
	}
	l.logger.Info("campaign paused", slog.String("campaign_id", campaignID), slog.String("reason", reason))
}

// ResetDailyBudgets zeroes today's spend on every campaign and
// reactivates campaigns paused for daily depletion, so daily capped
// campaigns resume at the new day. Campaigns paused for total budget
// depletion stay paused.
func (l *BudgetLedger) ResetDailyBudgets(ctx context.Context) {
	n, err := l.store.ResetTodaySpend(ctx)
	if err != nil {
		l.logger.Error("daily budget reset failed", slog.Any("error", err))
		return
	}
	l.logger.Info("daily budgets reset", slog.Int("campaigns", n))
}

// RunDailyReset fires ResetDailyBudgets at every UTC midnight until the
// context is cancelled.
func (l *BudgetLedger) RunDailyReset(ctx context.Context) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			l.ResetDailyBudgets(ctx)
		}
	}
}

// Stats returns the monitoring view of a campaign's budget.
func (l *BudgetLedger) Stats(ctx context.Context, campaignID string) (*port.BudgetStats, error) {
	b, err := l.store.ReadBudget(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	stats := &port.BudgetStats{
		CurrentSpend: b.CurrentSpend,
		TotalBudget:  b.TotalBudget,
		TodaySpend:   b.TodaySpend,
		DailyBudget:  b.DailyBudget,
	}
	if b.TotalBudget > 0 {
		stats.RemainingBudget = remaining(b.CurrentSpend, b.TotalBudget)
	}
	if b.DailyBudget > 0 {
		stats.RemainingDailyBudget = remaining(b.TodaySpend, b.DailyBudget)
	}
	return stats, nil
}

func remaining(spent, budget int64) *int64 {
	r := budget - spent
	if r < 0 {
		r = 0
	}
	return &r
}
