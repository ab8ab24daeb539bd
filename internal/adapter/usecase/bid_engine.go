package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"rtb-engine/internal/core/domain"
)

// BidEngine is the per-request decision pipeline:
//
//	validate -> refresh cache if stale -> active candidates ->
//	affordability prefilter -> targeting filter -> select ->
//	reserve budget -> emit
//
// Any stage that empties the candidate set short-circuits to a NoBid.
// The pipeline never lets a fault escape: an exchange treats a
// non-response as an outage, so the boundary converts panics and every
// internal failure into NoBid(TechnicalError).
type BidEngine struct {
	cache  *SnapshotCache
	ledger *BudgetLedger
	logger *slog.Logger

	// pauseCh feeds the detached depletion worker. Sends are
	// non-blocking; a full queue drops the signal, which is fine because
	// the next reservation against the same campaign raises it again.
	pauseCh chan string
}

// NewBidEngine wires the pipeline. queueSize of 0 falls back to 1024.
func NewBidEngine(cache *SnapshotCache, ledger *BudgetLedger, logger *slog.Logger, queueSize int) *BidEngine {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &BidEngine{
		cache:   cache,
		ledger:  ledger,
		logger:  logger,
		pauseCh: make(chan string, queueSize),
	}
}

// Decide produces exactly one decision for the bid context. Its only
// observable side effect on success is the budget reservation; failure
// paths leave no trace beyond logs.
func (e *BidEngine) Decide(ctx context.Context, bc *domain.BidContext) (decision *domain.Decision) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in decision pipeline", slog.Any("panic", r))
			decision = domain.NoBid(requestID(bc), domain.NoBidTechnicalError)
		}
	}()

	if bc == nil || bc.ImpressionID == "" {
		return domain.NoBid(requestID(bc), domain.NoBidInvalidRequest)
	}

	e.cache.RefreshIfStale(ctx)

	now := bc.At()
	candidates := e.cache.ActiveCampaigns(now)
	if len(candidates) == 0 {
		return domain.NoBid(bc.RequestID, domain.NoBidUnmatchedUser)
	}

	affordable := candidates[:0]
	for i := range candidates {
		c := &candidates[i]
		if e.ledger.CanAffordBid(ctx, c.ID, c.EffectiveBidPrice()) {
			affordable = append(affordable, *c)
		}
	}
	if len(affordable) == 0 {
		return domain.NoBid(bc.RequestID, domain.NoBidUnmatchedUser)
	}

	matched := affordable[:0]
	for i := range affordable {
		c := &affordable[i]
		if c.Targeting.Matches(bc, now) {
			matched = append(matched, *c)
		}
	}
	if len(matched) == 0 {
		return domain.NoBid(bc.RequestID, domain.NoBidUnmatchedUser)
	}

	winner := selectBestCampaign(matched)
	price := winner.EffectiveBidPrice()

	res := e.ledger.ReserveBudget(ctx, winner.ID, price)
	if !res.OK {
		// No fallback to the next-best campaign: the request is a NoBid
		// and the depletion worker takes it from here.
		if res.Reason.BudgetExceeded() {
			e.enqueuePauseCheck(winner.ID)
			return domain.NoBid(bc.RequestID, domain.NoBidBudgetExceeded)
		}
		return domain.NoBid(bc.RequestID, domain.NoBidTechnicalError)
	}
	e.enqueuePauseCheck(winner.ID)

	return &domain.Decision{
		RequestID: bc.RequestID,
		Bid: &domain.Bid{
			ID:                uuid.NewString(),
			ImpressionID:      bc.ImpressionID,
			CampaignID:        winner.ID,
			CreativeID:        winner.CreativeID,
			Price:             price,
			AdMarkup:          winner.AdMarkup,
			AdvertiserDomains: winner.AdvertiserDomains,
		},
	}
}

// RefreshNow forces campaign snapshot coherence, typically after CRUD.
func (e *BidEngine) RefreshNow(ctx context.Context) error {
	return e.cache.RefreshNow(ctx)
}

// enqueuePauseCheck hands a campaign to the depletion worker without
// ever blocking the response path.
func (e *BidEngine) enqueuePauseCheck(campaignID string) {
	select {
	case e.pauseCh <- campaignID:
	default:
	}
}

// Run drives the depletion worker until ctx is cancelled. Delivery is
// at-least-once and the pause write is idempotent, so duplicate or
// repeated signals are harmless.
func (e *BidEngine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case campaignID := <-e.pauseCh:
			if reason, ok := e.ledger.ShouldPause(ctx, campaignID); ok {
				e.ledger.Pause(ctx, campaignID, reason)
			}
		}
	}
}

func requestID(bc *domain.BidContext) string {
	if bc == nil {
		return ""
	}
	return bc.RequestID
}
