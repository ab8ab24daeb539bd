package port

import (
	"context"

	"rtb-engine/internal/core/domain"
)

// BidUseCase is the primary inbound port of the decision engine: one
// synchronous decision per bid request. Implementations never return an
// error and never panic across this boundary; every internal failure is
// folded into a NoBid decision, because a non-response upstream is
// treated as an outage by exchanges.
type BidUseCase interface {
	// Decide runs the full decision pipeline for one bid context and
	// returns a Bid or NoBid outcome. Its only observable side effect on
	// success is the budget reservation.
	Decide(ctx context.Context, bc *domain.BidContext) *domain.Decision
}

// CacheRefresher forces campaign snapshot coherence without waiting for
// the TTL, typically after campaign CRUD.
type CacheRefresher interface {
	RefreshNow(ctx context.Context) error
}
