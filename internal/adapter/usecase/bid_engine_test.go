package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rtb-engine/internal/core/domain"
)

func bidRequest(id string) *domain.BidContext {
	return &domain.BidContext{
		RequestID:    id,
		ImpressionID: id + "-imp",
		Geo:          &domain.Geo{Country: "USA"},
		Domain:       "news.example",
		Timestamp:    time.Now().UTC(),
	}
}

func TestDecideInvalidRequest(t *testing.T) {
	_, store := newTestStore(t)
	cache := NewSnapshotCache(store, testLogger(), time.Hour)
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(cache, ledger, testLogger(), 0)
	ctx := context.Background()

	d := engine.Decide(ctx, nil)
	require.False(t, d.IsBid())
	require.Equal(t, domain.NoBidInvalidRequest, d.Reason)

	d = engine.Decide(ctx, &domain.BidContext{RequestID: "r1"})
	require.False(t, d.IsBid())
	require.Equal(t, domain.NoBidInvalidRequest, d.Reason)
	require.Equal(t, "r1", d.RequestID)
}

func TestDecideNoCampaigns(t *testing.T) {
	_, store := newTestStore(t)
	cache := NewSnapshotCache(store, testLogger(), time.Hour)
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(cache, ledger, testLogger(), 0)

	d := engine.Decide(context.Background(), bidRequest("r1"))
	require.False(t, d.IsBid())
	require.Equal(t, domain.NoBidUnmatchedUser, d.Reason)
}

// TestDecideBid runs the full pipeline: both campaigns match, the
// higher bid wins, the reservation debits the store and the bid carries
// the winner's creative.
func TestDecideBid(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	cheap := activeCampaign("cheap", 0, 0, domain.MicrosFromFloat(1.00))
	rich := activeCampaign("rich", 0, 0, domain.MicrosFromFloat(2.50))
	require.NoError(t, store.Put(ctx, cheap))
	require.NoError(t, store.Put(ctx, rich))

	cache := NewSnapshotCache(store, testLogger(), time.Hour)
	require.NoError(t, cache.RefreshNow(ctx))
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(cache, ledger, testLogger(), 0)

	bc := bidRequest("r1")
	d := engine.Decide(ctx, bc)
	require.True(t, d.IsBid())
	require.Equal(t, "r1", d.RequestID)
	require.Equal(t, "rich", d.Bid.CampaignID)
	require.Equal(t, bc.ImpressionID, d.Bid.ImpressionID)
	require.Equal(t, domain.MicrosFromFloat(2.50), d.Bid.Price)
	require.Equal(t, "cr-rich", d.Bid.CreativeID)
	require.NotEmpty(t, d.Bid.ID)

	// Exactly one impression cost landed on the winner, none on the loser.
	b, err := store.ReadBudget(ctx, "rich")
	require.NoError(t, err)
	require.Equal(t, int64(2500), b.CurrentSpend)
	b, err = store.ReadBudget(ctx, "cheap")
	require.NoError(t, err)
	require.Zero(t, b.CurrentSpend)
}

func TestDecideTargetingMismatch(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	c := activeCampaign("c1", 0, 0, domain.MicrosFromFloat(2.50))
	c.Targeting = &domain.TargetingRules{Countries: []string{"USA"}}
	require.NoError(t, store.Put(ctx, c))

	cache := NewSnapshotCache(store, testLogger(), time.Hour)
	require.NoError(t, cache.RefreshNow(ctx))
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(cache, ledger, testLogger(), 0)

	bc := bidRequest("r1")
	bc.Geo = &domain.Geo{Country: "UK"}
	d := engine.Decide(ctx, bc)
	require.False(t, d.IsBid())
	require.Equal(t, domain.NoBidUnmatchedUser, d.Reason)

	// A filtered request must never touch the budget.
	b, err := store.ReadBudget(ctx, "c1")
	require.NoError(t, err)
	require.Zero(t, b.CurrentSpend)
}

// TestDecideDepletedCampaign: the affordability prefilter drops a
// campaign whose cached counters still look alive but whose store-side
// budget is spent.
func TestDecideDepletedCampaign(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	c := activeCampaign("c1", 2500, 0, domain.MicrosFromFloat(2.50))
	require.NoError(t, store.Put(ctx, c))

	cache := NewSnapshotCache(store, testLogger(), time.Hour)
	require.NoError(t, cache.RefreshNow(ctx))
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(cache, ledger, testLogger(), 0)

	// Spend the whole budget behind the cache's back.
	_, err := store.AtomicAddSpend(ctx, "c1", 2500)
	require.NoError(t, err)

	d := engine.Decide(ctx, bidRequest("r1"))
	require.False(t, d.IsBid())
	require.Equal(t, domain.NoBidUnmatchedUser, d.Reason)

	b, err := store.ReadBudget(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, int64(2500), b.CurrentSpend)
}

// TestDepletionWorkerPausesCampaign: after the last affordable
// impression the worker picks up the pause signal and flips the
// campaign to budget_depleted.
func TestDepletionWorkerPausesCampaign(t *testing.T) {
	_, store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Budget for exactly one impression.
	c := activeCampaign("c1", 2500, 0, domain.MicrosFromFloat(2.50))
	require.NoError(t, store.Put(ctx, c))

	cache := NewSnapshotCache(store, testLogger(), time.Hour)
	require.NoError(t, cache.RefreshNow(ctx))
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(cache, ledger, testLogger(), 0)
	go engine.Run(ctx)

	d := engine.Decide(ctx, bidRequest("r1"))
	require.True(t, d.IsBid())

	deadline := time.After(2 * time.Second)
	for {
		got, err := store.Get(ctx, "c1")
		require.NoError(t, err)
		if got.Status == domain.StatusBudgetDepleted {
			break
		}
		select {
		case <-deadline:
			t.Fatal("campaign was never paused by the depletion worker")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// TestDailyPausedCampaignResumesAfterReset: a campaign the worker
// paused for hitting its daily cap must come back on its own at the
// daily reset, with its total budget still spendable.
func TestDailyPausedCampaignResumesAfterReset(t *testing.T) {
	_, store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Daily room for exactly one impression, plenty of total budget.
	c := activeCampaign("c1", domain.MicrosFromFloat(100), 2500, domain.MicrosFromFloat(2.50))
	require.NoError(t, store.Put(ctx, c))

	cache := NewSnapshotCache(store, testLogger(), time.Hour)
	require.NoError(t, cache.RefreshNow(ctx))
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(cache, ledger, testLogger(), 0)
	go engine.Run(ctx)

	d := engine.Decide(ctx, bidRequest("r1"))
	require.True(t, d.IsBid())

	deadline := time.After(2 * time.Second)
	for {
		got, err := store.Get(ctx, "c1")
		require.NoError(t, err)
		if got.Status == domain.StatusBudgetDepleted {
			break
		}
		select {
		case <-deadline:
			t.Fatal("campaign was never paused by the depletion worker")
		case <-time.After(10 * time.Millisecond):
		}
	}

	ledger.ResetDailyBudgets(ctx)
	require.NoError(t, cache.RefreshNow(ctx))

	d = engine.Decide(ctx, bidRequest("r2"))
	require.True(t, d.IsBid(), "campaign must resume bidding after the daily reset")
	require.Equal(t, "c1", d.Bid.CampaignID)

	b, err := store.ReadBudget(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, int64(5000), b.CurrentSpend)
	require.Equal(t, int64(2500), b.TodaySpend)
}

// TestDecidePanicRecovery: a fault inside the pipeline surfaces as a
// technical no-bid, never as a panic across the boundary. Wiring a nil
// cache makes the first stage blow up deterministically.
func TestDecidePanicRecovery(t *testing.T) {
	_, store := newTestStore(t)
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(nil, ledger, testLogger(), 0)

	d := engine.Decide(context.Background(), bidRequest("r1"))
	require.NotNil(t, d)
	require.False(t, d.IsBid())
	require.Equal(t, domain.NoBidTechnicalError, d.Reason)
	require.Equal(t, "r1", d.RequestID)
}

// TestDecideStoreDown: a dead store yields no-bids, never errors or
// panics out of the pipeline.
func TestDecideStoreDown(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, activeCampaign("c1", 0, 0, domain.MicrosFromFloat(2.50))))

	cache := NewSnapshotCache(store, testLogger(), time.Hour)
	require.NoError(t, cache.RefreshNow(ctx))
	ledger := NewBudgetLedger(store, testLogger(), 0.99)
	engine := NewBidEngine(cache, ledger, testLogger(), 0)

	mr.Close()

	d := engine.Decide(ctx, bidRequest("r1"))
	require.False(t, d.IsBid())
	require.Equal(t, domain.NoBidUnmatchedUser, d.Reason)
}
