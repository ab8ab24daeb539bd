package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"rtb-engine/internal/core/domain"
	"rtb-engine/internal/core/port"
)

type campaignSnapshot map[string]domain.Campaign

// SnapshotCache holds a read-mostly, periodically refreshed copy of the
// campaign set. Readers take a lock-free pointer load of an immutable
// map; refreshes build a whole new map and swap it in, so no reader can
// ever observe a half-populated snapshot.
type SnapshotCache struct {
	store  port.CampaignStore
	logger *slog.Logger
	ttl    time.Duration

	snapshot    atomic.Pointer[campaignSnapshot]
	lastRefresh atomic.Int64 // unix nanos
	refreshMu   sync.Mutex
}

// NewSnapshotCache returns an empty cache with the given TTL. Callers
// normally follow up with RefreshNow so the first requests don't see an
// empty campaign set.
func NewSnapshotCache(store port.CampaignStore, logger *slog.Logger, ttl time.Duration) *SnapshotCache {
	c := &SnapshotCache{store: store, logger: logger, ttl: ttl}
	empty := campaignSnapshot{}
	c.snapshot.Store(&empty)
	return c
}

// ActiveCampaigns returns the campaigns that are active and pass the
// local CanBid heuristic at the given instant. The result is a fresh
// slice over read-only records.
func (c *SnapshotCache) ActiveCampaigns(now time.Time) []domain.Campaign {
	snap := *c.snapshot.Load()
	out := make([]domain.Campaign, 0, len(snap))
	for _, campaign := range snap {
		if campaign.Status == domain.StatusActive && campaign.CanBid(now) {
			out = append(out, campaign)
		}
	}
	return out
}

// Len returns the number of cached campaigns regardless of status.
func (c *SnapshotCache) Len() int {
	return len(*c.snapshot.Load())
}

// RefreshIfStale reloads the snapshot when the TTL has elapsed. Exactly
// one caller per staleness window pays the reload cost: a caller that
// loses the TryLock race serves the stale snapshot and returns
// immediately, keeping the decision path free of refresh stalls.
func (c *SnapshotCache) RefreshIfStale(ctx context.Context) {
	if !c.stale() {
		return
	}
	if !c.refreshMu.TryLock() {
		return // another request is already refreshing
	}
	defer c.refreshMu.Unlock()

	// Re-check under the lock; the previous holder may just have
	// refreshed.
	if !c.stale() {
		return
	}
	if err := c.reload(ctx); err != nil {
		// Keep serving the previous snapshot, and still advance the
		// clock so a broken store costs one scan per window, not one
		// per request.
		c.logger.Error("campaign cache refresh failed", slog.Any("error", err))
	}
	c.lastRefresh.Store(time.Now().UnixNano())
}

// RefreshNow forces a blocking reload, used at startup and after
// campaign CRUD so changes are visible without waiting out the TTL.
func (c *SnapshotCache) RefreshNow(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if err := c.reload(ctx); err != nil {
		return err
	}
	c.lastRefresh.Store(time.Now().UnixNano())
	return nil
}

func (c *SnapshotCache) stale() bool {
	return time.Since(time.Unix(0, c.lastRefresh.Load())) >= c.ttl
}

func (c *SnapshotCache) reload(ctx context.Context) error {
	campaigns, err := c.store.ScanAll(ctx)
	if err != nil {
		return err
	}
	next := make(campaignSnapshot, len(campaigns))
	for _, campaign := range campaigns {
		next[campaign.ID] = campaign
	}
	c.snapshot.Store(&next)
	c.logger.Debug("campaign cache refreshed", slog.Int("campaigns", len(next)))
	return nil
}
