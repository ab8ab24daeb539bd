package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"rtb-engine/internal/adapter/redisstore"
	"rtb-engine/internal/adapter/usecase"
	"rtb-engine/internal/core/domain"
)

// newTestServer wires the real stack over miniredis so the handler
// tests cover the whole request path, not just routing.
func newTestServer(t *testing.T) (*httptest.Server, *redisstore.CampaignStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := redisstore.NewCampaignStore(client)
	cache := usecase.NewSnapshotCache(store, logger, time.Hour)
	ledger := usecase.NewBudgetLedger(store, logger, 0.99)
	engine := usecase.NewBidEngine(cache, ledger, logger, 0)
	manager := usecase.NewCampaignManager(store, cache, ledger, logger)

	handler := NewHandler(engine, manager, engine, logger)
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	require.Equal(t, "up", body["status"])
}

// TestBidEndpoint posts an OpenRTB-style request against a seeded
// campaign and checks the seatbid response, then checks the no-bid
// shape for an unmatched request.
func TestBidEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	c := &domain.Campaign{
		ID:         "c1",
		Name:       "USA mobile",
		Status:     domain.StatusActive,
		BidPrice:   domain.MicrosFromFloat(2.50),
		Targeting:  &domain.TargetingRules{Countries: []string{"USA"}},
		CreativeID: "cr-1",
		AdMarkup:   "<div>ad</div>",
	}
	require.NoError(t, store.Put(ctx, c))
	// Load the snapshot through the management surface.
	resp, err := http.Post(srv.URL+"/api/v1/cache/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	req := bidRequestDTO{
		ID:  "req-1",
		Imp: []impDTO{{ID: "imp-1"}},
		Site: &siteDTO{Domain: "news.example"},
		Device: &deviceDTO{
			UA:  "Mozilla/5.0 Chrome/120",
			Geo: &geoDTO{Country: "USA"},
		},
	}
	resp = postJSON(t, srv.URL+"/api/v1/bid", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[bidResponseDTO](t, resp)
	require.Equal(t, "req-1", out.ID)
	require.Nil(t, out.NBR)
	require.Len(t, out.SeatBid, 1)
	require.Len(t, out.SeatBid[0].Bid, 1)
	bid := out.SeatBid[0].Bid[0]
	require.Equal(t, "imp-1", bid.ImpID)
	require.Equal(t, "c1", bid.CID)
	require.Equal(t, 2.5, bid.Price)
	require.Equal(t, "<div>ad</div>", bid.AdM)

	// Geo mismatch comes back as a 200 no-bid with a reason code.
	req.ID = "req-2"
	req.Device.Geo.Country = "UK"
	resp = postJSON(t, srv.URL+"/api/v1/bid", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decode[bidResponseDTO](t, resp)
	require.Empty(t, out.SeatBid)
	require.NotNil(t, out.NBR)
	require.Equal(t, int(domain.NoBidUnmatchedUser), *out.NBR)
}

func TestBidEndpointInvalidRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	// No impressions.
	resp := postJSON(t, srv.URL+"/api/v1/bid", bidRequestDTO{ID: "req-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[bidResponseDTO](t, resp)
	require.NotNil(t, out.NBR)
	require.Equal(t, int(domain.NoBidInvalidRequest), *out.NBR)

	// Broken JSON is the one case that earns a 400.
	resp2, err := http.Post(srv.URL+"/api/v1/bid", "application/json", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

// TestCampaignLifecycle walks the management surface end to end:
// create, activate, bid, inspect budget, delete.
func TestCampaignLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/v1/campaigns"

	resp := postJSON(t, base+"/", campaignDTO{
		Name:        "Lifecycle",
		TotalBudget: 1.00,
		BidPrice:    2.50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[campaignDTO](t, resp)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "draft", created.Status)

	resp = postJSON(t, base+"/"+created.ID+"/status", map[string]string{"status": "active"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	bidResp := postJSON(t, srv.URL+"/api/v1/bid", bidRequestDTO{
		ID:  "req-1",
		Imp: []impDTO{{ID: "imp-1"}},
	})
	require.Equal(t, http.StatusOK, bidResp.StatusCode)
	out := decode[bidResponseDTO](t, bidResp)
	require.Len(t, out.SeatBid, 1)
	require.Equal(t, created.ID, out.SeatBid[0].Bid[0].CID)

	resp2, err := http.Get(base + "/" + created.ID + "/budget")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	stats := decode[budgetStatsDTO](t, resp2)
	require.Equal(t, 0.0025, stats.CurrentSpend)
	require.NotNil(t, stats.RemainingBudget)
	require.Equal(t, 0.9975, *stats.RemainingBudget)

	delReq, err := http.NewRequest(http.MethodDelete, base+"/"+created.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(delReq)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)

	getResp, err := http.Get(base + "/" + created.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestCampaignValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/v1/campaigns"

	// Missing bid price.
	resp := postJSON(t, base+"/", campaignDTO{Name: "bad"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Get(base + "/does-not-exist")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
