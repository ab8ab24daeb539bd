package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rtb-engine/internal/core/port"
)

// Handler contains dependencies and routes. It is the inbound HTTP
// adapter: the bid endpoint is the hot path, everything else is the
// management surface. Routes are registered on a chi.Router.
type Handler struct {
	bidder    port.BidUseCase
	mgmt      port.CampaignUseCase
	refresher port.CacheRefresher
	logger    *slog.Logger
	router    chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(bidder port.BidUseCase, mgmt port.CampaignUseCase, refresher port.CacheRefresher, logger *slog.Logger) *Handler {
	h := &Handler{bidder: bidder, mgmt: mgmt, refresher: refresher, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/bid", h.handleBid)
		r.Get("/health", h.handleHealth)
		r.Post("/cache/refresh", h.handleCacheRefresh)

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.handleCreateCampaign)
			r.Get("/", h.handleListCampaigns)
			r.Get("/{id}", h.handleGetCampaign)
			r.Put("/{id}", h.handleUpdateCampaign)
			r.Delete("/{id}", h.handleDeleteCampaign)
			r.Post("/{id}/status", h.handleSetStatus)
			r.Get("/{id}/budget", h.handleBudgetStats)
		})
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"status":  "up",
		"service": "rtb-engine",
	})
}

func (h *Handler) handleCacheRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.RefreshNow(r.Context()); err != nil {
		h.logger.Error("forced cache refresh failed", slog.Any("error", err))
		http.Error(w, "refresh failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
