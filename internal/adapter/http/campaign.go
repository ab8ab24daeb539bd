package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rtb-engine/internal/core/domain"
	"rtb-engine/internal/core/port"
)

// campaignDTO is the management wire shape. Monetary amounts are
// decimal currency units on the wire and micro-units in the domain.
type campaignDTO struct {
	ID                string                 `json:"id,omitempty"`
	Name              string                 `json:"name"`
	AdvertiserID      string                 `json:"advertiser_id,omitempty"`
	Status            string                 `json:"status,omitempty"`
	TotalBudget       float64                `json:"total_budget,omitempty"`
	DailyBudget       float64                `json:"daily_budget,omitempty"`
	CurrentSpend      float64                `json:"current_spend,omitempty"`
	TodaySpend        float64                `json:"today_spend,omitempty"`
	BidPrice          float64                `json:"bid_price"`
	MinBid            float64                `json:"min_bid,omitempty"`
	MaxBid            float64                `json:"max_bid,omitempty"`
	Targeting         *domain.TargetingRules `json:"targeting,omitempty"`
	CreativeID        string                 `json:"creative_id,omitempty"`
	AdMarkup          string                 `json:"ad_markup,omitempty"`
	AdvertiserDomains []string               `json:"advertiser_domains,omitempty"`
	StartDate         time.Time              `json:"start_date,omitzero"`
	EndDate           time.Time              `json:"end_date,omitzero"`
}

type budgetStatsDTO struct {
	CurrentSpend         float64  `json:"current_spend"`
	TotalBudget          float64  `json:"total_budget"`
	TodaySpend           float64  `json:"today_spend"`
	DailyBudget          float64  `json:"daily_budget"`
	RemainingBudget      *float64 `json:"remaining_budget,omitempty"`
	RemainingDailyBudget *float64 `json:"remaining_daily_budget,omitempty"`
}

func (dto *campaignDTO) toDomain() *domain.Campaign {
	return &domain.Campaign{
		ID:                dto.ID,
		Name:              dto.Name,
		AdvertiserID:      dto.AdvertiserID,
		Status:            domain.CampaignStatus(dto.Status),
		TotalBudget:       domain.MicrosFromFloat(dto.TotalBudget),
		DailyBudget:       domain.MicrosFromFloat(dto.DailyBudget),
		BidPrice:          domain.MicrosFromFloat(dto.BidPrice),
		MinBid:            domain.MicrosFromFloat(dto.MinBid),
		MaxBid:            domain.MicrosFromFloat(dto.MaxBid),
		Targeting:         dto.Targeting,
		CreativeID:        dto.CreativeID,
		AdMarkup:          dto.AdMarkup,
		AdvertiserDomains: dto.AdvertiserDomains,
		StartDate:         dto.StartDate,
		EndDate:           dto.EndDate,
	}
}

func dtoFromDomain(c *domain.Campaign) campaignDTO {
	return campaignDTO{
		ID:                c.ID,
		Name:              c.Name,
		AdvertiserID:      c.AdvertiserID,
		Status:            string(c.Status),
		TotalBudget:       domain.FloatFromMicros(c.TotalBudget),
		DailyBudget:       domain.FloatFromMicros(c.DailyBudget),
		CurrentSpend:      domain.FloatFromMicros(c.CurrentSpend),
		TodaySpend:        domain.FloatFromMicros(c.TodaySpend),
		BidPrice:          domain.FloatFromMicros(c.BidPrice),
		MinBid:            domain.FloatFromMicros(c.MinBid),
		MaxBid:            domain.FloatFromMicros(c.MaxBid),
		Targeting:         c.Targeting,
		CreativeID:        c.CreativeID,
		AdMarkup:          c.AdMarkup,
		AdvertiserDomains: c.AdvertiserDomains,
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
	}
}

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var dto campaignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	created, err := h.mgmt.CreateCampaign(r.Context(), dto.toDomain())
	if err != nil {
		h.writeMgmtError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, dtoFromDomain(created))
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.mgmt.ListCampaigns(r.Context())
	if err != nil {
		h.writeMgmtError(w, err)
		return
	}
	dtos := make([]campaignDTO, 0, len(campaigns))
	for i := range campaigns {
		dtos = append(dtos, dtoFromDomain(&campaigns[i]))
	}
	writeJSON(w, h.logger, http.StatusOK, dtos)
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.mgmt.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeMgmtError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dtoFromDomain(c))
}

func (h *Handler) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var dto campaignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	dto.ID = chi.URLParam(r, "id")
	updated, err := h.mgmt.UpdateCampaign(r.Context(), dto.toDomain())
	if err != nil {
		h.writeMgmtError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dtoFromDomain(updated))
}

func (h *Handler) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.mgmt.DeleteCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeMgmtError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	err := h.mgmt.SetStatus(r.Context(), chi.URLParam(r, "id"), domain.CampaignStatus(body.Status))
	if err != nil {
		h.writeMgmtError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBudgetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.mgmt.BudgetStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeMgmtError(w, err)
		return
	}
	dto := budgetStatsDTO{
		CurrentSpend: domain.FloatFromMicros(stats.CurrentSpend),
		TotalBudget:  domain.FloatFromMicros(stats.TotalBudget),
		TodaySpend:   domain.FloatFromMicros(stats.TodaySpend),
		DailyBudget:  domain.FloatFromMicros(stats.DailyBudget),
	}
	if stats.RemainingBudget != nil {
		v := domain.FloatFromMicros(*stats.RemainingBudget)
		dto.RemainingBudget = &v
	}
	if stats.RemainingDailyBudget != nil {
		v := domain.FloatFromMicros(*stats.RemainingDailyBudget)
		dto.RemainingDailyBudget = &v
	}
	writeJSON(w, h.logger, http.StatusOK, dto)
}

func (h *Handler) writeMgmtError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, port.ErrCampaignNotFound):
		http.Error(w, "campaign not found", http.StatusNotFound)
	case errors.Is(err, port.ErrInvalidCampaign):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("campaign management error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
