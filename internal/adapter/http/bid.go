package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rtb-engine/internal/core/domain"
)

// Wire shapes for the bid endpoint, a simplified OpenRTB 2.5 subset.
// This layer is pure translation: the pipeline only ever sees a
// domain.BidContext.

type bidRequestDTO struct {
	ID     string     `json:"id"`
	Imp    []impDTO   `json:"imp"`
	Site   *siteDTO   `json:"site,omitempty"`
	App    *appDTO    `json:"app,omitempty"`
	Device *deviceDTO `json:"device,omitempty"`
}

type impDTO struct {
	ID       string  `json:"id"`
	BidFloor float64 `json:"bidfloor,omitempty"`
}

type siteDTO struct {
	ID     string `json:"id,omitempty"`
	Domain string `json:"domain,omitempty"`
}

type appDTO struct {
	ID     string `json:"id,omitempty"`
	Bundle string `json:"bundle,omitempty"`
}

type deviceDTO struct {
	UA         string  `json:"ua,omitempty"`
	DeviceType int     `json:"devicetype,omitempty"`
	OS         string  `json:"os,omitempty"`
	Geo        *geoDTO `json:"geo,omitempty"`
}

type geoDTO struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

type bidResponseDTO struct {
	ID      string       `json:"id"`
	SeatBid []seatBidDTO `json:"seatbid,omitempty"`
	Cur     string       `json:"cur,omitempty"`
	BidID   string       `json:"bidid,omitempty"`
	NBR     *int         `json:"nbr,omitempty"`
}

type seatBidDTO struct {
	Bid  []bidDTO `json:"bid"`
	Seat string   `json:"seat,omitempty"`
}

type bidDTO struct {
	ID      string   `json:"id"`
	ImpID   string   `json:"impid"`
	Price   float64  `json:"price"` // CPM, currency units
	CID     string   `json:"cid,omitempty"`
	CrID    string   `json:"crid,omitempty"`
	AdM     string   `json:"adm,omitempty"`
	ADomain []string `json:"adomain,omitempty"`
}

// handleBid decodes a bid request, runs the decision pipeline and
// writes the response. It always answers 200 with a JSON body: a no-bid
// carries an nbr reason code instead of an error status, matching what
// exchanges expect.
func (h *Handler) handleBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	decision := h.bidder.Decide(r.Context(), req.toBidContext())
	writeJSON(w, h.logger, http.StatusOK, responseFromDecision(decision))
}

func (r *bidRequestDTO) toBidContext() *domain.BidContext {
	bc := &domain.BidContext{
		RequestID: r.ID,
		Timestamp: time.Now().UTC(),
	}
	if len(r.Imp) > 0 {
		bc.ImpressionID = r.Imp[0].ID
	}
	if r.Site != nil {
		bc.Domain = r.Site.Domain
	} else if r.App != nil {
		bc.Domain = r.App.Bundle
	}
	if r.Device != nil {
		bc.Device = &domain.Device{
			Type:    r.Device.DeviceType,
			OS:      r.Device.OS,
			Browser: browserFromUA(r.Device.UA),
		}
		if r.Device.Geo != nil {
			bc.Geo = &domain.Geo{
				Country: r.Device.Geo.Country,
				Region:  r.Device.Geo.Region,
				City:    r.Device.Geo.City,
			}
		}
	}
	return bc
}

func responseFromDecision(d *domain.Decision) bidResponseDTO {
	if !d.IsBid() {
		nbr := int(d.Reason)
		return bidResponseDTO{ID: d.RequestID, NBR: &nbr}
	}
	return bidResponseDTO{
		ID:    d.RequestID,
		Cur:   "USD",
		BidID: d.Bid.ID,
		SeatBid: []seatBidDTO{{
			Bid: []bidDTO{{
				ID:      d.Bid.ID,
				ImpID:   d.Bid.ImpressionID,
				Price:   domain.FloatFromMicros(d.Bid.Price),
				CID:     d.Bid.CampaignID,
				CrID:    d.Bid.CreativeID,
				AdM:     d.Bid.AdMarkup,
				ADomain: d.Bid.AdvertiserDomains,
			}},
		}},
	}
}

// browserFromUA derives a coarse browser name by cheap substring
// matching. A full user-agent parser costs too much on the hot path;
// this covers the browsers campaigns actually target.
func browserFromUA(ua string) string {
	if ua == "" {
		return ""
	}
	l := strings.ToLower(ua)
	switch {
	case strings.Contains(l, "edg"):
		return "Edge"
	case strings.Contains(l, "chrome"):
		return "Chrome"
	case strings.Contains(l, "safari"):
		return "Safari"
	case strings.Contains(l, "firefox"):
		return "Firefox"
	case strings.Contains(l, "msie"), strings.Contains(l, "trident"):
		return "IE"
	}
	return "Other"
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// encoding should rarely fail; log and move on
		logger.Error("encode response error", slog.Any("error", err))
	}
}
