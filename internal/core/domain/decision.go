package domain

// NoBidReason explains why the engine declined to bid. Codes 0-8 follow
// the OpenRTB 2.5 no-bid reason table; 500+ is the exchange-private
// range.
type NoBidReason int

const (
	NoBidUnknown        NoBidReason = 0
	NoBidTechnicalError NoBidReason = 1
	NoBidInvalidRequest NoBidReason = 2
	NoBidUnmatchedUser  NoBidReason = 8

	// NoBidBudgetExceeded reports a reservation that lost the budget
	// race after campaign selection.
	NoBidBudgetExceeded NoBidReason = 500
)

// Bid is the winning side of a decision.
type Bid struct {
	ID                string
	ImpressionID      string
	CampaignID        string
	CreativeID        string
	Price             int64 // CPM, micro-units
	AdMarkup          string
	AdvertiserDomains []string
}

// Decision is the outcome of one bid request: either a single Bid or a
// NoBid with a reason. It lives for the duration of the request and is
// never retained.
type Decision struct {
	RequestID string
	Bid       *Bid
	Reason    NoBidReason
}

// IsBid reports whether the decision carries a bid.
func (d *Decision) IsBid() bool {
	return d.Bid != nil
}

// NoBid builds a declining decision for the given request.
func NoBid(requestID string, reason NoBidReason) *Decision {
	return &Decision{RequestID: requestID, Reason: reason}
}
