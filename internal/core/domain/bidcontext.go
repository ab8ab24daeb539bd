package domain

import "time"

// BidContext is the abstracted bid request the decision pipeline works
// on. The transport layer builds one per request from its wire format;
// it is read-only for every component and discarded after the decision.
type BidContext struct {
	// RequestID is the exchange-assigned request identifier.
	RequestID string

	// ImpressionID identifies the impression being bid on. Empty means
	// the request carried nothing biddable and is invalid.
	ImpressionID string

	// Geo is nil when the request carried no geo data at all.
	Geo *Geo

	// Device is nil when the request carried no device data.
	Device *Device

	// Domain is the site domain or app bundle, empty when absent.
	Domain string

	// Timestamp is the decision instant; the zero value means "now".
	Timestamp time.Time
}

// Geo carries the location of the requesting device.
type Geo struct {
	Country string
	Region  string
	City    string
}

// Device carries device attributes relevant to targeting. Type follows
// the OpenRTB device type table (1=mobile, 2=PC, 3=TV, ...); zero means
// unknown.
type Device struct {
	Type    int
	OS      string
	Browser string
}

// At returns the effective decision instant.
func (bc *BidContext) At() time.Time {
	if bc.Timestamp.IsZero() {
		return time.Now()
	}
	return bc.Timestamp
}
