package domain

import (
	"slices"
	"time"
)

// TargetingRules describes who a campaign should be shown to. An empty
// or absent slice on a dimension means the dimension is unrestricted;
// BlockedDomains is the exception and excludes membership.
type TargetingRules struct {
	// Geo targeting
	Countries []string `json:"countries,omitempty"` // ISO country codes
	Regions   []string `json:"regions,omitempty"`
	Cities    []string `json:"cities,omitempty"`

	// Device targeting
	DeviceTypes      []int    `json:"device_types,omitempty"` // 1=mobile, 2=PC, 3=TV, ...
	OperatingSystems []string `json:"operating_systems,omitempty"`
	Browsers         []string `json:"browsers,omitempty"`

	// Site/app targeting
	Domains        []string `json:"domains,omitempty"`         // allowlist
	BlockedDomains []string `json:"blocked_domains,omitempty"` // blocklist, wins over allowlist

	// Time targeting (UTC)
	DaysOfWeek []int `json:"days_of_week,omitempty"` // 0=Sunday .. 6=Saturday
	HourStart  *int  `json:"hour_start,omitempty"`   // 0-23
	HourEnd    *int  `json:"hour_end,omitempty"`     // 0-23, may be < HourStart (wraps midnight)
}

// Matches evaluates the rules against a bid context. It is pure and
// allocation-free. Dimensions are checked cheapest-and-most-selective
// first with an early exit: geography, device, time window, then
// site/domain.
//
// When the context lacks a dimension entirely (no geo block, no device
// block, no domain) the campaign matches only if that dimension is also
// untargeted; absent evidence never satisfies a restriction.
func (t *TargetingRules) Matches(bc *BidContext, now time.Time) bool {
	if t == nil {
		return true
	}
	if !t.matchesGeography(bc) {
		return false
	}
	if !t.matchesDevice(bc) {
		return false
	}
	if !t.matchesTimeWindow(now) {
		return false
	}
	return t.matchesSite(bc)
}

func (t *TargetingRules) matchesGeography(bc *BidContext) bool {
	if bc.Geo == nil {
		return len(t.Countries) == 0 && len(t.Regions) == 0 && len(t.Cities) == 0
	}
	if len(t.Countries) > 0 {
		if bc.Geo.Country == "" || !slices.Contains(t.Countries, bc.Geo.Country) {
			return false
		}
	}
	if len(t.Regions) > 0 {
		if bc.Geo.Region == "" || !slices.Contains(t.Regions, bc.Geo.Region) {
			return false
		}
	}
	if len(t.Cities) > 0 {
		if bc.Geo.City == "" || !slices.Contains(t.Cities, bc.Geo.City) {
			return false
		}
	}
	return true
}

func (t *TargetingRules) matchesDevice(bc *BidContext) bool {
	if bc.Device == nil {
		return len(t.DeviceTypes) == 0 && len(t.OperatingSystems) == 0 && len(t.Browsers) == 0
	}
	if len(t.DeviceTypes) > 0 {
		if bc.Device.Type == 0 || !slices.Contains(t.DeviceTypes, bc.Device.Type) {
			return false
		}
	}
	if len(t.OperatingSystems) > 0 {
		if bc.Device.OS == "" || !slices.Contains(t.OperatingSystems, bc.Device.OS) {
			return false
		}
	}
	if len(t.Browsers) > 0 {
		if bc.Device.Browser == "" || !slices.Contains(t.Browsers, bc.Device.Browser) {
			return false
		}
	}
	return true
}

func (t *TargetingRules) matchesTimeWindow(now time.Time) bool {
	now = now.UTC()
	if len(t.DaysOfWeek) > 0 {
		if !slices.Contains(t.DaysOfWeek, int(now.Weekday())) {
			return false
		}
	}
	if t.HourStart != nil && t.HourEnd != nil {
		hour := now.Hour()
		start, end := *t.HourStart, *t.HourEnd
		if start <= end {
			// same-day window, e.g. 9-17
			if hour < start || hour > end {
				return false
			}
		} else {
			// wraps midnight, e.g. 22-6 means [22,24) plus [0,6]
			if hour > end && hour < start {
				return false
			}
		}
	}
	return true
}

func (t *TargetingRules) matchesSite(bc *BidContext) bool {
	if bc.Domain == "" {
		return len(t.Domains) == 0 && len(t.BlockedDomains) == 0
	}
	// Blocklist is checked first and wins unconditionally.
	if slices.Contains(t.BlockedDomains, bc.Domain) {
		return false
	}
	if len(t.Domains) > 0 && !slices.Contains(t.Domains, bc.Domain) {
		return false
	}
	return true
}
