package domain

import "math"

// Monetary amounts are int64 micro-units: one millionth of a currency
// unit. This keeps CPM to per-impression conversion exact (a CPM is
// divisible by 1000 at micro precision down to $0.000001) and makes
// spend arithmetic safe under the store's integer increments.
const MicrosPerUnit = 1_000_000

// CostPerImpression converts a CPM bid price into the cost of a single
// impression. Both values are micro-units.
func CostPerImpression(cpm int64) int64 {
	return cpm / 1000
}

// MicrosFromFloat converts decimal currency units into micro-units,
// rounding to the nearest micro. Used at the wire boundary only; the
// core never does float money math.
func MicrosFromFloat(v float64) int64 {
	return int64(math.Round(v * MicrosPerUnit))
}

// FloatFromMicros converts micro-units back into decimal currency
// units for presentation.
func FloatFromMicros(m int64) float64 {
	return float64(m) / MicrosPerUnit
}
