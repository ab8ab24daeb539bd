package domain

// ReservationFailure distinguishes the ways a budget reservation fails.
type ReservationFailure string

const (
	FailureNone                ReservationFailure = ""
	FailureTotalBudgetExceeded ReservationFailure = "total_budget_exceeded"
	FailureDailyBudgetExceeded ReservationFailure = "daily_budget_exceeded"
	FailureCampaignNotFound    ReservationFailure = "campaign_not_found"
	FailureTechnicalError      ReservationFailure = "technical_error"
)

// BudgetExceeded reports whether the failure is an expected budget-race
// outcome rather than a lookup or store problem.
func (f ReservationFailure) BudgetExceeded() bool {
	return f == FailureTotalBudgetExceeded || f == FailureDailyBudgetExceeded
}

// BudgetReservation is the immutable outcome of one reservation attempt.
// On success it carries the spend counters as returned by the store's
// atomic add, so they include this reservation's own cost.
type BudgetReservation struct {
	OK           bool
	CurrentSpend int64
	TodaySpend   int64
	Reason       ReservationFailure
}

// ReservationSuccess builds a successful reservation outcome.
func ReservationSuccess(currentSpend, todaySpend int64) BudgetReservation {
	return BudgetReservation{OK: true, CurrentSpend: currentSpend, TodaySpend: todaySpend}
}

// ReservationFailed builds a failed reservation outcome.
func ReservationFailed(reason ReservationFailure) BudgetReservation {
	return BudgetReservation{Reason: reason}
}
