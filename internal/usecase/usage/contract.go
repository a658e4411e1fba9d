package usage

// BudgetReader provides read-only access to embedding spend counters.
type BudgetReader interface {
	DailyLimit() int64
	MonthlyLimit() int64
	DailyUsed() int64
	MonthlyUsed() int64
	RemainingDaily() int64
	RemainingMonthly() int64
	RequestsDaily() int64
	RequestsMonthly() int64
}
