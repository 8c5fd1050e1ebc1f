package core

// BudgetSummary is a derived monthly financial snapshot. It is computed on
// demand from the live transaction and category collections and never
// persisted or cached across mutations.
type BudgetSummary struct {
	Year              int
	Month             int // 1-12
	TotalIncome       Money
	TotalExpense      Money
	TotalBudgeted     Money
	TotalSpent        Money
	RemainingToBudget Money
	SavingsPercentage int
}
