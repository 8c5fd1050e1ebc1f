// Package budget derives the monthly budget summary and applies budget
// allocations. The summary is a pure function of the live collections; the
// allocator is the only writer of budget limits.
package budget

import (
	"math"
	"time"

	"bilancio/internal/core"
)

// Summarize computes the month-scoped budget summary from the given
// collections. It has no side effects, never mutates its inputs, and is
// cheap enough to call on every read.
func Summarize(txs []core.Transaction, categories []core.Category, wallets []core.Wallet, year int, month time.Month) core.BudgetSummary {
	summary := core.BudgetSummary{Year: year, Month: int(month)}

	for _, tx := range txs {
		if !tx.InMonth(year, month) {
			continue
		}
		switch tx.Type {
		case core.Income:
			summary.TotalIncome = summary.TotalIncome.Add(tx.Amount)
		case core.Expense:
			summary.TotalExpense = summary.TotalExpense.Add(tx.Amount)
		}
		// Transfers move money between wallets without changing the totals.
	}

	for _, c := range categories {
		if c.Type != core.Expense {
			continue
		}
		summary.TotalBudgeted = summary.TotalBudgeted.Add(c.BudgetLimit)
		summary.TotalSpent = summary.TotalSpent.Add(c.Spent)
	}

	var totalBalance core.Money
	for _, w := range wallets {
		totalBalance = totalBalance.Add(w.Balance)
	}
	summary.RemainingToBudget = totalBalance.Sub(summary.TotalBudgeted)

	summary.SavingsPercentage = savingsPercentage(summary.TotalIncome, summary.TotalExpense)
	return summary
}

// savingsPercentage is 0 for a month with no income; a division by zero
// must never surface as NaN in a summary.
func savingsPercentage(income, expense core.Money) int {
	if income.Cents == 0 {
		return 0
	}
	ratio := float64(income.Cents-expense.Cents) / float64(income.Cents)
	return int(math.Round(ratio * 100))
}
