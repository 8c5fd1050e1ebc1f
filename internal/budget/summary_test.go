package budget

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func tx(t core.TransactionType, cents int64, date time.Time) core.Transaction {
	return core.Transaction{
		ID:     uuid.New(),
		Type:   t,
		Amount: money(cents),
		Date:   date,
	}
}

func TestSummarize(t *testing.T) {
	jan := func(day int) time.Time {
		return time.Date(2026, time.January, day, 12, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		txs        []core.Transaction
		categories []core.Category
		wallets    []core.Wallet
		want       core.BudgetSummary
	}{
		{
			name: "income and expense in month",
			txs: []core.Transaction{
				tx(core.Income, 250_000, jan(1)),
				tx(core.Expense, 100_000, jan(10)),
				tx(core.Expense, 50_000, jan(20)),
			},
			want: core.BudgetSummary{
				Year: 2026, Month: 1,
				TotalIncome:       money(250_000),
				TotalExpense:      money(150_000),
				SavingsPercentage: 40,
			},
		},
		{
			name: "transfers do not count",
			txs: []core.Transaction{
				tx(core.Income, 100_000, jan(1)),
				tx(core.Transfer, 75_000, jan(2)),
			},
			want: core.BudgetSummary{
				Year: 2026, Month: 1,
				TotalIncome:       money(100_000),
				SavingsPercentage: 100,
			},
		},
		{
			name: "transactions outside the month are ignored",
			txs: []core.Transaction{
				tx(core.Expense, 30_000, jan(15)),
				tx(core.Expense, 99_000, time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)),
				tx(core.Income, 99_000, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)),
			},
			want: core.BudgetSummary{
				Year: 2026, Month: 1,
				TotalExpense:      money(30_000),
				SavingsPercentage: 0,
			},
		},
		{
			name: "zero income month reports zero savings rate",
			txs: []core.Transaction{
				tx(core.Expense, 80_000, jan(5)),
			},
			want: core.BudgetSummary{
				Year: 2026, Month: 1,
				TotalExpense:      money(80_000),
				SavingsPercentage: 0,
			},
		},
		{
			name: "budgeted and spent roll up over expense categories only",
			categories: []core.Category{
				{ID: uuid.New(), Name: "Food", Type: core.Expense, BudgetLimit: money(40_000), Spent: money(12_000)},
				{ID: uuid.New(), Name: "Rent", Type: core.Expense, BudgetLimit: money(90_000), Spent: money(90_000)},
				{ID: uuid.New(), Name: "Salary", Type: core.Income, BudgetLimit: money(999_999)},
			},
			wallets: []core.Wallet{
				{ID: uuid.New(), Name: "Main", Balance: money(200_000)},
			},
			want: core.BudgetSummary{
				Year: 2026, Month: 1,
				TotalBudgeted:     money(130_000),
				TotalSpent:        money(102_000),
				RemainingToBudget: money(70_000),
				SavingsPercentage: 0,
			},
		},
		{
			name: "remaining can go negative when over-budgeted",
			categories: []core.Category{
				{ID: uuid.New(), Name: "Rent", Type: core.Expense, BudgetLimit: money(90_000)},
			},
			wallets: []core.Wallet{
				{ID: uuid.New(), Name: "Main", Balance: money(50_000)},
			},
			want: core.BudgetSummary{
				Year: 2026, Month: 1,
				TotalBudgeted:     money(90_000),
				RemainingToBudget: money(-40_000),
				SavingsPercentage: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.txs, tt.categories, tt.wallets, 2026, time.January)
			if got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarizeDoesNotMutateInputs(t *testing.T) {
	cats := []core.Category{
		{ID: uuid.New(), Name: "Food", Type: core.Expense, BudgetLimit: money(10_000)},
	}
	wallets := []core.Wallet{{ID: uuid.New(), Name: "Main", Balance: money(5_000)}}
	before := cats[0]

	Summarize(nil, cats, wallets, 2026, time.March)

	if cats[0] != before {
		t.Errorf("category mutated: %+v != %+v", cats[0], before)
	}
}

func TestSavingsPercentageRounding(t *testing.T) {
	tests := []struct {
		name    string
		income  int64
		expense int64
		want    int
	}{
		{"no income", 0, 50_000, 0},
		{"all saved", 100_000, 0, 100},
		{"overspent goes negative", 100_000, 150_000, -50},
		{"rounds half up", 100_000, 33_500, 67}, // 66.5 -> 67
		{"rounds down", 300_000, 200_000, 33},   // 33.33 -> 33
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := savingsPercentage(money(tt.income), money(tt.expense))
			if got != tt.want {
				t.Errorf("savingsPercentage(%d, %d) = %d, want %d", tt.income, tt.expense, got, tt.want)
			}
		})
	}
}
