package httpapi

import (
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type postWalletRequest struct {
	Name         string `json:"name"`
	OpeningCents int64  `json:"opening_cents"`
	Icon         string `json:"icon,omitempty"`
}

type updateWalletRequest struct {
	Name string `json:"name"`
}

type walletResponse struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	BalanceCents int64         `json:"balance_cents"`
	Icon         core.IconKind `json:"icon"`
}

type postCategoryRequest struct {
	Name  string               `json:"name"`
	Type  core.TransactionType `json:"type"`
	Group string               `json:"group,omitempty"`
}

type updateCategoryRequest struct {
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

type putBudgetRequest struct {
	LimitCents int64 `json:"limit_cents"`
}

type allocateRequest struct {
	Allocations map[uuid.UUID]int64 `json:"allocations"`
}

type categoryResponse struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Type        core.TransactionType `json:"type"`
	Group       string               `json:"group,omitempty"`
	BudgetCents int64                `json:"budget_cents"`
	SpentCents  int64                `json:"spent_cents"`
	Icon        core.IconKind        `json:"icon"`
}

type postTransactionRequest struct {
	Type        core.TransactionType `json:"type"`
	AmountCents int64                `json:"amount_cents"`
	Amount      string               `json:"amount,omitempty"`
	Date        time.Time            `json:"date"`
	CategoryID  uuid.UUID            `json:"category_id,omitempty"`
	WalletID    uuid.UUID            `json:"wallet_id"`
	ToWalletID  uuid.UUID            `json:"to_wallet_id,omitempty"`
	Note        string               `json:"note,omitempty"`
}

type transactionResponse struct {
	ID          uuid.UUID            `json:"id"`
	Type        core.TransactionType `json:"type"`
	AmountCents int64                `json:"amount_cents"`
	Date        time.Time            `json:"date"`
	CategoryID  uuid.UUID            `json:"category_id"`
	WalletID    uuid.UUID            `json:"wallet_id"`
	ToWalletID  uuid.UUID            `json:"to_wallet_id"`
	Note        string               `json:"note,omitempty"`
}

type postRuleRequest struct {
	Type        core.TransactionType `json:"type"`
	AmountCents int64                `json:"amount_cents"`
	Amount      string               `json:"amount,omitempty"`
	CategoryID  uuid.UUID            `json:"category_id,omitempty"`
	WalletID    uuid.UUID            `json:"wallet_id"`
	ToWalletID  uuid.UUID            `json:"to_wallet_id,omitempty"`
	Note        string               `json:"note,omitempty"`
	Frequency   core.Frequency       `json:"frequency"`
	StartDate   time.Time            `json:"start_date"`
}

type ruleResponse struct {
	ID          uuid.UUID            `json:"id"`
	Type        core.TransactionType `json:"type"`
	AmountCents int64                `json:"amount_cents"`
	CategoryID  uuid.UUID            `json:"category_id"`
	WalletID    uuid.UUID            `json:"wallet_id"`
	ToWalletID  uuid.UUID            `json:"to_wallet_id"`
	Note        string               `json:"note,omitempty"`
	Frequency   core.Frequency       `json:"frequency"`
	StartDate   time.Time            `json:"start_date"`
	NextDue     time.Time            `json:"next_due"`
}

type summaryResponse struct {
	Year              int   `json:"year"`
	Month             int   `json:"month"`
	IncomeCents       int64 `json:"income_cents"`
	ExpenseCents      int64 `json:"expense_cents"`
	BudgetedCents     int64 `json:"budgeted_cents"`
	SpentCents        int64 `json:"spent_cents"`
	RemainingCents    int64 `json:"remaining_to_budget_cents"`
	SavingsPercentage int   `json:"savings_percentage"`
}

type catchUpResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func toWalletResponse(w core.Wallet) walletResponse {
	return walletResponse{ID: w.ID, Name: w.Name, BalanceCents: w.Balance.Cents, Icon: w.Icon}
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Type:        c.Type,
		Group:       c.Group,
		BudgetCents: c.BudgetLimit.Cents,
		SpentCents:  c.Spent.Cents,
		Icon:        c.Icon,
	}
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        tx.Type,
		AmountCents: tx.Amount.Cents,
		Date:        tx.Date,
		CategoryID:  tx.CategoryID,
		WalletID:    tx.WalletID,
		ToWalletID:  tx.ToWalletID,
		Note:        tx.Note,
	}
}

// requestCents resolves a request amount. Clients send either integer
// "amount_cents" or a decimal "amount" string; the decimal form wins when
// both are present.
func requestCents(decimal string, cents int64) (int64, error) {
	if decimal == "" {
		return cents, nil
	}
	return core.ParseDecimalToCents(decimal)
}

func toTransactionDomain(req postTransactionRequest) (core.Transaction, error) {
	cents, err := requestCents(req.Amount, req.AmountCents)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Type:       req.Type,
		Amount:     core.Money{Cents: cents},
		Date:       req.Date,
		CategoryID: req.CategoryID,
		WalletID:   req.WalletID,
		ToWalletID: req.ToWalletID,
		Note:       req.Note,
	}, nil
}

func toRuleResponse(r core.RecurringRule) ruleResponse {
	return ruleResponse{
		ID:          r.ID,
		Type:        r.Type,
		AmountCents: r.Amount.Cents,
		CategoryID:  r.CategoryID,
		WalletID:    r.WalletID,
		ToWalletID:  r.ToWalletID,
		Note:        r.Note,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate,
		NextDue:     r.NextDue,
	}
}

func toSummaryResponse(s core.BudgetSummary) summaryResponse {
	return summaryResponse{
		Year:              s.Year,
		Month:             s.Month,
		IncomeCents:       s.TotalIncome.Cents,
		ExpenseCents:      s.TotalExpense.Cents,
		BudgetedCents:     s.TotalBudgeted.Cents,
		SpentCents:        s.TotalSpent.Cents,
		RemainingCents:    s.RemainingToBudget.Cents,
		SavingsPercentage: s.SavingsPercentage,
	}
}
