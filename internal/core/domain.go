package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
	Weekly  Frequency = "weekly"
	Daily   Frequency = "daily"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

type (
	// Frequency enumerates how often a recurring rule materializes.
	Frequency string

	// TransactionType classifies the direction of a transaction.
	TransactionType string

	Money struct {
		Cents int64
	}

	// Wallet holds money. Balance is a cached derived value: the authoritative
	// truth is the signed sum of all non-deleted transactions touching the
	// wallet, recomputed by the store and reloaded after every mutation.
	Wallet struct {
		ID      uuid.UUID
		Name    string
		Balance Money
		Icon    IconKind
	}

	// Category groups transactions. Spent is derived and scoped to the month
	// it was read for; a zero BudgetLimit means unset.
	Category struct {
		ID          uuid.UUID
		Name        string
		Type        TransactionType // income or expense
		Group       string
		BudgetLimit Money
		Icon        IconKind
		Spent       Money
	}

	// Transaction is a single ledger movement. Amount is a positive magnitude;
	// Type determines its sign against the wallet balance. ToWalletID is set
	// for transfers only.
	Transaction struct {
		ID         uuid.UUID
		Type       TransactionType
		Amount     Money
		Date       time.Time
		CategoryID uuid.UUID
		WalletID   uuid.UUID
		ToWalletID uuid.UUID
		Note       string
	}

	// RecurringRule is a transaction template plus a frequency. NextDue is the
	// catch-up cursor; StartDate anchors calendar advancement (day of month,
	// and month for yearly rules). A rule never mutates wallets or categories
	// directly, it only asks the ledger to create concrete transactions.
	RecurringRule struct {
		ID         uuid.UUID
		Type       TransactionType
		Amount     Money
		CategoryID uuid.UUID
		WalletID   uuid.UUID
		ToWalletID uuid.UUID
		Note       string
		Frequency  Frequency
		StartDate  time.Time
		NextDue    time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidDate     = errors.New("invalid date")
	ErrMissingWallet   = errors.New("missing wallet reference")
	ErrMissingCategory = errors.New("missing category reference")
	ErrSameWallet      = errors.New("transfer wallets must differ")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidFreq     = errors.New("invalid frequency")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense, Transfer:
		return nil
	default:
		return ErrInvalidType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFreq
	}
}

func (w Wallet) Validate() error {
	if len(strings.TrimSpace(w.Name)) == 0 {
		return ErrEmptyName
	}
	if len(w.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	switch c.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if c.BudgetLimit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.WalletID == uuid.Nil {
		return ErrMissingWallet
	}
	if t.Type == Transfer {
		if t.ToWalletID == uuid.Nil {
			return ErrMissingWallet
		}
		if t.ToWalletID == t.WalletID {
			return ErrSameWallet
		}
	} else if t.CategoryID == uuid.Nil {
		return ErrMissingCategory
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.StartDate.IsZero() || r.NextDue.IsZero() {
		return ErrInvalidDate
	}
	// The template must form a valid transaction once a date is attached.
	return r.Template(r.NextDue).Validate()
}

// Template materializes the rule into a concrete transaction dated at due.
// The transaction ID is left nil; the store assigns it on creation.
func (r RecurringRule) Template(due time.Time) Transaction {
	return Transaction{
		Type:       r.Type,
		Amount:     r.Amount,
		Date:       due,
		CategoryID: r.CategoryID,
		WalletID:   r.WalletID,
		ToWalletID: r.ToWalletID,
		Note:       r.Note,
	}
}

// Signed returns the transaction's effect on its owning wallet's balance:
// positive for income, negative for expenses and outgoing transfers.
func (t Transaction) Signed() int64 {
	if t.Type == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

// InMonth reports whether the transaction date falls within year+month.
func (t Transaction) InMonth(year int, month time.Month) bool {
	return t.Date.Year() == year && t.Date.Month() == month
}
