// Package storage defines the store gateway the engine persists through.
// Implementations live in the sqlite and memory subpackages; the engine
// trusts whatever aggregates the gateway returns, which is why the ledger
// reloads after every write instead of patching local deltas.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// TransactionFilter narrows transaction listings. A zero filter returns
// everything.
type TransactionFilter struct {
	Year  int
	Month time.Month
}

// WalletStore is the wallet persistence surface. Wallets come back with
// Balance already derived from the transaction set (opening balance plus
// the signed sum of non-deleted transactions touching the wallet).
type WalletStore interface {
	Wallets(ctx context.Context) ([]core.Wallet, error)
	Wallet(ctx context.Context, id uuid.UUID) (core.Wallet, error)
	CreateWallet(ctx context.Context, w core.Wallet) (core.Wallet, error)
	UpdateWallet(ctx context.Context, id uuid.UUID, name string, icon core.IconKind) (core.Wallet, error)
	DeleteWallet(ctx context.Context, id uuid.UUID) error
}

// CategoryStore is the category persistence surface. Categories come back
// with Spent computed for the requested month.
type CategoryStore interface {
	Categories(ctx context.Context, year int, month time.Month) ([]core.Category, error)
	Category(ctx context.Context, id uuid.UUID) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, group string) (core.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	UpdateBudgetLimit(ctx context.Context, id uuid.UUID, limit core.Money) error
	AllocateBudgets(ctx context.Context, allocations map[uuid.UUID]core.Money, year int, month time.Month) error
}

// TransactionStore is the transaction persistence surface. Deletes are
// soft: removed rows stop counting toward aggregates but stay on disk.
type TransactionStore interface {
	Transactions(ctx context.Context, filter TransactionFilter) ([]core.Transaction, error)
	Transaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// RuleStore is the recurring-rule persistence surface. NextDue updates are
// a dedicated operation because the scheduler persists progress after every
// catch-up step.
type RuleStore interface {
	Rules(ctx context.Context) ([]core.RecurringRule, error)
	CreateRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error)
	UpdateRuleNextDue(ctx context.Context, id uuid.UUID, next time.Time) error
	DeleteRule(ctx context.Context, id uuid.UUID) error
}

// Gateway is the full store surface used for wiring. Services depend on
// the narrow interfaces above.
type Gateway interface {
	WalletStore
	CategoryStore
	TransactionStore
	RuleStore
}
