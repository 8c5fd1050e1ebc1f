package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/errs"
	"bilancio/internal/ledger"
)

// Store is the persistence surface the allocator needs.
type Store interface {
	Category(ctx context.Context, id uuid.UUID) (core.Category, error)
	UpdateBudgetLimit(ctx context.Context, id uuid.UUID, limit core.Money) error
	AllocateBudgets(ctx context.Context, allocations map[uuid.UUID]core.Money, year int, month time.Month) error
}

// Allocator distributes the available money pool across expense category
// budgets. Every check runs before the first store call, so a rejected
// allocation leaves the store untouched.
type Allocator struct {
	store Store
	view  *ledger.View
}

func NewAllocator(store Store, view *ledger.View) *Allocator {
	return &Allocator{store: store, view: view}
}

// Allocate assigns a budget limit to each given expense category for the
// selected month. The sum of the allocations must not exceed the pool of
// money across all wallets; overshooting is rejected with
// ErrInsufficientFunds before anything is written.
func (a *Allocator) Allocate(ctx context.Context, allocations map[uuid.UUID]core.Money) error {
	if len(allocations) == 0 {
		return fmt.Errorf("%w: no allocations given", errs.ErrInvalid)
	}

	var total core.Money
	for id, amount := range allocations {
		if amount.Cents < 0 {
			return fmt.Errorf("%w: negative allocation for category %s", errs.ErrInvalid, id)
		}
		cat, err := a.store.Category(ctx, id)
		if err != nil {
			return fmt.Errorf("resolve category %s: %w", id, err)
		}
		if cat.Type != core.Expense {
			return fmt.Errorf("%w: category %q is not an expense category", errs.ErrInvalid, cat.Name)
		}
		total = total.Add(amount)
	}

	available := a.view.TotalBalance()
	if total.Cents > available.Cents {
		return fmt.Errorf("%w: allocating %d cents with %d available", errs.ErrInsufficientFunds, total.Cents, available.Cents)
	}

	year, month := a.view.Month()
	if err := a.store.AllocateBudgets(ctx, allocations, year, month); err != nil {
		return fmt.Errorf("persist allocations: %w", err)
	}

	for id, amount := range allocations {
		a.view.SetBudgetLimit(id, amount)
	}

	slog.InfoContext(ctx, "Budgets allocated",
		"categories", len(allocations), "total_cents", total.Cents, "year", year, "month", int(month))
	return nil
}

// UpdateCategoryBudget sets a single category's limit. Unlike Allocate it
// does not check the limit against the wallet pool; the guard applies to
// the batch allocation flow only.
func (a *Allocator) UpdateCategoryBudget(ctx context.Context, id uuid.UUID, limit core.Money) error {
	if limit.Cents < 0 {
		return fmt.Errorf("%w: negative budget limit", errs.ErrInvalid)
	}
	cat, err := a.store.Category(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve category %s: %w", id, err)
	}
	if cat.Type != core.Expense {
		return fmt.Errorf("%w: category %q is not an expense category", errs.ErrInvalid, cat.Name)
	}

	if err := a.store.UpdateBudgetLimit(ctx, id, limit); err != nil {
		return fmt.Errorf("update budget limit: %w", err)
	}
	a.view.SetBudgetLimit(id, limit)
	return nil
}
