// Package memory provides a simple in-memory store used for development and
// tests. Aggregates (wallet balances, category spend) are computed on read
// from the live transaction set, so the store is always internally
// consistent; the sqlite backend derives the same figures with SQL.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/errs"
	"bilancio/internal/storage"
)

// Store is an in-memory implementation of storage.Gateway guarded by an
// RWMutex for concurrent reads/writes.
type Store struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]core.Wallet // Balance field holds the opening balance
	cats    map[uuid.UUID]core.Category
	txs     map[uuid.UUID]core.Transaction
	deleted map[uuid.UUID]struct{} // soft-deleted transaction ids
	rules   map[uuid.UUID]core.RecurringRule
	// allocations: (year, month) -> category -> amount
	allocations map[allocKey]map[uuid.UUID]core.Money
}

type allocKey struct {
	Year  int
	Month time.Month
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		wallets:     make(map[uuid.UUID]core.Wallet),
		cats:        make(map[uuid.UUID]core.Category),
		txs:         make(map[uuid.UUID]core.Transaction),
		deleted:     make(map[uuid.UUID]struct{}),
		rules:       make(map[uuid.UUID]core.RecurringRule),
		allocations: make(map[allocKey]map[uuid.UUID]core.Money),
	}
}

var _ storage.Gateway = (*Store)(nil)

// Seed helpers for local dev/tests.
func (s *Store) SeedWallet(w core.Wallet) { s.mu.Lock(); s.wallets[w.ID] = w; s.mu.Unlock() }

func (s *Store) SeedCategory(c core.Category) { s.mu.Lock(); s.cats[c.ID] = c; s.mu.Unlock() }

func (s *Store) SeedRule(r core.RecurringRule) { s.mu.Lock(); s.rules[r.ID] = r; s.mu.Unlock() }

// balanceLocked derives a wallet's balance: opening balance plus the signed
// sum of all non-deleted transactions touching it. Caller holds s.mu.
func (s *Store) balanceLocked(id uuid.UUID) int64 {
	w := s.wallets[id]
	total := w.Balance.Cents
	for txID, tx := range s.txs {
		if _, gone := s.deleted[txID]; gone {
			continue
		}
		if tx.WalletID == id {
			total += tx.Signed()
		}
		if tx.Type == core.Transfer && tx.ToWalletID == id {
			total += tx.Amount.Cents
		}
	}
	return total
}

// spentLocked derives a category's month-scoped spend. Caller holds s.mu.
func (s *Store) spentLocked(id uuid.UUID, year int, month time.Month) int64 {
	var total int64
	for txID, tx := range s.txs {
		if _, gone := s.deleted[txID]; gone {
			continue
		}
		if tx.Type == core.Expense && tx.CategoryID == id && tx.InMonth(year, month) {
			total += tx.Amount.Cents
		}
	}
	return total
}

// Wallets implements storage.WalletStore.
func (s *Store) Wallets(_ context.Context) ([]core.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Wallet, 0, len(s.wallets))
	for id, w := range s.wallets {
		w.Balance = core.Money{Cents: s.balanceLocked(id)}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Wallet returns a single wallet with its derived balance.
func (s *Store) Wallet(_ context.Context, id uuid.UUID) (core.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return core.Wallet{}, errs.ErrNotFound
	}
	w.Balance = core.Money{Cents: s.balanceLocked(id)}
	return w, nil
}

// CreateWallet persists a new wallet. The submitted balance becomes the
// opening balance.
func (s *Store) CreateWallet(_ context.Context, w core.Wallet) (core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	s.wallets[w.ID] = w
	return w, nil
}

// UpdateWallet renames a wallet. Balance is not writable here; it is owned
// by the transaction set.
func (s *Store) UpdateWallet(_ context.Context, id uuid.UUID, name string, icon core.IconKind) (core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return core.Wallet{}, errs.ErrNotFound
	}
	w.Name = name
	w.Icon = icon
	s.wallets[id] = w
	w.Balance = core.Money{Cents: s.balanceLocked(id)}
	return w, nil
}

// DeleteWallet removes a wallet.
func (s *Store) DeleteWallet(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.wallets, id)
	return nil
}

// Categories implements storage.CategoryStore. Spent is scoped to the
// requested month.
func (s *Store) Categories(_ context.Context, year int, month time.Month) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, 0, len(s.cats))
	for id, c := range s.cats {
		c.Spent = core.Money{Cents: s.spentLocked(id, year, month)}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Category returns a single category without month-scoped spend.
func (s *Store) Category(_ context.Context, id uuid.UUID) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cats[id]
	if !ok {
		return core.Category{}, errs.ErrNotFound
	}
	return c, nil
}

// CreateCategory persists a new category.
func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.cats[c.ID] = c
	return c, nil
}

// UpdateCategory renames a category or moves it to another group.
func (s *Store) UpdateCategory(_ context.Context, id uuid.UUID, name, group string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[id]
	if !ok {
		return core.Category{}, errs.ErrNotFound
	}
	c.Name = name
	c.Group = group
	s.cats[id] = c
	return c, nil
}

// DeleteCategory removes a category.
func (s *Store) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.cats, id)
	return nil
}

// UpdateBudgetLimit sets a single category's budget limit.
func (s *Store) UpdateBudgetLimit(_ context.Context, id uuid.UUID, limit core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[id]
	if !ok {
		return errs.ErrNotFound
	}
	c.BudgetLimit = limit
	s.cats[id] = c
	return nil
}

// AllocateBudgets records the period's allocations and applies each amount
// as the category's budget limit. All-or-nothing: unknown categories fail
// the whole batch before anything is written.
func (s *Store) AllocateBudgets(_ context.Context, allocations map[uuid.UUID]core.Money, year int, month time.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range allocations {
		if _, ok := s.cats[id]; !ok {
			return errs.ErrNotFound
		}
	}
	key := allocKey{Year: year, Month: month}
	period, ok := s.allocations[key]
	if !ok {
		period = make(map[uuid.UUID]core.Money, len(allocations))
		s.allocations[key] = period
	}
	for id, amount := range allocations {
		period[id] = amount
		c := s.cats[id]
		c.BudgetLimit = amount
		s.cats[id] = c
	}
	return nil
}

// Transactions implements storage.TransactionStore.
func (s *Store) Transactions(_ context.Context, filter storage.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for id, tx := range s.txs {
		if _, gone := s.deleted[id]; gone {
			continue
		}
		if filter.Year != 0 && !tx.InMonth(filter.Year, filter.Month) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Transaction returns a single non-deleted transaction.
func (s *Store) Transaction(_ context.Context, id uuid.UUID) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, errs.ErrNotFound
	}
	if _, gone := s.deleted[id]; gone {
		return core.Transaction{}, errs.ErrNotFound
	}
	return tx, nil
}

// CreateTransaction persists a new transaction.
func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	s.txs[tx.ID] = tx
	return tx, nil
}

// UpdateTransaction replaces an existing transaction's mutable fields.
func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.ID]; !ok {
		return core.Transaction{}, errs.ErrNotFound
	}
	if _, gone := s.deleted[tx.ID]; gone {
		return core.Transaction{}, errs.ErrNotFound
	}
	s.txs[tx.ID] = tx
	return tx, nil
}

// DeleteTransaction soft-deletes a transaction. Deleting an id that is
// already gone reports ErrNotFound so callers can tell "already gone"
// from "succeeded".
func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return errs.ErrNotFound
	}
	if _, gone := s.deleted[id]; gone {
		return errs.ErrNotFound
	}
	s.deleted[id] = struct{}{}
	return nil
}

// Rules implements storage.RuleStore.
func (s *Store) Rules(_ context.Context) ([]core.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.RecurringRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// CreateRule persists a new recurring rule.
func (s *Store) CreateRule(_ context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.rules[r.ID] = r
	return r, nil
}

// UpdateRuleNextDue persists a rule's catch-up cursor.
func (s *Store) UpdateRuleNextDue(_ context.Context, id uuid.UUID, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return errs.ErrNotFound
	}
	r.NextDue = next
	s.rules[id] = r
	return nil
}

// DeleteRule removes a recurring rule.
func (s *Store) DeleteRule(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.rules, id)
	return nil
}
