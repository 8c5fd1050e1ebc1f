package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// View is the session-scoped snapshot of wallets and categories the UI
// reads from. It is owned by the coordinator that created it and passed by
// reference to the services; nothing else writes to it. It is created at
// session start and torn down with the session.
//
// The snapshot is replaced wholesale after every successful reload; a
// failed reload leaves the previous snapshot in place, so readers always
// see a consistent (possibly stale) state, never a half-applied one.
type View struct {
	mu         sync.RWMutex
	year       int
	month      time.Month
	wallets    []core.Wallet
	categories []core.Category
}

// NewView creates a view scoped to the given month.
func NewView(year int, month time.Month) *View {
	return &View{year: year, month: month}
}

// Month returns the currently selected period.
func (v *View) Month() (int, time.Month) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.year, v.month
}

// SelectMonth switches the selected period. The caller must reload
// afterwards: category spend is scoped to the selected month.
func (v *View) SelectMonth(year int, month time.Month) {
	v.mu.Lock()
	v.year = year
	v.month = month
	v.mu.Unlock()
}

// Wallets returns a copy of the wallet snapshot.
func (v *View) Wallets() []core.Wallet {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]core.Wallet, len(v.wallets))
	copy(out, v.wallets)
	return out
}

// Categories returns a copy of the category snapshot.
func (v *View) Categories() []core.Category {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]core.Category, len(v.categories))
	copy(out, v.categories)
	return out
}

// TotalBalance is the pool of money across all wallets.
func (v *View) TotalBalance() core.Money {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var total int64
	for _, w := range v.wallets {
		total += w.Balance.Cents
	}
	return core.Money{Cents: total}
}

// Replace swaps in a freshly loaded snapshot.
func (v *View) Replace(wallets []core.Wallet, categories []core.Category) {
	v.mu.Lock()
	v.wallets = wallets
	v.categories = categories
	v.mu.Unlock()
}

// SetBudgetLimit patches one category's limit in place. Allocation does not
// touch wallets or spend, so no reload is needed.
func (v *View) SetBudgetLimit(id uuid.UUID, limit core.Money) {
	v.mu.Lock()
	for i := range v.categories {
		if v.categories[i].ID == id {
			v.categories[i].BudgetLimit = limit
			break
		}
	}
	v.mu.Unlock()
}
