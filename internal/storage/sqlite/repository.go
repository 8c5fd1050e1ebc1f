package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bilancio/internal/core"
	"bilancio/internal/errs"
	"bilancio/internal/storage"
)

const dateLayout = "2006-01-02"

// Repository is the SQLite-backed storage.Gateway. Wallet balances and
// category spend figures are derived with aggregate queries at read time,
// never stored, so a reload always reflects the full transaction set.
type Repository struct {
	db *sql.DB
}

var _ storage.Gateway = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ready reports whether the database answers. Used by the readiness probe.
func (r *Repository) Ready(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const walletColumns = `w.id, w.name, w.icon,
	w.opening_cents
	+ COALESCE((SELECT SUM(CASE WHEN t.type = 'income' THEN t.amount_cents ELSE -t.amount_cents END)
		FROM transactions t WHERE t.wallet_id = w.id AND t.deleted = 0), 0)
	+ COALESCE((SELECT SUM(t.amount_cents)
		FROM transactions t WHERE t.to_wallet_id = w.id AND t.type = 'transfer' AND t.deleted = 0), 0)`

func scanWallet(row interface{ Scan(...any) error }) (core.Wallet, error) {
	var (
		w    core.Wallet
		id   string
		icon string
	)
	if err := row.Scan(&id, &w.Name, &icon, &w.Balance.Cents); err != nil {
		return core.Wallet{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("parse wallet id %q: %w", id, err)
	}
	w.ID = parsed
	w.Icon = core.IconKind(icon)
	return w, nil
}

// Wallets implements storage.WalletStore.
func (r *Repository) Wallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+walletColumns+` FROM wallets w ORDER BY w.name`)
	if err != nil {
		return nil, fmt.Errorf("query wallets: %w", err)
	}
	defer rows.Close()

	var out []core.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *Repository) Wallet(ctx context.Context, id uuid.UUID) (core.Wallet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallets w WHERE w.id = ?`, id.String())
	w, err := scanWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, errs.ErrNotFound
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (r *Repository) CreateWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (id, name, opening_cents, icon) VALUES (?, ?, ?, ?)`,
		w.ID.String(), w.Name, w.Balance.Cents, string(w.Icon))
	if err != nil {
		return core.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	slog.InfoContext(ctx, "Wallet saved", "wallet_id", w.ID, "name", w.Name, "opening_cents", w.Balance.Cents)
	return w, nil
}

func (r *Repository) UpdateWallet(ctx context.Context, id uuid.UUID, name string, icon core.IconKind) (core.Wallet, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE wallets SET name = ?, icon = ? WHERE id = ?`, name, string(icon), id.String())
	if err != nil {
		return core.Wallet{}, fmt.Errorf("update wallet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Wallet{}, errs.ErrNotFound
	}
	return r.Wallet(ctx, id)
}

func (r *Repository) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wallets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

const categoryColumns = `c.id, c.name, c.type, c.grp, c.budget_cents, c.icon`

func scanCategory(row interface{ Scan(...any) error }, withSpent bool) (core.Category, error) {
	var (
		c        core.Category
		id       string
		ctype    string
		icon     string
		spent    int64
		scanDest []any
	)
	scanDest = []any{&id, &c.Name, &ctype, &c.Group, &c.BudgetLimit.Cents, &icon}
	if withSpent {
		scanDest = append(scanDest, &spent)
	}
	if err := row.Scan(scanDest...); err != nil {
		return core.Category{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse category id %q: %w", id, err)
	}
	c.ID = parsed
	c.Type = core.TransactionType(ctype)
	c.Icon = core.IconKind(icon)
	c.Spent = core.Money{Cents: spent}
	return c, nil
}

// Categories returns all categories with Spent computed for year+month.
func (r *Repository) Categories(ctx context.Context, year int, month time.Month) ([]core.Category, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+`,
		COALESCE((SELECT SUM(t.amount_cents) FROM transactions t
			WHERE t.category_id = c.id AND t.type = 'expense' AND t.deleted = 0
			AND substr(t.date, 1, 7) = ?), 0)
		FROM categories c ORDER BY c.name`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Category(ctx context.Context, id uuid.UUID) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?`, id.String())
	c, err := scanCategory(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, errs.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, type, grp, budget_cents, icon) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, string(c.Type), c.Group, c.BudgetLimit.Cents, string(c.Icon))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved", "category_id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, name, group string) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, grp = ? WHERE id = ?`, name, group, id.String())
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, errs.ErrNotFound
	}
	return r.Category(ctx, id)
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateBudgetLimit(ctx context.Context, id uuid.UUID, limit core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET budget_cents = ? WHERE id = ?`, limit.Cents, id.String())
	if err != nil {
		return fmt.Errorf("update budget limit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AllocateBudgets records the period's allocations and applies each amount
// as the category's budget limit, all inside one database transaction.
func (r *Repository) AllocateBudgets(ctx context.Context, allocations map[uuid.UUID]core.Money, year int, month time.Month) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocation tx: %w", err)
	}
	defer dbtx.Rollback()

	for id, amount := range allocations {
		res, err := dbtx.ExecContext(ctx,
			`UPDATE categories SET budget_cents = ? WHERE id = ?`, amount.Cents, id.String())
		if err != nil {
			return fmt.Errorf("apply budget limit: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.ErrNotFound
		}
		_, err = dbtx.ExecContext(ctx,
			`INSERT INTO budget_allocations (category_id, year, month, amount_cents)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (category_id, year, month) DO UPDATE SET amount_cents = excluded.amount_cents`,
			id.String(), year, int(month), amount.Cents)
		if err != nil {
			return fmt.Errorf("record allocation: %w", err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit allocations: %w", err)
	}
	slog.InfoContext(ctx, "Budget allocations saved", "year", year, "month", int(month), "categories", len(allocations))
	return nil
}

const txColumns = `id, type, amount_cents, date, category_id, wallet_id, to_wallet_id, note`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx       core.Transaction
		id       string
		ttype    string
		date     string
		category sql.NullString
		wallet   string
		toWallet sql.NullString
	)
	if err := row.Scan(&id, &ttype, &tx.Amount.Cents, &date, &category, &wallet, &toWallet, &tx.Note); err != nil {
		return core.Transaction{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id %q: %w", id, err)
	}
	tx.ID = parsed
	tx.Type = core.TransactionType(ttype)
	tx.Date, err = time.Parse(dateLayout, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	if category.Valid {
		if tx.CategoryID, err = uuid.Parse(category.String); err != nil {
			return core.Transaction{}, fmt.Errorf("parse category id %q: %w", category.String, err)
		}
	}
	if tx.WalletID, err = uuid.Parse(wallet); err != nil {
		return core.Transaction{}, fmt.Errorf("parse wallet id %q: %w", wallet, err)
	}
	if toWallet.Valid {
		if tx.ToWalletID, err = uuid.Parse(toWallet.String); err != nil {
			return core.Transaction{}, fmt.Errorf("parse to-wallet id %q: %w", toWallet.String, err)
		}
	}
	return tx, nil
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

// Transactions implements storage.TransactionStore.
func (r *Repository) Transactions(ctx context.Context, filter storage.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE deleted = 0`
	args := []any{}
	if filter.Year != 0 {
		query += ` AND substr(date, 1, 7) = ?`
		args = append(args, fmt.Sprintf("%04d-%02d", filter.Year, filter.Month))
	}
	query += ` ORDER BY date, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) Transaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ? AND deleted = 0`, id.String())
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, errs.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, type, amount_cents, date, category_id, wallet_id, to_wallet_id, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), string(tx.Type), tx.Amount.Cents, tx.Date.Format(dateLayout),
		nullableID(tx.CategoryID), tx.WalletID.String(), nullableID(tx.ToWalletID), tx.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", tx.ID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"date", tx.Date.Format(dateLayout))
	return tx, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET type = ?, amount_cents = ?, date = ?, category_id = ?,
		wallet_id = ?, to_wallet_id = ?, note = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted = 0`,
		string(tx.Type), tx.Amount.Cents, tx.Date.Format(dateLayout),
		nullableID(tx.CategoryID), tx.WalletID.String(), nullableID(tx.ToWalletID), tx.Note,
		tx.ID.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, errs.ErrNotFound
	}
	return tx, nil
}

// DeleteTransaction soft-deletes. An id that is missing or already deleted
// reports ErrNotFound so callers can tell "already gone" from "succeeded".
func (r *Repository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted = 0`,
		id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction soft-deleted", "transaction_id", id)
	return nil
}

const ruleColumns = `id, type, amount_cents, category_id, wallet_id, to_wallet_id, note, frequency, start_date, next_due`

func scanRule(row interface{ Scan(...any) error }) (core.RecurringRule, error) {
	var (
		rule      core.RecurringRule
		id        string
		rtype     string
		category  sql.NullString
		wallet    string
		toWallet  sql.NullString
		frequency string
		startDate string
		nextDue   string
	)
	if err := row.Scan(&id, &rtype, &rule.Amount.Cents, &category, &wallet, &toWallet,
		&rule.Note, &frequency, &startDate, &nextDue); err != nil {
		return core.RecurringRule{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("parse rule id %q: %w", id, err)
	}
	rule.ID = parsed
	rule.Type = core.TransactionType(rtype)
	rule.Frequency = core.Frequency(frequency)
	if category.Valid {
		if rule.CategoryID, err = uuid.Parse(category.String); err != nil {
			return core.RecurringRule{}, fmt.Errorf("parse category id %q: %w", category.String, err)
		}
	}
	if rule.WalletID, err = uuid.Parse(wallet); err != nil {
		return core.RecurringRule{}, fmt.Errorf("parse wallet id %q: %w", wallet, err)
	}
	if toWallet.Valid {
		if rule.ToWalletID, err = uuid.Parse(toWallet.String); err != nil {
			return core.RecurringRule{}, fmt.Errorf("parse to-wallet id %q: %w", toWallet.String, err)
		}
	}
	if rule.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return core.RecurringRule{}, fmt.Errorf("parse rule start date %q: %w", startDate, err)
	}
	if rule.NextDue, err = time.Parse(time.RFC3339, nextDue); err != nil {
		return core.RecurringRule{}, fmt.Errorf("parse rule next due %q: %w", nextDue, err)
	}
	return rule, nil
}

// Rules implements storage.RuleStore.
func (r *Repository) Rules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *Repository) CreateRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_rules (id, type, amount_cents, category_id, wallet_id, to_wallet_id, note, frequency, start_date, next_due)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID.String(), string(rule.Type), rule.Amount.Cents,
		nullableID(rule.CategoryID), rule.WalletID.String(), nullableID(rule.ToWalletID),
		rule.Note, string(rule.Frequency),
		rule.StartDate.Format(time.RFC3339), rule.NextDue.Format(time.RFC3339))
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("create rule: %w", err)
	}
	slog.InfoContext(ctx, "Recurring rule saved",
		"rule_id", rule.ID,
		"frequency", rule.Frequency,
		"next_due", rule.NextDue.Format(time.RFC3339))
	return rule, nil
}

func (r *Repository) UpdateRuleNextDue(ctx context.Context, id uuid.UUID, next time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET next_due = ? WHERE id = ?`,
		next.Format(time.RFC3339), id.String())
	if err != nil {
		return fmt.Errorf("update rule next due: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
