package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -100}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestTransactionValidate(t *testing.T) {
	wallet := uuid.New()
	other := uuid.New()
	cat := uuid.New()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	good := Transaction{Type: Expense, Amount: Money{Cents: 300000}, Date: date, CategoryID: cat, WalletID: wallet}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	transfer := Transaction{Type: Transfer, Amount: Money{Cents: 100}, Date: date, WalletID: wallet, ToWalletID: other}
	if err := transfer.Validate(); err != nil {
		t.Fatalf("expected transfer ok, got %v", err)
	}

	bads := []struct {
		name string
		tx   Transaction
	}{
		{"zero amount", Transaction{Type: Expense, Amount: Money{}, Date: date, CategoryID: cat, WalletID: wallet}},
		{"negative amount", Transaction{Type: Expense, Amount: Money{Cents: -1}, Date: date, CategoryID: cat, WalletID: wallet}},
		{"zero date", Transaction{Type: Expense, Amount: Money{Cents: 1}, CategoryID: cat, WalletID: wallet}},
		{"missing wallet", Transaction{Type: Expense, Amount: Money{Cents: 1}, Date: date, CategoryID: cat}},
		{"missing category", Transaction{Type: Expense, Amount: Money{Cents: 1}, Date: date, WalletID: wallet}},
		{"bad type", Transaction{Type: "refund", Amount: Money{Cents: 1}, Date: date, CategoryID: cat, WalletID: wallet}},
		{"transfer without target", Transaction{Type: Transfer, Amount: Money{Cents: 1}, Date: date, WalletID: wallet}},
		{"transfer to same wallet", Transaction{Type: Transfer, Amount: Money{Cents: 1}, Date: date, WalletID: wallet, ToWalletID: wallet}},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tx.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestTransactionSigned(t *testing.T) {
	if got := (Transaction{Type: Income, Amount: Money{Cents: 500}}).Signed(); got != 500 {
		t.Fatalf("income signed = %d, want 500", got)
	}
	if got := (Transaction{Type: Expense, Amount: Money{Cents: 500}}).Signed(); got != -500 {
		t.Fatalf("expense signed = %d, want -500", got)
	}
	if got := (Transaction{Type: Transfer, Amount: Money{Cents: 500}}).Signed(); got != -500 {
		t.Fatalf("transfer signed = %d, want -500", got)
	}
}

func TestRecurringRuleValidate(t *testing.T) {
	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	good := RecurringRule{
		Type:       Expense,
		Amount:     Money{Cents: 9900},
		CategoryID: uuid.New(),
		WalletID:   uuid.New(),
		Frequency:  Monthly,
		StartDate:  start,
		NextDue:    start,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.Frequency = "biweekly"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected frequency error")
	}

	bad = good
	bad.NextDue = time.Time{}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected date error")
	}
}

func TestResolveIconKind(t *testing.T) {
	cases := []struct {
		name string
		want IconKind
	}{
		{"Cash", IconCash},
		{"Main Bank Account", IconBank},
		{"Credit Card", IconCard},
		{"Spesa settimanale", IconFood},
		{"Salary", IconSalary},
		{"Savings pot", IconSavings},
		{"Something else", IconGeneric},
	}
	for _, tc := range cases {
		if got := ResolveIconKind(tc.name); got != tc.want {
			t.Errorf("ResolveIconKind(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
