package overseastax

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestDB creates a temporary database for testing and returns a Core instance.
// The caller should defer cleanup() to remove the temp file.
func setupTestDB(t *testing.T) (*Core, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "overseastax-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	core, err := Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open test db: %v", err)
	}

	cleanup := func() {
		core.Close()
		os.RemoveAll(tmpDir)
	}

	return core, cleanup
}

// buyTx builds a BUY fill for testing.
func buyTx(tradeTime, symbol string, currency Currency, qty, price, amount, fee float64) Transaction {
	return Transaction{
		TradeTime:    tradeTime,
		Symbol:       symbol,
		Market:       "US",
		Category:     CategorySecurity,
		Direction:    DirectionBuy,
		Currency:     currency,
		Quantity:     NewAmount(qty),
		Price:        NewAmount(price),
		TradeAmount:  NewAmount(amount),
		TotalFee:     NewAmount(fee),
		ChangeAmount: NewAmount(-(amount + fee)),
	}
}

// sellTx builds a SELL fill for testing.
func sellTx(tradeTime, symbol string, currency Currency, qty, price, amount, fee float64) Transaction {
	return Transaction{
		TradeTime:    tradeTime,
		Symbol:       symbol,
		Market:       "US",
		Category:     CategorySecurity,
		Direction:    DirectionSell,
		Currency:     currency,
		Quantity:     NewAmount(qty),
		Price:        NewAmount(price),
		TradeAmount:  NewAmount(amount),
		TotalFee:     NewAmount(fee),
		ChangeAmount: NewAmount(amount - fee),
	}
}

// startHolding builds a period-start holding snapshot for testing.
func startHolding(year int, symbol string, currency Currency, qty, price, marketValue float64) Holding {
	return Holding{
		PeriodType:  PeriodStart,
		Date:        fmt.Sprintf("%04d0101", year),
		Category:    CategorySecurity,
		Symbol:      symbol,
		Market:      "US",
		Currency:    currency,
		Quantity:    NewAmount(qty),
		Price:       NewAmount(price),
		Multiplier:  NewAmountFromInt(1),
		MarketValue: NewAmount(marketValue),
	}
}

// floatEquals checks if two floats are approximately equal.
func floatEquals(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// assertAmount fails the test if the Amount is not approximately equal to want.
func assertAmount(t *testing.T, got Amount, want float64, msg string) {
	t.Helper()
	if !floatEquals(got.InexactFloat64(), want, 0.001) {
		t.Errorf("%s: got %.4f, want %.4f", msg, got.InexactFloat64(), want)
	}
}

// assertMoney fails the test if the Money value or currency does not match.
func assertMoney(t *testing.T, got Money, want float64, currency Currency, msg string) {
	t.Helper()
	if got.Currency != currency {
		t.Errorf("%s: got currency %s, want %s", msg, got.Currency, currency)
	}
	assertAmount(t, got.Amount, want, msg)
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertError fails the test if err is nil.
func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error but got nil", msg)
	}
}

// assertContains checks if the string contains the substring.
func assertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: string %q does not contain %q", msg, s, substr)
	}
}
