package overseastax

import "testing"

func TestComputeCapitalGainsSimpleFIFO(t *testing.T) {
	rates := DefaultRateTable()
	txs := []Transaction{
		buyTx("2024-03-01 10:00:00", "AAPL", USD, 10, 100, 1000, 5),
		sellTx("2024-06-01 10:00:00", "AAPL", USD, 10, 120, 1200, 5),
	}

	result, err := ComputeCapitalGains(txs, 2024, nil, rates, nil)
	assertNoError(t, err, "compute capital gains")

	if len(result.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(result.Details))
	}
	d := result.Details[0]
	assertMoney(t, d.Gain, 190, USD, "gain = 1200 - 1000 - 10")
	assertMoney(t, d.GainCNY, 190*7.1884, CNY, "gain in CNY")
	if d.IsEstimatedCost {
		t.Error("real buy lot must not be flagged as estimated cost")
	}
	if d.BuyDate != "2024-03-01" || d.SellDate != "2024-06-01" {
		t.Errorf("dates: got %s / %s", d.BuyDate, d.SellDate)
	}

	assertMoney(t, result.TotalGain, 190*7.1884, CNY, "total gain")
	assertMoney(t, result.TaxableGain, 190*7.1884, CNY, "taxable gain")
	assertMoney(t, result.TaxAmount, 190*7.1884*0.2, CNY, "tax at 20%")
}

func TestComputeCapitalGainsProportionalSplit(t *testing.T) {
	rates := DefaultRateTable()
	txs := []Transaction{
		buyTx("2024-01-10 09:30:00", "MSFT", USD, 10, 100, 1000, 10),
		sellTx("2024-02-01 09:30:00", "MSFT", USD, 4, 120, 480, 4),
		sellTx("2024-03-01 09:30:00", "MSFT", USD, 6, 120, 720, 6),
	}

	result, err := ComputeCapitalGains(txs, 2024, nil, rates, nil)
	assertNoError(t, err, "compute capital gains")

	if len(result.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(result.Details))
	}
	// First sell: 480 - 400 - (4 + 4) = 72. Buy fee prorated against the
	// original lot size, not the remaining size.
	assertMoney(t, result.Details[0].Gain, 72, USD, "first partial sell")
	// Second sell: 720 - 600 - (6 + 6) = 108.
	assertMoney(t, result.Details[1].Gain, 108, USD, "second partial sell")
}

func TestComputeCapitalGainsHoldingSynthesis(t *testing.T) {
	rates := DefaultRateTable()
	holdings := []Holding{
		startHolding(2024, "TSLA", USD, 20, 50, 1000),
	}
	txs := []Transaction{
		sellTx("2024-05-01 10:00:00", "TSLA", USD, 20, 60, 1200, 0),
	}

	result, err := ComputeCapitalGains(txs, 2024, holdings, rates, nil)
	assertNoError(t, err, "compute capital gains")

	if len(result.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(result.Details))
	}
	d := result.Details[0]
	if !d.IsEstimatedCost {
		t.Error("match against synthesized lot must be flagged as estimated cost")
	}
	if d.BuyDate != "2024-01-01" {
		t.Errorf("synthetic lot date: got %s, want 2024-01-01", d.BuyDate)
	}
	// Basis is the period-start market value, no fee on the synthetic lot.
	assertMoney(t, d.Gain, 200, USD, "gain = 1200 - 1000")
}

func TestComputeCapitalGainsHoldingConsumedBeforeBuys(t *testing.T) {
	rates := DefaultRateTable()
	holdings := []Holding{
		startHolding(2024, "NVDA", USD, 5, 100, 500),
	}
	txs := []Transaction{
		buyTx("2024-02-01 10:00:00", "NVDA", USD, 5, 110, 550, 0),
		sellTx("2024-03-01 10:00:00", "NVDA", USD, 8, 120, 960, 0),
	}

	result, err := ComputeCapitalGains(txs, 2024, holdings, rates, nil)
	assertNoError(t, err, "compute capital gains")

	if len(result.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(result.Details))
	}
	// FIFO: the synthetic lot (5 @ basis 500) is consumed first, then 3 of
	// the in-year buy.
	first, second := result.Details[0], result.Details[1]
	if !first.IsEstimatedCost || second.IsEstimatedCost {
		t.Errorf("estimated-cost flags: got %v/%v, want true/false", first.IsEstimatedCost, second.IsEstimatedCost)
	}
	assertAmount(t, first.Quantity, 5, "first match quantity")
	assertMoney(t, first.Gain, 100, USD, "5 * (120 - 100)")
	assertAmount(t, second.Quantity, 3, "second match quantity")
	assertMoney(t, second.Gain, 30, USD, "3 * (120 - 110)")
}

func TestComputeCapitalGainsUnmatchedSell(t *testing.T) {
	rates := DefaultRateTable()
	txs := []Transaction{
		buyTx("2024-01-10 09:30:00", "META", USD, 5, 100, 500, 0),
		sellTx("2024-02-01 09:30:00", "META", USD, 8, 110, 880, 0),
	}

	var diag Diagnostics
	result, err := ComputeCapitalGains(txs, 2024, nil, rates, &diag)
	assertNoError(t, err, "compute capital gains")

	// Only the covered 5 shares produce a detail row; the excess is a
	// diagnostic, not a gain of unknowable basis.
	if len(result.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(result.Details))
	}
	assertAmount(t, result.Details[0].Quantity, 5, "matched quantity")
	if diag.UnmatchedSells != 1 {
		t.Errorf("unmatched sells: got %d, want 1", diag.UnmatchedSells)
	}
}

func TestComputeCapitalGainsLossFloor(t *testing.T) {
	rates := DefaultRateTable()
	txs := []Transaction{
		buyTx("2024-01-10 09:30:00", "BABA", HKD, 100, 80, 8000, 20),
		sellTx("2024-04-10 09:30:00", "BABA", HKD, 100, 60, 6000, 20),
	}

	result, err := ComputeCapitalGains(txs, 2024, nil, rates, nil)
	assertNoError(t, err, "compute capital gains")

	// Total gain stays negative, taxable base and tax floor at zero.
	assertMoney(t, result.TotalGain, -2040*0.92604, CNY, "loss preserved in total")
	assertMoney(t, result.TaxableGain, 0, CNY, "taxable floored at zero")
	assertMoney(t, result.TaxAmount, 0, CNY, "no tax on a net loss")
}

func TestComputeCapitalGainsLossOffsetsGainWithinYear(t *testing.T) {
	rates := DefaultRateTable()
	txs := []Transaction{
		buyTx("2024-01-10 09:30:00", "AAPL", USD, 10, 100, 1000, 0),
		sellTx("2024-02-10 09:30:00", "AAPL", USD, 10, 150, 1500, 0),
		buyTx("2024-01-20 09:30:00", "GOOG", USD, 10, 100, 1000, 0),
		sellTx("2024-02-20 09:30:00", "GOOG", USD, 10, 70, 700, 0),
	}

	result, err := ComputeCapitalGains(txs, 2024, nil, rates, nil)
	assertNoError(t, err, "compute capital gains")

	// +500 - 300 = +200 USD across instruments.
	assertMoney(t, result.TotalGain, 200*7.1884, CNY, "cross-instrument netting")
	if len(result.ByCurrency) != 1 {
		t.Fatalf("expected 1 currency summary, got %d", len(result.ByCurrency))
	}
	assertAmount(t, result.ByCurrency[0].TotalGain, 200, "per-currency raw gain")
}

func TestComputeCapitalGainsSeparatesCategories(t *testing.T) {
	rates := DefaultRateTable()
	option := buyTx("2024-01-10 09:30:00", "AAPL", USD, 1, 2.5, 250, 1)
	option.Category = CategoryOption
	optionSell := sellTx("2024-02-10 09:30:00", "AAPL", USD, 1, 4, 400, 1)
	optionSell.Category = CategoryOption

	// A security sell of the same symbol must not consume the option lot.
	txs := []Transaction{
		option,
		optionSell,
		sellTx("2024-03-10 09:30:00", "AAPL", USD, 1, 100, 100, 0),
	}

	var diag Diagnostics
	result, err := ComputeCapitalGains(txs, 2024, nil, rates, &diag)
	assertNoError(t, err, "compute capital gains")

	if len(result.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(result.Details))
	}
	// Option amounts arrive with the contract multiplier already applied.
	assertMoney(t, result.Details[0].Gain, 148, USD, "400 - 250 - 2")
	if diag.UnmatchedSells != 1 {
		t.Errorf("security sell should be unmatched, got %d", diag.UnmatchedSells)
	}
}

func TestComputeCapitalGainsEmptyInput(t *testing.T) {
	result, err := ComputeCapitalGains(nil, 2024, nil, DefaultRateTable(), nil)
	assertNoError(t, err, "compute with no transactions")
	assertMoney(t, result.TotalGain, 0, CNY, "zero total")
	if len(result.Details) != 0 {
		t.Errorf("expected no details, got %d", len(result.Details))
	}
}
