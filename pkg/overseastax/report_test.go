package overseastax

import (
	"strings"
	"testing"
)

func testResult(t *testing.T) TaxResult {
	t.Helper()
	rates := DefaultRateTable()
	bills := []Bill{
		annualBill(2024,
			[]Transaction{
				buyTx("2024-02-01 10:00:00", "AAPL", USD, 10, 100, 1000, 5),
				sellTx("2024-08-01 10:00:00", "AAPL", USD, 10, 120, 1200, 5),
			},
			[]DividendRecord{dividendRecord("AAPL", USD, 100, 10)},
			[]InterestRecord{{Date: "2024-06-30", Currency: USD, Amount: NewAmount(50)}},
			nil),
	}
	comp, err := ComputeTax(bills, rates, CalcOptions{})
	assertNoError(t, err, "compute fixture")
	if len(comp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(comp.Results))
	}
	return comp.Results[0]
}

func TestBuildDisplayRowCNY(t *testing.T) {
	rates := DefaultRateTable()
	row, err := BuildDisplayRow(testResult(t), CNY, rates)
	assertNoError(t, err, "build display row")

	if row.Year != 2024 || row.Currency != CNY {
		t.Errorf("row identity: %d %s", row.Year, row.Currency)
	}
	// 190 USD gain at 7.1884, rounded to cents only here.
	assertAmount(t, row.CapitalGain, 1365.80, "capital gain rounded")
	assertAmount(t, row.CapitalGainsTax, 273.16, "capital gains tax")
	assertAmount(t, row.DividendIncome, 718.84, "dividend income")
	assertAmount(t, row.TaxCredit, 71.88, "credit rounded")
}

func TestBuildDisplayRowUSD(t *testing.T) {
	rates := DefaultRateTable()
	row, err := BuildDisplayRow(testResult(t), USD, rates)
	assertNoError(t, err, "build display row")

	// Converted back to USD at the same year's rate.
	assertAmount(t, row.DividendIncome, 100, "dividend income back in USD")
	assertAmount(t, row.InterestIncome, 50, "interest income back in USD")
}

func TestExportCSV(t *testing.T) {
	rates := DefaultRateTable()
	out, err := ExportCSV([]TaxResult{testResult(t)}, CNY, rates)
	assertNoError(t, err, "export csv")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	assertContains(t, lines[0], "年度", "csv header")
	assertContains(t, lines[0], "资本利得(CNY)", "csv header currency suffix")
	assertContains(t, lines[0], "实际应缴(CNY)", "csv header last column")
	if got := len(strings.Split(lines[0], ",")); got != 10 {
		t.Errorf("expected 10 header columns, got %d", got)
	}

	fields := strings.Split(lines[1], ",")
	if len(fields) != 10 {
		t.Fatalf("expected 10 data columns, got %d", len(fields))
	}
	if fields[0] != "2024" {
		t.Errorf("year column: got %s", fields[0])
	}
	if fields[1] != "1365.80" {
		t.Errorf("capital gain column: got %s, want 1365.80", fields[1])
	}
}

func TestRenderReport(t *testing.T) {
	rates := DefaultRateTable()
	report, err := RenderReport(testResult(t), CNY, rates)
	assertNoError(t, err, "render report")

	assertContains(t, report, "2024年度", "report title year")
	assertContains(t, report, "财产转让所得", "capital gains section")
	assertContains(t, report, "股息、红利所得", "dividend section")
	assertContains(t, report, "利息所得", "interest section")
	assertContains(t, report, "可抵免税额", "credit line")
	assertContains(t, report, "实际应缴税额", "net payable line")
	assertContains(t, report, "¥", "CNY symbol")
	assertContains(t, report, rateSourceSAFE, "rate source")
	assertContains(t, report, "不构成税务建议", "disclaimer")

	// No estimated-cost matches in the fixture.
	if strings.Contains(report, "期初市价估算") {
		t.Error("estimated-cost disclosure should be absent")
	}
}

func TestRenderReportEstimatedCostDisclosure(t *testing.T) {
	rates := DefaultRateTable()
	bills := []Bill{
		annualBill(2024,
			[]Transaction{sellTx("2024-05-01 10:00:00", "TSLA", USD, 20, 60, 1200, 0)},
			nil, nil,
			[]Holding{startHolding(2024, "TSLA", USD, 20, 50, 1000)}),
	}
	comp, err := ComputeTax(bills, rates, CalcOptions{})
	assertNoError(t, err, "compute fixture")

	report, err := RenderReport(comp.Results[0], CNY, rates)
	assertNoError(t, err, "render report")
	assertContains(t, report, "成本使用期初市价估算", "estimated-cost disclosure")
}

func TestRenderReportHKDSymbol(t *testing.T) {
	rates := DefaultRateTable()
	report, err := RenderReport(testResult(t), HKD, rates)
	assertNoError(t, err, "render report")
	assertContains(t, report, "HK$", "HKD symbol")
}

func TestCurrencySymbol(t *testing.T) {
	if CurrencySymbol(CNY) != "¥" || CurrencySymbol(USD) != "$" || CurrencySymbol(HKD) != "HK$" {
		t.Error("unexpected currency symbols")
	}
	if CurrencySymbol(Currency("EUR")) != "EUR" {
		t.Error("unknown currency should fall back to its code")
	}
}
