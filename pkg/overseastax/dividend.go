package overseastax

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ComputeDividendTax aggregates gross dividends and foreign withholding per
// currency, converts to CNY and applies the foreign-tax-credit limitation:
// the credit never exceeds the theoretical domestic liability on the same
// income.
//
// The stated net amount of each record is recomputed as gross minus
// withholding; rows that disagree are counted in diag, never fatal.
func ComputeDividendTax(dividends []DividendRecord, year int, rates *RateTable, diag *Diagnostics) (DividendTax, error) {
	totalDividendCNY := decimal.Zero
	totalWithholdingCNY := decimal.Zero
	perCurrency := make(map[Currency]*DividendCurrencySummary)

	details := make([]DividendRecord, 0, len(dividends))
	for _, div := range dividends {
		expectedNet := div.GrossAmount.Sub(div.WithholdingTax.Decimal)
		if !div.NetAmount.Equal(expectedNet) {
			diag.noteInconsistentDividend()
		}
		div.NetAmount = amt(expectedNet)
		details = append(details, div)

		grossCNY, err := rates.toCNY(div.GrossAmount.Decimal, div.Currency, year)
		if err != nil {
			return DividendTax{}, err
		}
		withholdingCNY, err := rates.toCNY(div.WithholdingTax.Decimal, div.Currency, year)
		if err != nil {
			return DividendTax{}, err
		}

		totalDividendCNY = totalDividendCNY.Add(grossCNY)
		totalWithholdingCNY = totalWithholdingCNY.Add(withholdingCNY)

		s, ok := perCurrency[div.Currency]
		if !ok {
			s = &DividendCurrencySummary{Currency: div.Currency}
			perCurrency[div.Currency] = s
		}
		s.TotalDividend = amt(s.TotalDividend.Add(div.GrossAmount.Decimal))
		s.WithholdingTax = amt(s.WithholdingTax.Add(div.WithholdingTax.Decimal))
		s.TotalDividendCNY = amt(s.TotalDividendCNY.Add(grossCNY))
		s.WithholdingTaxCNY = amt(s.WithholdingTaxCNY.Add(withholdingCNY))
	}

	byCurrency := make([]DividendCurrencySummary, 0, len(perCurrency))
	for _, s := range perCurrency {
		byCurrency = append(byCurrency, *s)
	}
	sort.Slice(byCurrency, func(i, j int) bool {
		return byCurrency[i].Currency < byCurrency[j].Currency
	})

	grossTax := totalDividendCNY.Mul(TaxRate)
	taxCredit := decimal.Min(totalWithholdingCNY, grossTax)
	netTaxDue := decimal.Max(decimal.Zero, grossTax.Sub(taxCredit))

	return DividendTax{
		TotalDividend:  NewMoney(amt(totalDividendCNY), CNY),
		ForeignTaxPaid: NewMoney(amt(totalWithholdingCNY), CNY),
		TaxCredit:      NewMoney(amt(taxCredit), CNY),
		GrossTax:       NewMoney(amt(grossTax), CNY),
		NetTaxDue:      NewMoney(amt(netTaxDue), CNY),
		ByCurrency:     byCurrency,
		Details:        details,
	}, nil
}
