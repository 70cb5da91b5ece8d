package overseastax

import "github.com/shopspring/decimal"

// ComputeSummary combines the three engines' outputs into the per-year tax
// summary. NetTaxPayable is the figure presented to the filer as owed.
func ComputeSummary(capitalGains CapitalGainsTax, dividendTax DividendTax, interestTax InterestTax) TaxSummary {
	totalTaxDue := capitalGains.TaxAmount.Amount.
		Add(dividendTax.GrossTax.Amount.Decimal).
		Add(interestTax.TaxAmount.Amount.Decimal)

	netTaxPayable := capitalGains.TaxAmount.Amount.
		Add(dividendTax.NetTaxDue.Amount.Decimal).
		Add(interestTax.TaxAmount.Amount.Decimal)

	return TaxSummary{
		TotalTaxDue:    NewMoney(amt(totalTaxDue), CNY),
		TotalTaxCredit: dividendTax.TaxCredit,
		NetTaxPayable:  NewMoney(amt(netTaxPayable), CNY),
	}
}

// ComputeAnnualReturn builds the mark-to-market economic view for a year:
// per currency, return = end market value - start market value + net cash
// flow (buys negative, sells positive). This includes unrealized gains and
// is reported separately from the tax base, never mixed into it.
//
// Dividend income is reported alongside and combined only in the secondary
// "total with dividend" figure.
func ComputeAnnualReturn(holdings []Holding, transactions []Transaction, dividends []DividendRecord, year int, rates *RateTable) (*AnnualReturn, error) {
	totalStartCNY := decimal.Zero
	totalEndCNY := decimal.Zero
	totalCashFlowCNY := decimal.Zero
	var byCurrency []AnnualReturnCurrency

	for _, currency := range []Currency{USD, HKD} {
		startValue := decimal.Zero
		endValue := decimal.Zero
		cashFlow := decimal.Zero

		for _, h := range holdings {
			if h.Currency != currency {
				continue
			}
			switch h.PeriodType {
			case PeriodStart:
				startValue = startValue.Add(h.MarketValue.Decimal)
			case PeriodEnd:
				endValue = endValue.Add(h.MarketValue.Decimal)
			}
		}
		for _, tx := range transactions {
			if tx.Currency == currency {
				cashFlow = cashFlow.Add(tx.ChangeAmount.Decimal)
			}
		}

		if startValue.IsZero() && endValue.IsZero() && cashFlow.IsZero() {
			continue
		}

		byCurrency = append(byCurrency, AnnualReturnCurrency{
			Currency:   currency,
			StartValue: amt(startValue),
			EndValue:   amt(endValue),
			CashFlow:   amt(cashFlow),
			Return:     amt(endValue.Sub(startValue).Add(cashFlow)),
		})

		startCNY, err := rates.toCNY(startValue, currency, year)
		if err != nil {
			return nil, err
		}
		endCNY, err := rates.toCNY(endValue, currency, year)
		if err != nil {
			return nil, err
		}
		flowCNY, err := rates.toCNY(cashFlow, currency, year)
		if err != nil {
			return nil, err
		}
		totalStartCNY = totalStartCNY.Add(startCNY)
		totalEndCNY = totalEndCNY.Add(endCNY)
		totalCashFlowCNY = totalCashFlowCNY.Add(flowCNY)
	}

	totalReturnCNY := totalEndCNY.Sub(totalStartCNY).Add(totalCashFlowCNY)

	dividendIncomeCNY := decimal.Zero
	for _, div := range dividends {
		grossCNY, err := rates.toCNY(div.GrossAmount.Decimal, div.Currency, year)
		if err != nil {
			return nil, err
		}
		dividendIncomeCNY = dividendIncomeCNY.Add(grossCNY)
	}

	return &AnnualReturn{
		StartMarketValue:  NewMoney(amt(totalStartCNY), CNY),
		EndMarketValue:    NewMoney(amt(totalEndCNY), CNY),
		NetCashFlow:       NewMoney(amt(totalCashFlowCNY), CNY),
		TotalReturn:       NewMoney(amt(totalReturnCNY), CNY),
		DividendIncome:    NewMoney(amt(dividendIncomeCNY), CNY),
		TotalWithDividend: NewMoney(amt(totalReturnCNY.Add(dividendIncomeCNY)), CNY),
		ByCurrency:        byCurrency,
	}, nil
}
