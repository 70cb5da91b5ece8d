package overseastax

import "github.com/shopspring/decimal"

// ComputeInterestTax sums interest income, converts to CNY and applies the
// flat rate. No lot matching and no credit apply to interest.
func ComputeInterestTax(interests []InterestRecord, year int, rates *RateTable) (InterestTax, error) {
	totalCNY := decimal.Zero
	for _, in := range interests {
		converted, err := rates.toCNY(in.Amount.Decimal, in.Currency, year)
		if err != nil {
			return InterestTax{}, err
		}
		totalCNY = totalCNY.Add(converted)
	}

	return InterestTax{
		TotalInterest: NewMoney(amt(totalCNY), CNY),
		TaxAmount:     NewMoney(amt(totalCNY.Mul(TaxRate)), CNY),
		Details:       interests,
	}, nil
}
