package overseastax

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat personal income tax rate applied to capital gains,
// dividends and interest alike.
var TaxRate = decimal.RequireFromString("0.2")

// lotKey groups fills that may be matched against each other. Gains are
// never netted across keys mid-calculation; netting happens only after
// currency conversion at the aggregation step.
type lotKey struct {
	Symbol   string
	Market   string
	Currency Currency
	Category InstrumentCategory
}

func keyOf(tx Transaction) lotKey {
	return lotKey{Symbol: tx.Symbol, Market: tx.Market, Currency: tx.Currency, Category: tx.Category}
}

// buyLot is a FIFO inventory entry. quantity keeps the lot's original size
// for proportional splits; remaining tracks what is still unconsumed.
type buyLot struct {
	tradeTime   string
	quantity    decimal.Decimal
	remaining   decimal.Decimal
	price       decimal.Decimal
	amount      decimal.Decimal // trade amount, multiplier already applied
	fee         decimal.Decimal
	fromHolding bool
}

// ComputeCapitalGains FIFO-matches sell fills against buy fills (plus one
// synthetic buy lot per group derived from a period-start holding) within a
// single tax year and aggregates the realized result in CNY.
//
// Losses offset gains across instruments within the year, but the taxable
// base never goes below zero and losses never carry across years. diag may
// be nil.
func ComputeCapitalGains(transactions []Transaction, year int, holdings []Holding, rates *RateTable, diag *Diagnostics) (CapitalGainsTax, error) {
	// Period-start holdings keyed like transactions; only the first positive
	// snapshot per group becomes a synthetic lot. Sub-lots with distinct real
	// acquisition dates are not reconstructible from a single snapshot.
	startHoldings := make(map[lotKey]Holding)
	for _, h := range holdings {
		if h.PeriodType != PeriodStart || !h.Quantity.IsPositive() {
			continue
		}
		k := lotKey{Symbol: h.Symbol, Market: h.Market, Currency: h.Currency, Category: h.Category}
		if _, seen := startHoldings[k]; !seen {
			startHoldings[k] = h
		}
	}

	groups := make(map[lotKey][]Transaction)
	for _, tx := range transactions {
		k := keyOf(tx)
		groups[k] = append(groups[k], tx)
	}

	keys := make([]lotKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.Category < b.Category
	})

	var details []CapitalGainDetail
	for _, k := range keys {
		groupDetails, err := matchGroup(k, groups[k], startHoldings, year, rates, diag)
		if err != nil {
			return CapitalGainsTax{}, err
		}
		details = append(details, groupDetails...)
	}

	return aggregateCapitalGains(details), nil
}

func matchGroup(k lotKey, trades []Transaction, startHoldings map[lotKey]Holding, year int, rates *RateTable, diag *Diagnostics) ([]CapitalGainDetail, error) {
	var buys []*buyLot
	var sells []Transaction

	// A carried-over position becomes a synthetic buy dated at the first
	// instant of the year, with the period-start market value as its basis.
	// Every match against it is flagged as estimated cost.
	if h, ok := startHoldings[k]; ok {
		buys = append(buys, &buyLot{
			tradeTime:   fmt.Sprintf("%04d-01-01 00:00:00", year),
			quantity:    h.Quantity.Decimal,
			remaining:   h.Quantity.Decimal,
			price:       h.Price.Decimal,
			amount:      h.MarketValue.Decimal,
			fee:         decimal.Zero,
			fromHolding: true,
		})
	}

	for _, tx := range trades {
		switch tx.Direction {
		case DirectionBuy:
			buys = append(buys, &buyLot{
				tradeTime: tx.TradeTime,
				quantity:  tx.Quantity.Decimal,
				remaining: tx.Quantity.Decimal,
				price:     tx.Price.Decimal,
				amount:    tx.TradeAmount.Decimal.Abs(),
				fee:       tx.TotalFee.Decimal,
			})
		case DirectionSell:
			sells = append(sells, tx)
		}
	}

	// Timestamps are lexicographically ordered; the synthetic lot naturally
	// sorts first.
	sort.SliceStable(buys, func(i, j int) bool { return buys[i].tradeTime < buys[j].tradeTime })
	sort.SliceStable(sells, func(i, j int) bool { return sells[i].TradeTime < sells[j].TradeTime })

	var details []CapitalGainDetail
	buyIdx := 0
	for _, sell := range sells {
		sellRemaining := sell.Quantity.Decimal
		for sellRemaining.IsPositive() && buyIdx < len(buys) {
			lot := buys[buyIdx]
			matchQty := decimal.Min(sellRemaining, lot.remaining)
			if matchQty.IsPositive() {
				d, err := buildDetail(sell, lot, matchQty, year, rates)
				if err != nil {
					return nil, err
				}
				details = append(details, d)
				sellRemaining = sellRemaining.Sub(matchQty)
				lot.remaining = lot.remaining.Sub(matchQty)
			}
			if !lot.remaining.IsPositive() {
				buyIdx++
			}
		}
		if sellRemaining.IsPositive() {
			diag.noteUnmatchedSell()
		}
	}
	return details, nil
}

// buildDetail prorates amounts and fees against the original lot sizes and
// converts the realized gain to CNY. Nothing is rounded here.
func buildDetail(sell Transaction, lot *buyLot, matchQty decimal.Decimal, year int, rates *RateTable) (CapitalGainDetail, error) {
	buyAmount := lot.amount.Mul(matchQty).Div(lot.quantity)
	sellAmount := sell.TradeAmount.Decimal.Abs().Mul(matchQty).Div(sell.Quantity.Decimal)
	fees := lot.fee.Mul(matchQty).Div(lot.quantity).
		Add(sell.TotalFee.Decimal.Mul(matchQty).Div(sell.Quantity.Decimal))
	gain := sellAmount.Sub(buyAmount).Sub(fees)

	gainCNY, err := rates.toCNY(gain, sell.Currency, year)
	if err != nil {
		return CapitalGainDetail{}, err
	}

	return CapitalGainDetail{
		Symbol:          sell.Symbol,
		Market:          sell.Market,
		Category:        sell.Category,
		BuyDate:         dateOf(lot.tradeTime),
		SellDate:        dateOf(sell.TradeTime),
		Quantity:        amt(matchQty),
		BuyPrice:        amt(lot.price),
		SellPrice:       sell.Price,
		BuyAmount:       NewMoney(amt(buyAmount), sell.Currency),
		SellAmount:      NewMoney(amt(sellAmount), sell.Currency),
		Fees:            NewMoney(amt(fees), sell.Currency),
		Gain:            NewMoney(amt(gain), sell.Currency),
		GainCNY:         NewMoney(amt(gainCNY), CNY),
		IsEstimatedCost: lot.fromHolding,
	}, nil
}

func aggregateCapitalGains(details []CapitalGainDetail) CapitalGainsTax {
	perCurrency := make(map[Currency]*CurrencySummary)
	totalGainCNY := decimal.Zero
	for _, d := range details {
		cur := d.Gain.Currency
		s, ok := perCurrency[cur]
		if !ok {
			s = &CurrencySummary{Currency: cur}
			perCurrency[cur] = s
		}
		s.TotalGain = amt(s.TotalGain.Add(d.Gain.Amount.Decimal))
		s.TotalGainCNY = amt(s.TotalGainCNY.Add(d.GainCNY.Amount.Decimal))
		totalGainCNY = totalGainCNY.Add(d.GainCNY.Amount.Decimal)
	}

	byCurrency := make([]CurrencySummary, 0, len(perCurrency))
	for _, s := range perCurrency {
		byCurrency = append(byCurrency, *s)
	}
	sort.Slice(byCurrency, func(i, j int) bool {
		return strings.Compare(string(byCurrency[i].Currency), string(byCurrency[j].Currency)) < 0
	})

	// Losses in one instrument offset gains in another within the year, but
	// an overall loss never produces a refund or carries forward.
	taxable := decimal.Max(decimal.Zero, totalGainCNY)
	return CapitalGainsTax{
		TotalGain:   NewMoney(amt(totalGainCNY), CNY),
		TaxableGain: NewMoney(amt(taxable), CNY),
		TaxAmount:   NewMoney(amt(taxable.Mul(TaxRate)), CNY),
		ByCurrency:  byCurrency,
		Details:     details,
	}
}

// dateOf trims the time-of-day part of a "YYYY-MM-DD hh:mm:ss" timestamp.
func dateOf(tradeTime string) string {
	if i := strings.IndexByte(tradeTime, ' '); i > 0 {
		return tradeTime[:i]
	}
	return tradeTime
}
