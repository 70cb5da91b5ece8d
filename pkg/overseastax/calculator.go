package overseastax

import "sort"

// CalcOptions controls a multi-year computation.
type CalcOptions struct {
	// Year restricts the computation to a single tax year; zero computes
	// every year present in the bills.
	Year int
}

// Computation is the outcome of one ComputeTax invocation: the per-year
// results plus the data-quality diagnostics accumulated along the way.
type Computation struct {
	Results     []TaxResult `json:"results"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// ComputeTax partitions normalized bills by tax year, runs the four engines
// for each year and assembles the results, newest year first.
//
// Only annual-statement bills participate; dividend-summary bills are
// cross-check material and are ignored here. A year without a reference
// rate is skipped entirely (no partial result) and recorded in the
// diagnostics. The call is atomic: either a year computes fully or it is
// omitted.
func ComputeTax(bills []Bill, rates *RateTable, opts CalcOptions) (*Computation, error) {
	byYear := make(map[int][]Bill)
	for _, bill := range bills {
		if opts.Year != 0 && bill.Year != opts.Year {
			continue
		}
		byYear[bill.Year] = append(byYear[bill.Year], bill)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	comp := &Computation{}
	for _, year := range years {
		entry, ok := rates.Lookup(year)
		if !ok {
			comp.Diagnostics.noteSkippedYear(year)
			continue
		}

		var transactions []Transaction
		var dividends []DividendRecord
		var interests []InterestRecord
		var holdings []Holding
		for _, bill := range byYear[year] {
			if bill.FileType != FileTypeAnnual {
				continue
			}
			transactions = append(transactions, bill.Transactions...)
			dividends = append(dividends, bill.Dividends...)
			interests = append(interests, bill.Interests...)
			holdings = append(holdings, bill.Holdings...)
		}

		capitalGains, err := ComputeCapitalGains(transactions, year, holdings, rates, &comp.Diagnostics)
		if err != nil {
			return nil, err
		}
		dividendTax, err := ComputeDividendTax(dividends, year, rates, &comp.Diagnostics)
		if err != nil {
			return nil, err
		}
		interestTax, err := ComputeInterestTax(interests, year, rates)
		if err != nil {
			return nil, err
		}

		result := TaxResult{
			Year:         year,
			ExchangeRate: entry,
			CapitalGains: capitalGains,
			DividendTax:  dividendTax,
			InterestTax:  interestTax,
			Summary:      ComputeSummary(capitalGains, dividendTax, interestTax),
		}

		// The mark-to-market view needs holdings snapshots; without them the
		// component stays absent rather than reporting sentinel zeros.
		if len(holdings) > 0 {
			annualReturn, err := ComputeAnnualReturn(holdings, transactions, dividends, year, rates)
			if err != nil {
				return nil, err
			}
			result.AnnualReturn = annualReturn
		}

		comp.Results = append(comp.Results, result)
	}

	sort.Slice(comp.Results, func(i, j int) bool {
		return comp.Results[i].Year > comp.Results[j].Year
	})
	return comp, nil
}
