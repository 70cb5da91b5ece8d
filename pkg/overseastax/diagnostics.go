package overseastax

// Diagnostics accumulates non-fatal data-quality findings produced during a
// computation. The engines always return a best-effort numeric result; these
// counters make sure the conditions are not silently absorbed.
type Diagnostics struct {
	// UnmatchedSells counts sell lots (or remaining portions of them) that
	// found no buy lot to consume. The sale is excluded from the realized
	// detail rows but indicates missing cost-basis data upstream.
	UnmatchedSells int `json:"unmatched_sells"`
	// InconsistentDividends counts dividend rows whose stated net amount did
	// not equal gross minus withholding. The engine recomputes the net
	// rather than trusting the input.
	InconsistentDividends int `json:"inconsistent_dividends"`
	// SkippedYears lists tax years excluded because no reference rate exists.
	SkippedYears []int `json:"skipped_years,omitempty"`
}

func (d *Diagnostics) noteUnmatchedSell() {
	if d != nil {
		d.UnmatchedSells++
	}
}

func (d *Diagnostics) noteInconsistentDividend() {
	if d != nil {
		d.InconsistentDividends++
	}
}

func (d *Diagnostics) noteSkippedYear(year int) {
	if d != nil {
		d.SkippedYears = append(d.SkippedYears, year)
	}
}
