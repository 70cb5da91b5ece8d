package overseastax

import (
	"fmt"
	"strings"
)

const rateSourceManual = "manual"

// RateOverride is a user-maintained year-end exchange rate that replaces or
// extends the built-in reference table. Rates are quoted as CNY per 100 units
// of the foreign currency.
type RateOverride struct {
	Year      int    `json:"year"`
	USD       Amount `json:"usd"`
	HKD       Amount `json:"hkd"`
	Source    string `json:"source"`
	RateDate  string `json:"rate_date"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// ListRateOverrides returns all stored overrides, newest year first.
func (c *Core) ListRateOverrides() ([]RateOverride, error) {
	rows, err := c.db.Query(`
		SELECT year, usd, hkd, source, rate_date, updated_at
		FROM rate_overrides
		ORDER BY year DESC
	`)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "list rate overrides", err)
	}
	defer rows.Close()

	var overrides []RateOverride
	for rows.Next() {
		var o RateOverride
		if err := rows.Scan(&o.Year, &o.USD, &o.HKD, &o.Source, &o.RateDate, &o.UpdatedAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan rate override", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// SetRateOverride inserts or updates the override for a year.
func (c *Core) SetRateOverride(override RateOverride) (RateOverride, error) {
	if override.Year < 1900 || override.Year > 2200 {
		return RateOverride{}, NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid year: %d", override.Year))
	}
	if !override.USD.IsPositive() || !override.HKD.IsPositive() {
		return RateOverride{}, NewError(ErrCodeInvalidInput, "rates must be greater than 0")
	}
	override.Source = strings.TrimSpace(override.Source)
	if override.Source == "" {
		override.Source = rateSourceManual
	}
	override.RateDate = strings.TrimSpace(override.RateDate)
	if override.RateDate == "" {
		override.RateDate = fmt.Sprintf("%04d-12-31", override.Year)
	}

	err := c.db.QueryRow(`
		INSERT INTO rate_overrides (year, usd, hkd, source, rate_date, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(year) DO UPDATE SET
			usd = excluded.usd,
			hkd = excluded.hkd,
			source = excluded.source,
			rate_date = excluded.rate_date,
			updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at
	`, override.Year, override.USD, override.HKD, override.Source, override.RateDate).Scan(&override.UpdatedAt)
	if err != nil {
		return RateOverride{}, WrapError(ErrCodeDatabase, "save rate override", err)
	}
	return override, nil
}

// DeleteRateOverride removes the override for a year.
func (c *Core) DeleteRateOverride(year int) error {
	result, err := c.db.Exec("DELETE FROM rate_overrides WHERE year = ?", year)
	if err != nil {
		return WrapError(ErrCodeDatabase, "delete rate override", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return WrapError(ErrCodeDatabase, "delete rate override", err)
	}
	if affected == 0 {
		return NewError(ErrCodeNotFound, fmt.Sprintf("no rate override for year %d", year))
	}
	return nil
}

// RateTable merges the built-in reference rates with any stored overrides.
// An override for a built-in year wins.
func (c *Core) RateTable() (*RateTable, error) {
	overrides, err := c.ListRateOverrides()
	if err != nil {
		return nil, err
	}
	entries := defaultRateEntries()
	for _, o := range overrides {
		entries = append(entries, RateEntry{
			Year:   o.Year,
			Date:   o.RateDate,
			USD:    o.USD,
			HKD:    o.HKD,
			Source: o.Source,
		})
	}
	return NewRateTable(entries), nil
}
