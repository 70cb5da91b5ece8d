package overseastax

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Run is a persisted calculation run.
type Run struct {
	ID          string      `json:"id"`
	CreatedAt   string      `json:"created_at"`
	BillCount   int         `json:"bill_count"`
	Years       []int       `json:"years"`
	Results     []TaxResult `json:"results"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// RunSummary is a Run without the full per-year results.
type RunSummary struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	BillCount int    `json:"bill_count"`
	Years     []int  `json:"years"`
}

// Calculate runs the tax engines over the provided bills using the stored
// rate table (defaults plus overrides).
func (c *Core) Calculate(bills []Bill, opts CalcOptions) (*Computation, error) {
	rates, err := c.RateTable()
	if err != nil {
		return nil, err
	}
	return ComputeTax(bills, rates, opts)
}

// CalculateAndSave runs the tax engines and persists the outcome as a Run.
func (c *Core) CalculateAndSave(bills []Bill, opts CalcOptions) (*Run, error) {
	comp, err := c.Calculate(bills, opts)
	if err != nil {
		return nil, err
	}

	run := Run{
		ID:          uuid.NewString(),
		BillCount:   len(bills),
		Years:       resultYears(comp.Results),
		Results:     comp.Results,
		Diagnostics: comp.Diagnostics,
	}

	resultJSON, err := json.Marshal(run.Results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	diagJSON, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return nil, fmt.Errorf("marshal diagnostics: %w", err)
	}

	err = c.db.QueryRow(`
		INSERT INTO calc_runs (id, bill_count, years, result_json, diagnostics_json)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at
	`, run.ID, run.BillCount, encodeYears(run.Years), string(resultJSON), string(diagJSON)).Scan(&run.CreatedAt)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "save calculation run", err)
	}
	return &run, nil
}

// ListRuns returns saved run summaries, newest first.
func (c *Core) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.Query(`
		SELECT id, created_at, bill_count, years
		FROM calc_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "list calculation runs", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var years string
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.BillCount, &years); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan calculation run", err)
		}
		s.Years = decodeYears(years)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetRun loads one saved run with full results.
func (c *Core) GetRun(id string) (*Run, error) {
	var run Run
	var years, resultJSON, diagJSON string
	err := c.db.QueryRow(`
		SELECT id, created_at, bill_count, years, result_json, diagnostics_json
		FROM calc_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.CreatedAt, &run.BillCount, &years, &resultJSON, &diagJSON)
	if err == sql.ErrNoRows {
		return nil, NewError(ErrCodeNotFound, fmt.Sprintf("run %s not found", id))
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load calculation run", err)
	}
	run.Years = decodeYears(years)
	if err := json.Unmarshal([]byte(resultJSON), &run.Results); err != nil {
		return nil, WrapError(ErrCodeInternal, "decode run results", err)
	}
	if err := json.Unmarshal([]byte(diagJSON), &run.Diagnostics); err != nil {
		return nil, WrapError(ErrCodeInternal, "decode run diagnostics", err)
	}
	return &run, nil
}

// DeleteRun removes a saved run.
func (c *Core) DeleteRun(id string) error {
	result, err := c.db.Exec("DELETE FROM calc_runs WHERE id = ?", id)
	if err != nil {
		return WrapError(ErrCodeDatabase, "delete calculation run", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return WrapError(ErrCodeDatabase, "delete calculation run", err)
	}
	if affected == 0 {
		return NewError(ErrCodeNotFound, fmt.Sprintf("run %s not found", id))
	}
	return nil
}

func resultYears(results []TaxResult) []int {
	years := make([]int, 0, len(results))
	for _, r := range results {
		years = append(years, r.Year)
	}
	return years
}

func encodeYears(years []int) string {
	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, strconv.Itoa(y))
	}
	return strings.Join(parts, ",")
}

func decodeYears(encoded string) []int {
	if encoded == "" {
		return nil
	}
	var years []int
	for _, part := range strings.Split(encoded, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	return years
}
