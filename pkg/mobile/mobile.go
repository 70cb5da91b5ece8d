package mobile

import (
	"encoding/json"

	"overseastax/pkg/overseastax"
)

// Core wraps the tax engine core for gomobile bindings. Every method
// exchanges JSON strings because gomobile cannot bind rich Go types.
type Core struct {
	core *overseastax.Core
}

// Open initializes the core with a database path.
func Open(dbPath string) (*Core, error) {
	core, err := overseastax.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// CalculateJSON runs the tax calculation on JSON-encoded bills.
func (c *Core) CalculateJSON(billsJSON string, year int, save bool) (string, error) {
	var bills []overseastax.Bill
	if err := json.Unmarshal([]byte(billsJSON), &bills); err != nil {
		return "", err
	}
	opts := overseastax.CalcOptions{Year: year}
	if save {
		run, err := c.core.CalculateAndSave(bills, opts)
		if err != nil {
			return "", err
		}
		return marshalJSON(run)
	}
	computation, err := c.core.Calculate(bills, opts)
	if err != nil {
		return "", err
	}
	return marshalJSON(computation)
}

// ExportCSVJSON renders the CSV export for JSON-encoded bills.
func (c *Core) ExportCSVJSON(billsJSON, currency string) (string, error) {
	var bills []overseastax.Bill
	if err := json.Unmarshal([]byte(billsJSON), &bills); err != nil {
		return "", err
	}
	table, err := c.core.RateTable()
	if err != nil {
		return "", err
	}
	computation, err := c.core.Calculate(bills, overseastax.CalcOptions{})
	if err != nil {
		return "", err
	}
	csv, err := overseastax.ExportCSV(computation.Results, overseastax.Currency(currency), table)
	if err != nil {
		return "", err
	}
	return marshalJSON(map[string]string{"currency": currency, "csv": csv})
}

// ListRunsJSON returns saved run summaries as JSON.
func (c *Core) ListRunsJSON(limit int) (string, error) {
	runs, err := c.core.ListRuns(limit)
	if err != nil {
		return "", err
	}
	return marshalJSON(runs)
}

// GetRunJSON returns one saved run as JSON.
func (c *Core) GetRunJSON(id string) (string, error) {
	run, err := c.core.GetRun(id)
	if err != nil {
		return "", err
	}
	return marshalJSON(run)
}

// DeleteRun deletes a saved run by id.
func (c *Core) DeleteRun(id string) error {
	return c.core.DeleteRun(id)
}

// GetRatesJSON returns the merged rate table entries as JSON.
func (c *Core) GetRatesJSON() (string, error) {
	table, err := c.core.RateTable()
	if err != nil {
		return "", err
	}
	return marshalJSON(table.Entries())
}

// SetRateOverrideJSON stores a rate override from JSON and echoes it back.
func (c *Core) SetRateOverrideJSON(payloadJSON string) (string, error) {
	var override overseastax.RateOverride
	if err := json.Unmarshal([]byte(payloadJSON), &override); err != nil {
		return "", err
	}
	saved, err := c.core.SetRateOverride(override)
	if err != nil {
		return "", err
	}
	return marshalJSON(saved)
}

// DeleteRateOverride removes a stored rate override.
func (c *Core) DeleteRateOverride(year int) error {
	return c.core.DeleteRateOverride(year)
}

// GetAISettingsJSON returns stored AI settings as JSON.
func (c *Core) GetAISettingsJSON() (string, error) {
	settings, err := c.core.GetAISettings()
	if err != nil {
		return "", err
	}
	return marshalJSON(settings)
}

// SetAISettingsJSON stores AI settings from JSON and echoes them back.
func (c *Core) SetAISettingsJSON(payloadJSON string) (string, error) {
	var settings overseastax.AISettings
	if err := json.Unmarshal([]byte(payloadJSON), &settings); err != nil {
		return "", err
	}
	saved, err := c.core.SetAISettings(settings)
	if err != nil {
		return "", err
	}
	return marshalJSON(saved)
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
