package mobile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupMobileCore(t *testing.T) (*Core, func()) {
	t.Helper()
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "test.db")
	core, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cleanup := func() {
		_ = core.Close()
		_ = os.RemoveAll(tmp)
	}
	return core, cleanup
}

const testBillsJSON = `[{
	"year": 2024,
	"file_name": "2024-annual.csv",
	"file_type": "annual",
	"transactions": [
		{"trade_time": "2024-03-01 10:00:00", "symbol": "AAPL", "market": "US", "category": "SECURITY",
		 "direction": "BUY", "currency": "USD", "quantity": 10, "price": 100,
		 "trade_amount": 1000, "total_fee": 5, "change_amount": -1005},
		{"trade_time": "2024-06-01 10:00:00", "symbol": "AAPL", "market": "US", "category": "SECURITY",
		 "direction": "SELL", "currency": "USD", "quantity": 10, "price": 120,
		 "trade_amount": 1200, "total_fee": 5, "change_amount": 1195}
	],
	"dividends": [],
	"interests": [],
	"holdings": []
}]`

func TestMobileCoreJSONFlows(t *testing.T) {
	core, cleanup := setupMobileCore(t)
	defer cleanup()

	resp, err := core.CalculateJSON(testBillsJSON, 0, true)
	if err != nil {
		t.Fatalf("CalculateJSON: %v", err)
	}
	var run map[string]any
	if err := json.Unmarshal([]byte(resp), &run); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}
	id, _ := run["id"].(string)
	if id == "" {
		t.Fatalf("expected run id in response")
	}

	listResp, err := core.ListRunsJSON(10)
	if err != nil {
		t.Fatalf("ListRunsJSON: %v", err)
	}
	if !strings.Contains(listResp, id) {
		t.Fatalf("expected saved run in list, got %s", listResp)
	}

	if _, err := core.GetRunJSON(id); err != nil {
		t.Fatalf("GetRunJSON: %v", err)
	}

	csvResp, err := core.ExportCSVJSON(testBillsJSON, "CNY")
	if err != nil {
		t.Fatalf("ExportCSVJSON: %v", err)
	}
	if !strings.Contains(csvResp, "1365.80") {
		t.Fatalf("expected capital gain in CSV response, got %s", csvResp)
	}

	if err := core.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if err := core.DeleteRun(id); err == nil {
		t.Fatalf("expected error deleting missing run")
	}
}

func TestMobileCoreRatesAndSettings(t *testing.T) {
	core, cleanup := setupMobileCore(t)
	defer cleanup()

	ratesResp, err := core.GetRatesJSON()
	if err != nil {
		t.Fatalf("GetRatesJSON: %v", err)
	}
	var rates []map[string]any
	if err := json.Unmarshal([]byte(ratesResp), &rates); err != nil {
		t.Fatalf("unmarshal rates: %v", err)
	}
	if len(rates) != 5 {
		t.Fatalf("expected 5 built-in rate entries, got %d", len(rates))
	}

	saved, err := core.SetRateOverrideJSON(`{"year":2025,"usd":730.5,"hkd":93.1}`)
	if err != nil {
		t.Fatalf("SetRateOverrideJSON: %v", err)
	}
	if !strings.Contains(saved, "manual") {
		t.Fatalf("expected default source in saved override, got %s", saved)
	}
	if err := core.DeleteRateOverride(2025); err != nil {
		t.Fatalf("DeleteRateOverride: %v", err)
	}

	settingsResp, err := core.SetAISettingsJSON(`{"base_url":"https://example.com/v1","model":"gpt-4o-mini"}`)
	if err != nil {
		t.Fatalf("SetAISettingsJSON: %v", err)
	}
	if !strings.Contains(settingsResp, "gpt-4o-mini") {
		t.Fatalf("expected model in settings, got %s", settingsResp)
	}
	stored, err := core.GetAISettingsJSON()
	if err != nil {
		t.Fatalf("GetAISettingsJSON: %v", err)
	}
	if !strings.Contains(stored, "example.com") {
		t.Fatalf("expected stored base url, got %s", stored)
	}
}

func TestMobileCoreInvalidJSON(t *testing.T) {
	core, cleanup := setupMobileCore(t)
	defer cleanup()

	if _, err := core.CalculateJSON("{bad json}", 0, false); err == nil {
		t.Fatalf("expected error for invalid bills JSON")
	}
	if _, err := core.SetRateOverrideJSON("{bad json}"); err == nil {
		t.Fatalf("expected error for invalid override JSON")
	}
	if _, err := core.SetAISettingsJSON("{bad json}"); err == nil {
		t.Fatalf("expected error for invalid settings JSON")
	}
}

func TestMobileCoreCloseNil(t *testing.T) {
	var c *Core
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
