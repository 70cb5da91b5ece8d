package overseastax

import "database/sql"

func initDatabase(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS calc_runs (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			bill_count INTEGER NOT NULL DEFAULT 0,
			years TEXT NOT NULL DEFAULT '',
			result_json TEXT NOT NULL,
			diagnostics_json TEXT NOT NULL DEFAULT '{}'
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS rate_overrides (
			year INTEGER PRIMARY KEY,
			usd REAL NOT NULL CHECK(usd > 0),
			hkd REAL NOT NULL CHECK(hkd > 0),
			source TEXT NOT NULL DEFAULT 'manual',
			rate_date TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS ai_settings (
			id INTEGER PRIMARY KEY CHECK(id = 1),
			base_url TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, "CREATE INDEX IF NOT EXISTS idx_calc_runs_created_at ON calc_runs(created_at)"); err != nil {
		return err
	}

	return tx.Commit()
}

func exec(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}
