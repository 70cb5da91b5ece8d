package overseastax

import (
	"database/sql"
	"strings"
)

const defaultAISettingsBaseURL = "https://api.openai.com/v1"

// AISettings holds the persisted AI explanation configuration. The API key
// is never stored; callers supply it per request.
type AISettings struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

func defaultAISettings() AISettings {
	return AISettings{BaseURL: defaultAISettingsBaseURL}
}

func trimTrailingSlash(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.TrimRight(trimmed, "/")
}

func normalizeAISettings(settings AISettings) AISettings {
	normalized := settings
	normalized.BaseURL = trimTrailingSlash(normalized.BaseURL)
	if normalized.BaseURL == "" {
		normalized.BaseURL = defaultAISettingsBaseURL
	}
	normalized.Model = strings.TrimSpace(normalized.Model)
	return normalized
}

// GetAISettings returns persisted AI settings (excluding API key).
func (c *Core) GetAISettings() (AISettings, error) {
	settings := defaultAISettings()
	err := c.db.QueryRow(`
		SELECT base_url, model
		FROM ai_settings
		WHERE id = 1
	`).Scan(&settings.BaseURL, &settings.Model)
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return AISettings{}, WrapError(ErrCodeDatabase, "load ai settings", err)
	}
	return normalizeAISettings(settings), nil
}

// SetAISettings persists AI settings (excluding API key).
func (c *Core) SetAISettings(settings AISettings) (AISettings, error) {
	normalized := normalizeAISettings(settings)
	_, err := c.db.Exec(`
		INSERT INTO ai_settings (id, base_url, model, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			base_url = excluded.base_url,
			model = excluded.model,
			updated_at = CURRENT_TIMESTAMP
	`, normalized.BaseURL, normalized.Model)
	if err != nil {
		return AISettings{}, WrapError(ErrCodeDatabase, "save ai settings", err)
	}
	return normalized, nil
}
