package api

import "overseastax/pkg/overseastax"

type ratePayload struct {
	Year     int                `json:"year"`
	USD      overseastax.Amount `json:"usd"`
	HKD      overseastax.Amount `json:"hkd"`
	Source   string             `json:"source"`
	RateDate string             `json:"rate_date"`
}

type calculatePayload struct {
	Bills []overseastax.Bill `json:"bills"`
	Year  int                `json:"year"`
	Save  bool               `json:"save"`
}

type exportPayload struct {
	Bills    []overseastax.Bill `json:"bills"`
	Year     int                `json:"year"`
	Currency string             `json:"currency"`
}

type explainPayload struct {
	BaseURL  string             `json:"base_url"`
	APIKey   string             `json:"api_key"`
	Model    string             `json:"model"`
	Bills    []overseastax.Bill `json:"bills"`
	Year     int                `json:"year"`
	Currency string             `json:"currency"`
}

type ratesResponse struct {
	Entries   []overseastax.RateEntry    `json:"entries"`
	Overrides []overseastax.RateOverride `json:"overrides"`
}

type csvResponse struct {
	Currency string `json:"currency"`
	CSV      string `json:"csv"`
}

type reportResponse struct {
	Year     int    `json:"year"`
	Currency string `json:"currency"`
	Report   string `json:"report"`
}
