package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"overseastax/pkg/overseastax"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getRates(w http.ResponseWriter, r *http.Request) {
	table, err := h.core.RateTable()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	overrides, err := h.core.ListRateOverrides()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ratesResponse{
		Entries:   table.Entries(),
		Overrides: overrides,
	})
}

func (h *handler) setRateOverride(w http.ResponseWriter, r *http.Request) {
	var payload ratePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.core.SetRateOverride(overseastax.RateOverride{
		Year:     payload.Year,
		USD:      payload.USD,
		HKD:      payload.HKD,
		Source:   payload.Source,
		RateDate: payload.RateDate,
	})
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) deleteRateOverride(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	if err := h.core.DeleteRateOverride(year); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) calculate(w http.ResponseWriter, r *http.Request) {
	var payload calculatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(payload.Bills) == 0 {
		writeError(w, http.StatusBadRequest, "no bills provided")
		return
	}
	opts := overseastax.CalcOptions{Year: payload.Year}
	if payload.Save {
		run, err := h.core.CalculateAndSave(payload.Bills, opts)
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
		return
	}
	computation, err := h.core.Calculate(payload.Bills, opts)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, computation)
}

func (h *handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	var payload exportPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(payload.Bills) == 0 {
		writeError(w, http.StatusBadRequest, "no bills provided")
		return
	}
	currency, err := parseCurrency(payload.Currency)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	table, err := h.core.RateTable()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	computation, err := h.core.Calculate(payload.Bills, overseastax.CalcOptions{Year: payload.Year})
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	csv, err := overseastax.ExportCSV(computation.Results, currency, table)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, csvResponse{
		Currency: string(currency),
		CSV:      csv,
	})
}

func (h *handler) renderReport(w http.ResponseWriter, r *http.Request) {
	var payload exportPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(payload.Bills) == 0 {
		writeError(w, http.StatusBadRequest, "no bills provided")
		return
	}
	currency, err := parseCurrency(payload.Currency)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	table, err := h.core.RateTable()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	computation, err := h.core.Calculate(payload.Bills, overseastax.CalcOptions{Year: payload.Year})
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	result, err := selectResult(computation.Results, payload.Year)
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, err)
		return
	}
	report, err := overseastax.RenderReport(result, currency, table)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Year:     result.Year,
		Currency: string(currency),
		Report:   report,
	})
}

func (h *handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	runs, err := h.core.ListRuns(limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.core.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handler) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteRun(chi.URLParam(r, "id")); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) getAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.core.GetAISettings()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handler) setAISettings(w http.ResponseWriter, r *http.Request) {
	var payload overseastax.AISettings
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := h.core.SetAISettings(payload)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handler) explain(w http.ResponseWriter, r *http.Request) {
	var payload explainPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(payload.Bills) == 0 {
		writeError(w, http.StatusBadRequest, "no bills provided")
		return
	}
	currency, err := parseCurrency(payload.Currency)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	computation, err := h.core.Calculate(payload.Bills, overseastax.CalcOptions{Year: payload.Year})
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	result, err := selectResult(computation.Results, payload.Year)
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, err)
		return
	}
	baseURL, model := payload.BaseURL, payload.Model
	if baseURL == "" || model == "" {
		settings, err := h.core.GetAISettings()
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}
		if baseURL == "" {
			baseURL = settings.BaseURL
		}
		if model == "" {
			model = settings.Model
		}
	}
	explanation, err := h.core.ExplainResult(overseastax.ExplainRequest{
		BaseURL:         baseURL,
		APIKey:          payload.APIKey,
		Model:           model,
		Result:          result,
		DisplayCurrency: currency,
	})
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

// parseCurrency maps a request currency string to a supported display
// currency. Empty input falls back to CNY.
func parseCurrency(value string) (overseastax.Currency, error) {
	if value == "" {
		return overseastax.CNY, nil
	}
	candidate := overseastax.Currency(strings.ToUpper(strings.TrimSpace(value)))
	for _, c := range overseastax.Currencies {
		if candidate == c {
			return c, nil
		}
	}
	return "", overseastax.NewError(overseastax.ErrCodeInvalidInput, "unsupported display currency: "+value)
}

// selectResult picks the result for the requested year, or the newest
// result when no year is given.
func selectResult(results []overseastax.TaxResult, year int) (overseastax.TaxResult, error) {
	if year == 0 {
		if len(results) == 0 {
			return overseastax.TaxResult{}, overseastax.NewError(overseastax.ErrCodeNotFound, "no tax results computed")
		}
		return results[0], nil
	}
	for _, result := range results {
		if result.Year == year {
			return result, nil
		}
	}
	return overseastax.TaxResult{}, overseastax.NewError(overseastax.ErrCodeNotFound, "no tax result for year "+strconv.Itoa(year))
}
