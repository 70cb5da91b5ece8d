package overseastax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultGeminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	aiRequestTimeout      = 5 * time.Minute
	maxAIResponseBodySize = 2 << 20
	aiMaxOutputTokens     = 32000
)

const taxExplanationSystemPrompt = `你是一个专业的个人所得税咨询助手，熟悉中国居民个人境外所得的申报规则。
用户会提供某一年度境外证券投资的税款计算结果（财产转让所得、股息红利所得、利息所得，均按 20% 税率计算，股息部分已按境外已缴税款计算抵免）。
请用通俗的中文解释这份计算结果。
必须输出 JSON 对象，不要输出 Markdown，不要输出额外文字。
JSON 字段必须包含：
- summary: string（整体解读，2-4 句）
- key_points: string[]（逐项解释各税目金额的来源与口径）
- risk_notes: string[]（申报时需要注意的事项，如跨年持仓成本为估算值、汇率口径等）
- disclaimer: string

要求：
- 禁止编造计算结果中没有的数字。
- 必须说明结论仅供参考，以税务机关核定为准。`

// ExplainRequest defines inputs for an AI explanation of one year's result.
type ExplainRequest struct {
	BaseURL         string
	APIKey          string
	Model           string
	Result          TaxResult
	DisplayCurrency Currency
}

// TaxExplanation is the structured AI response returned to clients.
type TaxExplanation struct {
	GeneratedAt string   `json:"generated_at"`
	Model       string   `json:"model"`
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	RiskNotes   []string `json:"risk_notes"`
	Disclaimer  string   `json:"disclaimer"`
}

type taxExplanationModelResponse struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"key_points"`
	RiskNotes  []string `json:"risk_notes"`
	Disclaimer string   `json:"disclaimer"`
}

type aiChatCompletionRequest struct {
	EndpointURL  string
	APIKey       string
	Model        string
	SystemPrompt string
	UserPrompt   string
	Logger       *slog.Logger
}

type aiChatCompletionResult struct {
	Model   string
	Content string
}

var aiChatCompletion = requestAIChatCompletion

// ExplainResult asks an OpenAI-compatible or Gemini model to explain one
// year's calculation in plain language. Nothing is persisted; the API key
// is used for this request only.
func (c *Core) ExplainResult(req ExplainRequest) (*TaxExplanation, error) {
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return nil, NewError(ErrCodeInvalidInput, "api_key is required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, NewError(ErrCodeInvalidInput, "model is required")
	}
	display := req.DisplayCurrency
	if display == "" {
		display = CNY
	}

	rates, err := c.RateTable()
	if err != nil {
		return nil, err
	}
	userPrompt, err := buildTaxExplanationUserPrompt(req.Result, display, rates)
	if err != nil {
		return nil, err
	}

	endpointURL, err := buildAICompletionsEndpoint(req.BaseURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), aiRequestTimeout)
	defer cancel()

	chatResult, err := aiChatCompletion(ctx, aiChatCompletionRequest{
		EndpointURL:  endpointURL,
		APIKey:       apiKey,
		Model:        model,
		SystemPrompt: taxExplanationSystemPrompt,
		UserPrompt:   userPrompt,
		Logger:       c.Logger(),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parseTaxExplanationResponse(chatResult.Content)
	if err != nil {
		return nil, err
	}

	respModel := strings.TrimSpace(chatResult.Model)
	if respModel == "" {
		respModel = model
	}
	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		summary = "模型未返回解读，请重试或更换模型。"
	}
	disclaimer := strings.TrimSpace(parsed.Disclaimer)
	if disclaimer == "" {
		disclaimer = "本解读仅供参考，不构成税务建议，请以税务机关核定为准。"
	}

	return &TaxExplanation{
		GeneratedAt: NowRFC3339InShanghai(),
		Model:       respModel,
		Summary:     summary,
		KeyPoints:   trimStrings(parsed.KeyPoints),
		RiskNotes:   trimStrings(parsed.RiskNotes),
		Disclaimer:  disclaimer,
	}, nil
}

func buildTaxExplanationUserPrompt(result TaxResult, display Currency, rates *RateTable) (string, error) {
	row, err := BuildDisplayRow(result, display, rates)
	if err != nil {
		return "", err
	}

	hasEstimatedCost := false
	for _, d := range result.CapitalGains.Details {
		if d.IsEstimatedCost {
			hasEstimatedCost = true
			break
		}
	}

	payload, err := json.Marshal(struct {
		Row              DisplayRow `json:"amounts"`
		ExchangeRate     RateEntry  `json:"exchange_rate"`
		TradeCount       int        `json:"trade_count"`
		DividendCount    int        `json:"dividend_count"`
		HasEstimatedCost bool       `json:"has_estimated_cost"`
	}{
		Row:              row,
		ExchangeRate:     result.ExchangeRate,
		TradeCount:       len(result.CapitalGains.Details),
		DividendCount:    len(result.DividendTax.Details),
		HasEstimatedCost: hasEstimatedCost,
	})
	if err != nil {
		return "", fmt.Errorf("marshal explanation input: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "请解读以下 %d 年度的计算结果（金额均为 %s）：\n", result.Year, display)
	sb.Write(payload)
	sb.WriteString("\n\n输出要求：\n")
	sb.WriteString("1) 必须是 JSON 对象。\n")
	sb.WriteString("2) key_points 需覆盖资本利得、股息（含抵免）、利息三项。\n")
	sb.WriteString("3) has_estimated_cost 为 true 时，risk_notes 必须提示成本为期初市价估算。")
	return sb.String(), nil
}

func parseTaxExplanationResponse(content string) (*taxExplanationModelResponse, error) {
	cleaned := cleanupModelJSON(content)
	var parsed taxExplanationModelResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return &parsed, nil
}

func cleanupModelJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		lines := strings.Split(trimmed, "\n")
		if len(lines) >= 2 {
			lines = lines[1:]
			if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
				lines = lines[:len(lines)-1]
			}
			trimmed = strings.Join(lines, "\n")
		}
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		trimmed = trimmed[start : end+1]
	}
	return strings.TrimSpace(trimmed)
}

func trimStrings(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func buildAICompletionsEndpoint(baseURL string) (string, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultAISettingsBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")
	lower := strings.ToLower(trimmed)

	endpoint := ""
	switch {
	case strings.HasSuffix(lower, "/chat/completions"):
		endpoint = trimmed
	case strings.HasSuffix(lower, "/v1"):
		endpoint = trimmed + "/chat/completions"
	default:
		endpoint = trimmed + "/v1/chat/completions"
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", NewError(ErrCodeInvalidInput, "invalid base_url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", NewError(ErrCodeInvalidInput, "invalid base_url scheme: "+parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", NewError(ErrCodeInvalidInput, "invalid base_url host")
	}
	return endpoint, nil
}

func isGeminiRequest(endpointURL, model string) bool {
	modelLower := strings.ToLower(strings.TrimSpace(model))
	if strings.HasPrefix(modelLower, "gemini") {
		return true
	}
	endpointLower := strings.ToLower(strings.TrimSpace(endpointURL))
	return strings.Contains(endpointLower, "generativelanguage.googleapis.com")
}

func requestAIChatCompletion(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error) {
	if isGeminiRequest(req.EndpointURL, req.Model) {
		return requestAIByGeminiNative(ctx, req)
	}

	payload := map[string]any{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserPrompt},
		},
		"temperature": 0.2,
		"stream":      false,
		"max_tokens":  aiMaxOutputTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return aiChatCompletionResult{}, fmt.Errorf("marshal ai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return aiChatCompletionResult{}, fmt.Errorf("build ai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	respBody, err := executeAIRequest(httpReq, req.Logger)
	if err != nil {
		return aiChatCompletionResult{}, err
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return aiChatCompletionResult{}, fmt.Errorf("decode ai response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return aiChatCompletionResult{}, fmt.Errorf("ai response content is empty")
	}
	return aiChatCompletionResult{
		Model:   strings.TrimSpace(parsed.Model),
		Content: strings.TrimSpace(parsed.Choices[0].Message.Content),
	}, nil
}

func requestAIByGeminiNative(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(req.APIKey),
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    geminiBaseURL(req.EndpointURL),
			APIVersion: "v1beta",
		},
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return aiChatCompletionResult{}, fmt.Errorf("create gemini client failed: %w", err)
	}

	requestConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		},
		Temperature:      genai.Ptr(float32(0.2)),
		MaxOutputTokens:  aiMaxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	response, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.UserPrompt), requestConfig)
	if err != nil {
		return aiChatCompletionResult{}, fmt.Errorf("gemini generate content failed: %w", err)
	}
	content := strings.TrimSpace(response.Text())
	if content == "" {
		return aiChatCompletionResult{}, fmt.Errorf("ai response content is empty")
	}
	model := strings.TrimSpace(response.ModelVersion)
	if model == "" {
		model = req.Model
	}
	return aiChatCompletionResult{Model: model, Content: content}, nil
}

func geminiBaseURL(endpoint string) string {
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || parsed.Host == "" || strings.EqualFold(parsed.Hostname(), "api.openai.com") {
		return defaultGeminiBaseURL + "/"
	}
	return fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host)
}

func executeAIRequest(httpReq *http.Request, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{Timeout: aiRequestTimeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAIResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read ai response: %w", err)
	}
	logger.Debug("ai raw response",
		"endpoint", httpReq.URL.String(),
		"status_code", resp.StatusCode,
		"body_bytes", len(respBody),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := parseAIErrorMessage(respBody)
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("ai upstream error: %s", message)
	}
	return respBody, nil
}

func parseAIErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if strings.TrimSpace(payload.Error.Message) != "" {
		return strings.TrimSpace(payload.Error.Message)
	}
	return strings.TrimSpace(payload.Message)
}
