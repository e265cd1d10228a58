package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/apperr"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2"
)

// OllamaAnalyzer implements Analyzer using the Ollama generate API.
type OllamaAnalyzer struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaAnalyzer creates an analyzer. Empty arguments fall back to the
// local defaults.
func NewOllamaAnalyzer(baseURL, model string, timeout time.Duration) *OllamaAnalyzer {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaAnalyzer{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Analyze sends the extraction prompt and parses the model's reply.
// Rate limiting and quota messages map to apperr.ErrQuotaExhausted.
func (a *OllamaAnalyzer) Analyze(ctx context.Context, text string) (analysis.Value, error) {
	body, err := json.Marshal(generateRequest{
		Model:  a.model,
		Prompt: Prompt(text),
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return analysis.Value{}, fmt.Errorf("extract: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return analysis.Value{}, fmt.Errorf("extract: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return analysis.Value{}, fmt.Errorf("extract: call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return analysis.Value{}, fmt.Errorf("extract: ollama status %d: %w", resp.StatusCode, apperr.ErrQuotaExhausted)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if IsQuotaMessage(string(msg)) {
			return analysis.Value{}, fmt.Errorf("extract: ollama status %d: %w", resp.StatusCode, apperr.ErrQuotaExhausted)
		}
		return analysis.Value{}, fmt.Errorf("extract: ollama status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return analysis.Value{}, fmt.Errorf("extract: decode response: %w", err)
	}
	if gen.Error != "" {
		if IsQuotaMessage(gen.Error) {
			return analysis.Value{}, fmt.Errorf("extract: %s: %w", gen.Error, apperr.ErrQuotaExhausted)
		}
		return analysis.Value{}, fmt.Errorf("extract: ollama: %s", gen.Error)
	}

	v, err := analysis.Parse([]byte(gen.Response))
	if err != nil {
		return analysis.Value{}, fmt.Errorf("extract: %w", err)
	}
	return v, nil
}
