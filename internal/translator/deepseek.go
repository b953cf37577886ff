package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
	defaultDeepSeekModel   = "deepseek-chat"

	deepseekSystemPrompt = "You are a professional document translator. " +
		"Answer only with the translated segments in the requested [ID: xxx] format."
)

// DeepSeekService translates batches through the DeepSeek chat-completions
// API (OpenAI-compatible wire format).
type DeepSeekService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewDeepSeekService(apiKey, baseURL, model string) *DeepSeekService {
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}
	if model == "" {
		model = defaultDeepSeekModel
	}
	return &DeepSeekService{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *DeepSeekService) Name() string {
	return "deepseek"
}

func (s *DeepSeekService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req BatchRequest) (*BatchResult, error) {
	result := &BatchResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	apiKey := s.apiKey
	if apiKey == "" && cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		result.Error = "DeepSeek API key required"
		return result, fmt.Errorf("DeepSeek API key required")
	}

	model := s.model
	if cfg.Model != "" {
		model = cfg.Model
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	dsReq := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": deepseekSystemPrompt},
			{"role": "user", "content": BuildPrompt(req)},
		},
		"temperature": 0.3,
		"max_tokens":  8192,
	}

	jsonData, err := json.Marshal(dsReq)
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return result, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat/completions", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		result.Error = fmt.Sprintf("API returned status %d: %v", resp.StatusCode, errResp)
		return result, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var dsResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dsResp); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, err
	}
	if len(dsResp.Choices) == 0 {
		result.Error = "empty response from API"
		return result, fmt.Errorf("empty response from API")
	}

	result.Translations = ParseReply(dsResp.Choices[0].Message.Content, req.Segments)
	return result, nil
}

func (s *DeepSeekService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("DeepSeek API key not configured")
	}
	return nil
}
