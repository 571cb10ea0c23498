package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/starford/vfxhub/internal/metrics"
)

// Text generation types.
const (
	TextChat       = "chat"
	TextCompletion = "completion"
	TextAnalysis   = "analysis"
	TextGeneration = "generation"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultTextModel     = "gpt-3.5-turbo"
	instructModel        = "gpt-3.5-turbo-instruct"

	defaultMaxTokens   = 1000
	defaultTemperature = 0.7

	analystPrompt   = "You are an expert analyst. Provide detailed, structured analysis of the given content."
	generatorPrompt = "You are a creative content generator. Generate high-quality, original content based on the user request."
)

var textTypes = []string{TextChat, TextCompletion, TextAnalysis, TextGeneration}

// TextRequest is a validated text generation request.
type TextRequest struct {
	Prompt      string
	Type        string
	Model       string
	MaxTokens   float64
	Temperature float64
}

// TextResult is the data of a successful text generation.
type TextResult struct {
	Content   string          `json:"content"`
	Type      string          `json:"type"`
	Model     string          `json:"model"`
	Usage     json.RawMessage `json:"usage,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// ParseTextRequest validates a decoded request body. Checks run in a fixed
// order and the first failure's message is returned.
func ParseTextRequest(body map[string]any) (TextRequest, error) {
	req := TextRequest{
		Type:        TextChat,
		Model:       DefaultTextModel,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
	prompt, ok := promptFrom(body)
	if !ok {
		return req, badRequest(msgPromptRequired)
	}
	req.Prompt = prompt

	if v, ok := body["type"]; ok {
		s, isStr := v.(string)
		if !isStr || !slices.Contains(textTypes, s) {
			return req, badRequest(msgInvalidType)
		}
		req.Type = s
	}
	if v, ok := body["maxTokens"]; ok {
		n, isNum := v.(float64)
		if !isNum || n < 1 || n > 4000 {
			return req, badRequest(msgMaxTokens)
		}
		req.MaxTokens = n
	}
	if v, ok := body["temperature"]; ok {
		n, isNum := v.(float64)
		if !isNum || n < 0 || n > 2 {
			return req, badRequest(msgTemperature)
		}
		req.Temperature = n
	}
	if v, ok := body["model"]; ok {
		s, isStr := v.(string)
		if !isStr {
			return req, badRequest(msgModel)
		}
		req.Model = s
	}
	return req, nil
}

// OpenAIClient calls the OpenAI completion APIs.
type OpenAIClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewOpenAIClient creates a client. Every call is bounded by timeout.
func NewOpenAIClient(baseURL string, timeout time.Duration, hc *http.Client) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &OpenAIClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc, timeout: timeout}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages,omitempty"`
	Prompt      string        `json:"prompt,omitempty"`
	MaxTokens   float64       `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Text    string `json:"text"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage json.RawMessage `json:"usage"`
}

// buildPayload returns the endpoint path and body for req.
func buildPayload(req TextRequest) (string, openAIPayload) {
	p := openAIPayload{Model: req.Model, MaxTokens: req.MaxTokens, Temperature: req.Temperature}
	user := chatMessage{Role: "user", Content: req.Prompt}
	switch req.Type {
	case TextCompletion:
		if p.Model == DefaultTextModel {
			p.Model = instructModel
		}
		p.Prompt = req.Prompt
		return "/completions", p
	case TextAnalysis:
		p.Messages = []chatMessage{{Role: "system", Content: analystPrompt}, user}
	case TextGeneration:
		p.Messages = []chatMessage{{Role: "system", Content: generatorPrompt}, user}
	default:
		p.Messages = []chatMessage{user}
	}
	return "/chat/completions", p
}

// Generate sends req upstream and returns the trimmed content. Known
// failures are *ProviderError values.
func (c *OpenAIClient) Generate(ctx context.Context, apiKey string, req TextRequest) (string, json.RawMessage, error) {
	path, payload := buildPayload(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordProviderCall("openai", "error", time.Since(start))
		return "", nil, &ProviderError{Status: http.StatusBadGateway, Message: msgOpenAIConnect, Details: err.Error()}
	}
	defer resp.Body.Close()
	metrics.RecordProviderCall("openai", strconv.Itoa(resp.StatusCode), time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, &ProviderError{Status: http.StatusBadGateway, Message: msgOpenAIConnect, Details: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, &ProviderError{
			Status:   upstreamStatus(resp.StatusCode),
			Message:  openAIErrorMessage(resp, raw),
			Upstream: resp.StatusCode,
		}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", nil, &ProviderError{Status: http.StatusBadGateway, Message: msgOpenAIParse}
	}
	content := ""
	if len(parsed.Choices) > 0 {
		if req.Type == TextCompletion {
			content = parsed.Choices[0].Text
		} else {
			content = parsed.Choices[0].Message.Content
		}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil, &ProviderError{Status: http.StatusBadGateway, Message: msgOpenAIEmpty}
	}
	return content, parsed.Usage, nil
}

// openAIErrorMessage extracts error.message from a failure body. A JSON
// body without one yields the generic message; a body that is not JSON
// yields the HTTP status line.
func openAIErrorMessage(resp *http.Response, raw []byte) string {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, text)
	}
	if obj, ok := body.(map[string]any); ok {
		if e, ok := obj["error"].(map[string]any); ok {
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return msgOpenAIFailed
}
