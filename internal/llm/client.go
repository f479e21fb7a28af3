package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Supported provider names
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Request describes a single completion call
type Request struct {
	Provider string
	Model    string
	APIKey   string
	Prompt   string
	// MaxTokens caps the response size; 0 means provider default
	MaxTokens int
	// JSONMode asks the provider for a JSON object response where supported
	JSONMode bool
}

// Client is the completion transport consumed by the workflow stages.
// Complete returns the best-effort parsed JSON payload of the response;
// failures are classified as auth, rate-limit, transport or parse errors.
type Client interface {
	Complete(ctx context.Context, req Request) (interface{}, error)
	Ping(ctx context.Context, provider, model, apiKey string) error
}

// ProviderClient talks to LLM provider HTTP APIs (OpenAI-compatible chat
// completions and the Anthropic messages API)
type ProviderClient struct {
	baseURLs   map[string]string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
}

// NewProviderClient creates a provider client with base URLs taken from the
// environment (OPENAI_BASE_URL, ANTHROPIC_BASE_URL, OLLAMA_BASE_URL)
func NewProviderClient() *ProviderClient {
	baseURLs := map[string]string{
		ProviderOpenAI:    envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ProviderAnthropic: envOr("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		ProviderOllama:    envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
	}

	settings := gobreaker.Settings{
		Name:        "llm-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &ProviderClient{
		baseURLs: baseURLs,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		tracer:  otel.Tracer("llm-provider-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SetBaseURL overrides a provider base URL for testing purposes
func (c *ProviderClient) SetBaseURL(provider, baseURL string) {
	c.baseURLs[provider] = baseURL
}

// Complete renders a single-turn completion and parses the JSON payload
// out of the model's answer
func (c *ProviderClient) Complete(ctx context.Context, req Request) (interface{}, error) {
	ctx, span := c.tracer.Start(ctx, "llm.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.provider", req.Provider),
		attribute.String("llm.model", req.Model),
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.completeText(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		if KindOf(err) == KindTransport {
			return nil, NewError(KindTransport, "completion request failed", err)
		}
		return nil, err
	}

	text := result.(string)
	if !req.JSONMode {
		return text, nil
	}

	parsed, err := ExtractJSON(text)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	log.Printf(`{"level":"info","message":"Completion succeeded","provider":"%s","model":"%s"}`, req.Provider, req.Model)
	return parsed, nil
}

// Ping issues a minimal completion to validate credentials; the error, if
// any, carries the usual classification
func (c *ProviderClient) Ping(ctx context.Context, provider, model, apiKey string) error {
	_, err := c.Complete(ctx, Request{
		Provider:  provider,
		Model:     model,
		APIKey:    apiKey,
		Prompt:    "Hello",
		MaxTokens: 5,
	})
	return err
}

// completeText performs the provider HTTP request and returns the raw
// response text
func (c *ProviderClient) completeText(ctx context.Context, req Request) (string, error) {
	switch req.Provider {
	case ProviderAnthropic:
		return c.completeAnthropic(ctx, req)
	case ProviderOpenAI, ProviderOllama, "":
		return c.completeOpenAI(ctx, req)
	default:
		// Unknown providers are assumed OpenAI-compatible when a base URL
		// was registered for them
		if _, ok := c.baseURLs[req.Provider]; ok {
			return c.completeOpenAI(ctx, req)
		}
		return "", NewError(KindConfiguration, fmt.Sprintf("unknown provider %q", req.Provider), nil)
	}
}

func (c *ProviderClient) completeOpenAI(ctx context.Context, req Request) (string, error) {
	provider := req.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	body := map[string]interface{}{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}
	if req.JSONMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", NewError(KindTransport, "failed to marshal request", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURLs[provider])
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", NewError(KindTransport, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	respBody, err := c.do(httpReq, provider)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewError(KindTransport, "failed to decode provider response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", NewError(KindTransport, "provider response contained no choices", nil)
	}

	return parsed.Choices[0].Message.Content, nil
}

func (c *ProviderClient) completeAnthropic(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := map[string]interface{}{
		"model":      req.Model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", NewError(KindTransport, "failed to marshal request", err)
	}

	url := fmt.Sprintf("%s/v1/messages", c.baseURLs[ProviderAnthropic])
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", NewError(KindTransport, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", req.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	respBody, err := c.do(httpReq, ProviderAnthropic)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewError(KindTransport, "failed to decode provider response", err)
	}
	if len(parsed.Content) == 0 {
		return "", NewError(KindTransport, "provider response contained no content", nil)
	}

	return parsed.Content[0].Text, nil
}

// do executes the request and classifies non-2xx responses
func (c *ProviderClient) do(httpReq *http.Request, provider string) ([]byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewError(KindTransport, fmt.Sprintf("request to %s failed", provider), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(KindTransport, "failed to read provider response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := classifyStatus(resp.StatusCode)
		snippet := string(respBody)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, NewError(kind, fmt.Sprintf("%s returned status %d: %s", provider, resp.StatusCode, snippet), nil)
	}

	return respBody, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
