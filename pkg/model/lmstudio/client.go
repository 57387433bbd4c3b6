package lmstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/localagent/lmagent/pkg/model"
)

// ErrNoModels reports that the server listed no loadable models, so no
// model name could be resolved. Fatal at startup.
var ErrNoModels = errors.New("no models found from /models")

// TokenSink receives streamed assistant text as it arrives. Invoked
// synchronously and in-line; it must not block longer than the caller can
// afford.
type TokenSink = func(token string)

// Client talks to an OpenAI-compatible chat server such as LM Studio. The
// model name is resolved lazily on first use and cached for the client's
// lifetime.
type Client struct {
	client      *http.Client
	baseURL     string
	temperature float64

	mu    sync.Mutex
	model string
}

// Option mutates a Client during construction.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTemperature overrides the sampling temperature sent on every request.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// New builds a Client against baseURL. An empty modelName enables lazy
// auto-detection from the server's model list.
func New(baseURL, modelName string, opts ...Option) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	c := &Client{
		client:      &http.Client{Timeout: defaultHTTPTimeout * time.Second},
		baseURL:     trimmed,
		temperature: defaultTemperature,
		model:       strings.TrimSpace(modelName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListModels queries the server for available model identifiers.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create models request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var payload modelList
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	models := make([]string, 0, len(payload.Data))
	for _, entry := range payload.Data {
		if entry.ID != "" {
			models = append(models, entry.ID)
		}
	}
	return models, nil
}

// HealthReport summarizes server reachability for the health check path.
type HealthReport struct {
	OK         bool
	Models     []string
	ModelCount int
}

// HealthCheck verifies connectivity by listing models.
func (c *Client) HealthCheck(ctx context.Context) (*HealthReport, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return &HealthReport{OK: true, Models: models, ModelCount: len(models)}, nil
}

// EnsureModel resolves the model name to use: the configured one when set,
// otherwise the first model the server lists. The result is cached.
func (c *Client) EnsureModel(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.model
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	models, err := c.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", ErrNoModels
	}

	c.mu.Lock()
	c.model = models[0]
	c.mu.Unlock()
	return models[0], nil
}

// Chat issues one chat completion over the full message history. Streaming
// is attempted first; any failure mid-stream retries the whole call once in
// non-streaming mode. The retry returns a response with Streamed false so
// the caller knows the content was not already emitted token by token.
func (c *Client) Chat(ctx context.Context, messages []model.Message, tools any, onToken TokenSink) (*model.ChatResponse, error) {
	name, err := c.EnsureModel(ctx)
	if err != nil {
		return nil, err
	}

	payload := chatRequest{
		Model:       name,
		Messages:    messages,
		Temperature: c.temperature,
		Stream:      true,
	}
	if tools != nil {
		payload.Tools = tools
		payload.ToolChoice = "auto"
	}

	resp, err := c.chatStream(ctx, payload, onToken)
	if err == nil {
		return resp, nil
	}

	payload.Stream = false
	return c.chatBlocking(ctx, payload)
}

// chatBlocking issues a single non-streaming request and parses the
// complete response in one step.
func (c *Client) chatBlocking(ctx context.Context, payload chatRequest) (*model.ChatResponse, error) {
	resp, err := c.doCompletions(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var body completionBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	var choice completionChoice
	if len(body.Choices) > 0 {
		choice = body.Choices[0]
	}

	var calls []model.ToolCall
	for _, wire := range choice.Message.ToolCalls {
		raw := wire.Function.Arguments
		if raw == "" {
			raw = "{}"
		}
		calls = append(calls, model.NewToolCall(wire.ID, wire.Function.Name, raw))
	}

	content := choice.Message.Content
	if len(calls) == 0 {
		calls = model.FallbackToolCalls(content)
	}

	return &model.ChatResponse{
		Content:      content,
		ToolCalls:    calls,
		FinishReason: choice.FinishReason,
		Streamed:     false,
	}, nil
}

func (c *Client) doCompletions(ctx context.Context, payload chatRequest) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	return resp, nil
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api status %d: %w", resp.StatusCode, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	return APIError{StatusCode: resp.StatusCode, Message: string(body)}
}
