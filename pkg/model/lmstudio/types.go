package lmstudio

import (
	"fmt"

	"github.com/localagent/lmagent/pkg/model"
)

const (
	defaultBaseURL     = "http://localhost:1234/v1"
	modelsPath         = "/models"
	completionsPath    = "/chat/completions"
	defaultTemperature = 0.2
	defaultHTTPTimeout = 120 // seconds
	userAgent          = "lmagent/lmstudio"
	doneSentinel       = "[DONE]"
)

// chatRequest follows the OpenAI-compatible chat completions contract that
// LM Studio exposes.
type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []model.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream"`
	Tools       any             `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
}

// modelList is the GET /models payload.
type modelList struct {
	Data []modelEntry `json:"data"`
}

type modelEntry struct {
	ID string `json:"id"`
}

// streamChunk is one decoded `data:` event of a streaming response.
type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta        streamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type streamDelta struct {
	Content   string          `json:"content"`
	ToolCalls []toolCallDelta `json:"tool_calls"`
}

// toolCallDelta is one incremental tool-call fragment tagged with its slot
// index. Name and argument pieces for a slot concatenate across chunks.
type toolCallDelta struct {
	Index    int           `json:"index"`
	ID       string        `json:"id"`
	Function functionChunk `json:"function"`
}

type functionChunk struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// completionBody is the whole-message shape of a non-streaming response.
type completionBody struct {
	Choices []completionChoice `json:"choices"`
}

type completionChoice struct {
	Message      completionMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type completionMessage struct {
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type wireToolCall struct {
	ID       string        `json:"id"`
	Function functionChunk `json:"function"`
}

// APIError surfaces non-2xx responses with HTTP metadata.
type APIError struct {
	StatusCode int
	Message    string
}

func (e APIError) Error() string {
	return fmt.Sprintf("lmstudio API error (%d): %s", e.StatusCode, e.Message)
}
