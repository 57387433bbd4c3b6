package model

import (
	"strings"

	"github.com/google/uuid"
)

// Message represents a single conversational turn exchanged with the model
// server. The JSON layout mirrors the OpenAI chat wire format so histories
// can be replayed verbatim on the next request.
type Message struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []RawToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// RawToolCall is the wire-level tool call shape the model expects to see
// echoed back in assistant messages.
type RawToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function RawFunction `json:"function"`
}

// RawFunction carries the function name plus the untouched argument text.
type RawFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is the canonical, resolved form of one tool invocation.
// Arguments is always a non-nil mapping regardless of how mangled the raw
// payload was.
type ToolCall struct {
	ID           string
	Name         string
	ArgumentsRaw string
	Arguments    map[string]any
}

// ChatResponse is the finalized outcome of one chat completion call.
// Immutable after construction.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Streamed     bool
}

// NewToolCall resolves a raw call into its canonical form, generating an ID
// when the server omitted one.
func NewToolCall(id, name, argumentsRaw string) ToolCall {
	if id == "" {
		id = generateCallID()
	}
	return ToolCall{
		ID:           id,
		Name:         name,
		ArgumentsRaw: argumentsRaw,
		Arguments:    ParseArguments(argumentsRaw),
	}
}

func generateCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
