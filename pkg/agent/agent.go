// Package agent orchestrates one conversation turn: it drives the chat
// transport, routes each returned tool call through the safety gate and the
// dispatcher, and feeds results back into the message history until the
// model produces a plain answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/localagent/lmagent/pkg/model"
)

// ChatClient issues one chat completion over the full message history.
type ChatClient interface {
	Chat(ctx context.Context, messages []model.Message, tools any, onToken func(token string)) (*model.ChatResponse, error)
}

// Dispatcher executes a canonical tool call and always returns the uniform
// result envelope.
type Dispatcher interface {
	Execute(name string, args any) map[string]any
}

// Gate decides whether a call may proceed: pattern blocking for shell
// commands and interactive confirmation for destructive tools.
type Gate interface {
	IsBlockedCommand(command string) (bool, string)
	ConfirmExecution(toolName string, args map[string]any) bool
}

// UserInterface receives the conversation output the loop produces.
type UserInterface interface {
	StartStream()
	StreamToken(token string)
	EndStream()
	ShowToolCall(name string, args map[string]any)
	ShowToolResult(name string, result map[string]any)
	RenderAssistant(content string)
}

// Config wires the collaborators for one Agent.
type Config struct {
	Client   ChatClient
	Registry Dispatcher
	Guard    Gate
	UI       UserInterface

	// Tools is the schema list declared to the chat API on every request.
	Tools any
}

// Validate enforces that every collaborator is present.
func (c Config) Validate() error {
	if c.Client == nil {
		return errors.New("agent: chat client is required")
	}
	if c.Registry == nil {
		return errors.New("agent: tool registry is required")
	}
	if c.Guard == nil {
		return errors.New("agent: safety gate is required")
	}
	if c.UI == nil {
		return errors.New("agent: user interface is required")
	}
	return nil
}

// Agent runs conversation turns. It is the sole owner of the message
// history slice passed through RunTurn; history is only ever appended to.
type Agent struct {
	cfg Config
}

// New constructs an Agent from validated collaborators.
func New(cfg Config) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Agent{cfg: cfg}, nil
}

// RunTurn executes one user turn to completion: it keeps calling the model,
// dispatching any tool calls in order, until a response arrives with no
// tool calls. The updated history is returned; on transport failure the
// history accumulated so far comes back with the error.
func (a *Agent) RunTurn(ctx context.Context, messages []model.Message) ([]model.Message, error) {
	for {
		a.cfg.UI.StartStream()
		response, err := a.cfg.Client.Chat(ctx, messages, a.cfg.Tools, a.cfg.UI.StreamToken)
		a.cfg.UI.EndStream()
		if err != nil {
			return messages, err
		}

		if len(response.ToolCalls) == 0 {
			if !response.Streamed {
				a.cfg.UI.RenderAssistant(response.Content)
			}
			messages = append(messages, model.Message{Role: "assistant", Content: response.Content})
			return messages, nil
		}

		// The model must see its own calls verbatim on the next round.
		messages = append(messages, model.Message{
			Role:      "assistant",
			Content:   response.Content,
			ToolCalls: SerializeToolCalls(response.ToolCalls),
		})

		for _, call := range response.ToolCalls {
			args := call.Arguments
			if args == nil {
				args = map[string]any{}
			}
			a.cfg.UI.ShowToolCall(call.Name, args)

			result := a.resolveCall(call.Name, args)
			a.cfg.UI.ShowToolResult(call.Name, result)

			// One result per call, appended immediately, keeps the
			// call/result pairing the model expects.
			messages = append(messages, model.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    encodeResult(result),
			})
		}
	}
}

// resolveCall applies the safety gate before dispatch. Blocked commands
// short-circuit without a confirmation prompt.
func (a *Agent) resolveCall(name string, args map[string]any) map[string]any {
	if name == "run_command" {
		command, _ := args["command"].(string)
		if blocked, pattern := a.cfg.Guard.IsBlockedCommand(command); blocked {
			return map[string]any{
				"ok":    false,
				"error": "Blocked command pattern matched: " + pattern,
			}
		}
	}
	if !a.cfg.Guard.ConfirmExecution(name, args) {
		return map[string]any{"ok": false, "error": "User denied execution."}
	}
	return a.cfg.Registry.Execute(name, args)
}

func encodeResult(result map[string]any) string {
	payload, err := json.Marshal(result)
	if err != nil {
		fallback, _ := json.Marshal(map[string]any{"ok": false, "error": err.Error()})
		return string(fallback)
	}
	return string(payload)
}
