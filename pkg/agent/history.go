package agent

import (
	"encoding/json"

	"github.com/localagent/lmagent/pkg/model"
)

// TrimMessages bounds the history window. When the count exceeds
// maxMessages it keeps the first message (the system prompt) plus the most
// recent maxMessages-1, dropping everything in between. The trim is lossy;
// dropped tool/assistant pairs are gone from future context.
func TrimMessages(messages []model.Message, maxMessages int) []model.Message {
	if maxMessages < 2 || len(messages) <= maxMessages {
		return messages
	}
	trimmed := make([]model.Message, 0, maxMessages)
	trimmed = append(trimmed, messages[0])
	trimmed = append(trimmed, messages[len(messages)-(maxMessages-1):]...)
	return trimmed
}

// SerializeToolCalls converts canonical calls back into the wire shape
// recorded on the assistant message. The original argument text is
// preserved verbatim; calls synthesized without raw text re-marshal their
// parsed arguments.
func SerializeToolCalls(calls []model.ToolCall) []model.RawToolCall {
	serialized := make([]model.RawToolCall, 0, len(calls))
	for _, call := range calls {
		arguments := call.ArgumentsRaw
		if arguments == "" {
			if encoded, err := json.Marshal(call.Arguments); err == nil && call.Arguments != nil {
				arguments = string(encoded)
			} else {
				arguments = "{}"
			}
		}
		serialized = append(serialized, model.RawToolCall{
			ID:   call.ID,
			Type: "function",
			Function: model.RawFunction{
				Name:      call.Name,
				Arguments: arguments,
			},
		})
	}
	return serialized
}
