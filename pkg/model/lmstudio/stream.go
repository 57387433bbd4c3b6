package lmstudio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/localagent/lmagent/pkg/model"
)

// chatStream issues the streaming variant of the chat request and folds the
// event sequence into a ChatResponse. Any error here makes the caller retry
// the call once in non-streaming mode.
func (c *Client) chatStream(ctx context.Context, payload chatRequest, onToken TokenSink) (*model.ChatResponse, error) {
	resp, err := c.doCompletions(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var content strings.Builder
	var finishReason string
	accumulator := model.NewToolCallAccumulator()

	err = consumeEvents(ctx, resp.Body, func(data string) error {
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			return nil
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finishReason = choice.FinishReason
		}

		if token := choice.Delta.Content; token != "" {
			content.WriteString(token)
			if onToken != nil {
				onToken(token)
			}
		}

		for _, delta := range choice.Delta.ToolCalls {
			accumulator.Absorb(delta.Index, delta.ID, delta.Function.Name, delta.Function.Arguments)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	calls := accumulator.Finalize()
	text := content.String()
	if len(calls) == 0 {
		calls = model.FallbackToolCalls(text)
	}

	return &model.ChatResponse{
		Content:      text,
		ToolCalls:    calls,
		FinishReason: finishReason,
		Streamed:     true,
	}, nil
}

// consumeEvents reads a server-sent event body, invoking fn for every data
// payload until the [DONE] sentinel or EOF.
func consumeEvents(ctx context.Context, r io.Reader, fn func(data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(line[5:])
		if data == "" {
			continue
		}
		if data == doneSentinel {
			return nil
		}
		if err := fn(data); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
