package model

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Some models never emit structured tool calls and instead write one of two
// legacy encodings into plain text: an XML-ish tag or a fenced block labeled
// "action". FallbackToolCalls recovers calls from both, tag matches first in
// document order, then fenced matches. It is only consulted when the
// structured paths produced nothing.
var (
	tagCallPattern    = regexp.MustCompile(`(?is)<tool\s+name=['"]([^'"]+)['"]\s*>(.*?)</tool>`)
	fencedCallPattern = regexp.MustCompile("(?is)```action\\s*(.*?)```")
)

// FallbackToolCalls scans free-text content for legacy tool-call encodings
// and synthesizes canonical calls from any matches.
func FallbackToolCalls(content string) []ToolCall {
	if content == "" {
		return nil
	}

	var calls []ToolCall
	for _, match := range tagCallPattern.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(match[1])
		argsRaw := strings.TrimSpace(match[2])
		calls = append(calls, NewToolCall("", name, argsRaw))
	}

	for _, match := range fencedCallPattern.FindAllStringSubmatch(content, -1) {
		if call, ok := fencedToolCall(strings.TrimSpace(match[1])); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

// fencedToolCall interprets a fenced action body. Entries missing a name or
// carrying non-mapping arguments are dropped without diagnostics.
func fencedToolCall(body string) (ToolCall, bool) {
	data := ParseArguments(body)

	name := stringValue(data["tool"])
	if name == "" {
		name = stringValue(data["name"])
	}
	name = strings.TrimSpace(name)

	args, ok := data["args"].(map[string]any)
	if !ok {
		args, ok = data["arguments"].(map[string]any)
	}
	if name == "" || !ok {
		return ToolCall{}, false
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return ToolCall{}, false
	}
	call := NewToolCall("", name, string(raw))
	call.Arguments = args
	return call, true
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
