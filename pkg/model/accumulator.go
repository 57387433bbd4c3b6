package model

import (
	"sort"
	"strings"
)

// ToolCallAccumulator reassembles tool calls from streamed fragments. The
// server tags every fragment with a slot index; name and argument pieces for
// the same slot concatenate in arrival order. The accumulator lives for one
// streaming response and is discarded after Finalize.
type ToolCallAccumulator struct {
	slots map[int]*partialToolCall
}

type partialToolCall struct {
	id   string
	name strings.Builder
	args strings.Builder
}

// NewToolCallAccumulator creates an empty accumulator.
func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{slots: make(map[int]*partialToolCall)}
}

// Absorb folds one streamed fragment into its slot. A non-empty id replaces
// the slot id; empty ids never clobber an earlier one.
func (a *ToolCallAccumulator) Absorb(index int, id, nameFragment, argsFragment string) {
	slot, ok := a.slots[index]
	if !ok {
		slot = &partialToolCall{}
		a.slots[index] = slot
	}
	if id != "" {
		slot.id = id
	}
	slot.name.WriteString(nameFragment)
	slot.args.WriteString(argsFragment)
}

// Finalize converts accumulated slots into canonical tool calls in ascending
// slot order. Slots that never received a usable name are dropped.
func (a *ToolCallAccumulator) Finalize() []ToolCall {
	indices := make([]int, 0, len(a.slots))
	for index := range a.slots {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	var calls []ToolCall
	for _, index := range indices {
		slot := a.slots[index]
		name := strings.TrimSpace(slot.name.String())
		if name == "" {
			continue
		}
		raw := slot.args.String()
		if raw == "" {
			raw = "{}"
		}
		calls = append(calls, NewToolCall(slot.id, name, raw))
	}
	return calls
}
