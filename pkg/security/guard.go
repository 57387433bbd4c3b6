package security

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const previewLimit = 300

// Guard decides whether a tool call may proceed. It combines a destructive
// tool set, an ordered blocked-pattern list for shell commands, and an
// interactive confirmation prompt that yolo mode bypasses entirely.
type Guard struct {
	yolo        bool
	destructive map[string]struct{}
	blocked     []*regexp.Regexp
	in          *bufio.Reader
	out         io.Writer
}

// Options configures a Guard. DestructiveTools and BlockedPatterns come from
// the startup configuration; In/Out default to the process stdio.
type Options struct {
	Yolo             bool
	DestructiveTools []string
	BlockedPatterns  []string
	In               io.Reader
	Out              io.Writer
}

// NewGuard compiles the blocked patterns and builds the gate. An invalid
// pattern is a configuration error and fails construction.
func NewGuard(opts Options) (*Guard, error) {
	destructive := make(map[string]struct{}, len(opts.DestructiveTools))
	for _, name := range opts.DestructiveTools {
		destructive[name] = struct{}{}
	}

	blocked := make([]*regexp.Regexp, 0, len(opts.BlockedPatterns))
	for _, pattern := range opts.BlockedPatterns {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile blocked pattern %q: %w", pattern, err)
		}
		blocked = append(blocked, compiled)
	}

	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &Guard{
		yolo:        opts.Yolo,
		destructive: destructive,
		blocked:     blocked,
		in:          bufio.NewReader(in),
		out:         out,
	}, nil
}

// IsDestructive reports whether the named tool can cause irreversible side
// effects.
func (g *Guard) IsDestructive(toolName string) bool {
	_, ok := g.destructive[toolName]
	return ok
}

// IsBlockedCommand tests the command text against the blocked patterns in
// declaration order and returns the first matching pattern.
func (g *Guard) IsBlockedCommand(command string) (bool, string) {
	for _, pattern := range g.blocked {
		if pattern.MatchString(command) {
			return true, pattern.String()
		}
	}
	return false, ""
}

// ConfirmExecution blocks on a yes/no prompt before a destructive tool runs.
// It returns true unconditionally in yolo mode or for non-destructive tools.
// Empty input and affirmative tokens count as acceptance.
func (g *Guard) ConfirmExecution(toolName string, args map[string]any) bool {
	if g.yolo || !g.IsDestructive(toolName) {
		return true
	}

	fmt.Fprintf(g.out, "[Safety] %s requested with args: %s\n", toolName, previewArgs(args))
	fmt.Fprint(g.out, "[Safety] Execute this action? [Y/n]: ")

	line, err := g.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	switch answer {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// previewArgs renders a bounded preview of the argument mapping, truncated
// with an ellipsis past the character budget.
func previewArgs(args map[string]any) string {
	rendered, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprint(args)
	}
	runes := []rune(string(rendered))
	if len(runes) <= previewLimit {
		return string(runes)
	}
	return string(runes[:previewLimit-3]) + "..."
}
