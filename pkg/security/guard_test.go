package security

import (
	"strings"
	"testing"

	"github.com/localagent/lmagent/pkg/config"
)

func newTestGuard(t *testing.T, yolo bool, input string, out *strings.Builder) *Guard {
	t.Helper()
	guard, err := NewGuard(Options{
		Yolo:             yolo,
		DestructiveTools: config.DestructiveTools(),
		BlockedPatterns:  config.BlockedCommandPatterns(),
		In:               strings.NewReader(input),
		Out:              out,
	})
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	return guard
}

func TestIsBlockedCommand(t *testing.T) {
	guard := newTestGuard(t, false, "", &strings.Builder{})

	tests := []struct {
		command string
		blocked bool
	}{
		{"rm -rf /", true},
		{"sudo rm -rf /home", true},
		{"rm -rf C:\\Users", true},
		{"shutdown now", true},
		{"Remove-Item -Recurse -Force C:\\tmp", true},
		{"format c:", true},
		{"ls -la", false},
		{"rm file.txt", false},
		{"rm -rf build", false},
		{"echo formatting output", false},
	}
	for _, tt := range tests {
		blocked, pattern := guard.IsBlockedCommand(tt.command)
		if blocked != tt.blocked {
			t.Errorf("IsBlockedCommand(%q) = %v, want %v", tt.command, blocked, tt.blocked)
		}
		if blocked && pattern == "" {
			t.Errorf("blocked command %q returned empty pattern", tt.command)
		}
	}
}

func TestIsDestructive(t *testing.T) {
	guard := newTestGuard(t, false, "", &strings.Builder{})
	for _, name := range []string{"write_file", "edit_file", "delete_file", "move_file", "run_command", "run_python"} {
		if !guard.IsDestructive(name) {
			t.Errorf("%s should be destructive", name)
		}
	}
	for _, name := range []string{"read_file", "list_directory", "tree", "grep_search"} {
		if guard.IsDestructive(name) {
			t.Errorf("%s should not be destructive", name)
		}
	}
}

func TestConfirmExecutionYoloBypass(t *testing.T) {
	var out strings.Builder
	guard := newTestGuard(t, true, "", &out)
	if !guard.ConfirmExecution("delete_file", map[string]any{"path": "a.txt"}) {
		t.Fatal("yolo mode must always confirm")
	}
	if out.Len() != 0 {
		t.Fatalf("yolo mode must not prompt, wrote: %q", out.String())
	}
}

func TestConfirmExecutionNonDestructiveBypass(t *testing.T) {
	var out strings.Builder
	guard := newTestGuard(t, false, "", &out)
	if !guard.ConfirmExecution("read_file", map[string]any{"path": "a.txt"}) {
		t.Fatal("non-destructive tools never prompt")
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected prompt: %q", out.String())
	}
}

func TestConfirmExecutionAnswers(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"no\n", false},
		{"anything else\n", false},
		{"", false}, // EOF with no input denies
	}
	for _, tt := range tests {
		var out strings.Builder
		guard := newTestGuard(t, false, tt.input, &out)
		got := guard.ConfirmExecution("write_file", map[string]any{"path": "a.txt"})
		if got != tt.want {
			t.Errorf("ConfirmExecution with input %q = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "[Safety] Execute this action? [Y/n]: ") {
			t.Errorf("prompt missing from output: %q", out.String())
		}
	}
}

func TestConfirmExecutionPromptShowsArgs(t *testing.T) {
	var out strings.Builder
	guard := newTestGuard(t, false, "y\n", &out)
	guard.ConfirmExecution("run_command", map[string]any{"command": "make test"})
	if !strings.Contains(out.String(), "run_command") || !strings.Contains(out.String(), "make test") {
		t.Fatalf("prompt should preview the call: %q", out.String())
	}
}

func TestPreviewArgsTruncation(t *testing.T) {
	long := strings.Repeat("x", 1000)
	preview := previewArgs(map[string]any{"data": long})
	if len([]rune(preview)) != previewLimit {
		t.Fatalf("preview length = %d, want %d", len([]rune(preview)), previewLimit)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("long preview should end with ellipsis: %q", preview)
	}

	short := previewArgs(map[string]any{"path": "a.txt"})
	if short != `{"path":"a.txt"}` {
		t.Fatalf("short preview altered: %q", short)
	}
}

func TestNewGuardRejectsInvalidPattern(t *testing.T) {
	_, err := NewGuard(Options{BlockedPatterns: []string{"("}})
	if err == nil {
		t.Fatal("expected compile error for invalid pattern")
	}
}
