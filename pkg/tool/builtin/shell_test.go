package builtin

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipWithoutSh(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
}

func TestRunCommandEcho(t *testing.T) {
	skipWithoutSh(t)
	dir := t.TempDir()

	result, err := RunCommand(map[string]any{"command": "echo hello"}, dir, 5*time.Second, 50)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if result["ok"] != true || result["exit_code"] != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if !strings.Contains(result["stdout"].(string), "hello") {
		t.Fatalf("stdout: %q", result["stdout"])
	}
	if result["command"] != "echo hello" || result["cwd"] != dir {
		t.Fatalf("metadata missing: %#v", result)
	}
}

func TestRunCommandNonZeroExit(t *testing.T) {
	skipWithoutSh(t)
	result, err := RunCommand(map[string]any{"command": "exit 3"}, t.TempDir(), 5*time.Second, 50)
	if err != nil {
		t.Fatalf("non-zero exit must not be an error: %v", err)
	}
	if result["ok"] != false || result["exit_code"] != 3 || result["timed_out"] != false {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestRunCommandTimeout(t *testing.T) {
	skipWithoutSh(t)
	start := time.Now()
	result, err := RunCommand(map[string]any{"command": "echo before; sleep 10"}, t.TempDir(), 1*time.Second, 50)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("deadline not enforced")
	}
	if result["ok"] != false || result["timed_out"] != true {
		t.Fatalf("unexpected result: %#v", result)
	}
	if result["exit_code"] != nil {
		t.Fatalf("exit code on timeout: %#v", result["exit_code"])
	}
}

func TestRunCommandTimeoutOverride(t *testing.T) {
	skipWithoutSh(t)
	result, err := RunCommand(map[string]any{
		"command":         "sleep 10",
		"timeout_seconds": 1,
	}, t.TempDir(), 30*time.Second, 50)
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if result["timed_out"] != true {
		t.Fatalf("per-call timeout ignored: %#v", result)
	}
}

func TestRunCommandMissingField(t *testing.T) {
	if _, err := RunCommand(map[string]any{}, t.TempDir(), time.Second, 50); err == nil {
		t.Fatal("missing command must fail")
	}
}

func TestRunPython(t *testing.T) {
	skipWithoutSh(t)
	result, err := RunPython(map[string]any{"code": "print(6*7)"}, t.TempDir(), 10*time.Second, 50)
	if err != nil {
		t.Fatalf("RunPython: %v", err)
	}
	if result["ok"] == false && strings.Contains(result["stderr"].(string)+fmtAny(result["error"]), "executable file not found") {
		t.Skip("no python interpreter installed")
	}
	if result["ok"] != true {
		t.Fatalf("unexpected result: %#v", result)
	}
	if !strings.Contains(result["stdout"].(string), "42") {
		t.Fatalf("stdout: %q", result["stdout"])
	}
}

func fmtAny(v any) string {
	s, _ := v.(string)
	return s
}

func TestTruncateOutputKeepsTail(t *testing.T) {
	text := "l1\nl2\nl3\nl4\nl5\n"
	kept, truncated := truncateOutput(text, 2)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if kept != "l4\nl5" {
		t.Fatalf("wrong tail: %q", kept)
	}

	kept, truncated = truncateOutput("only\n", 5)
	if truncated || kept != "only\n" {
		t.Fatalf("short output altered: %q %v", kept, truncated)
	}

	if kept, truncated = truncateOutput("", 5); truncated || kept != "" {
		t.Fatalf("empty output: %q %v", kept, truncated)
	}
}
