package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults mirrored into flag values at startup.
const (
	DefaultServerURL          = "http://localhost:1234/v1"
	DefaultCommandTimeoutSecs = 30
	DefaultMaxOutputLines     = 200
	DefaultMaxHistoryMessages = 40
)

// DestructiveTools names the tools capable of irreversible side effects.
// Everything else auto-approves.
func DestructiveTools() []string {
	return []string{
		"write_file",
		"edit_file",
		"delete_file",
		"move_file",
		"run_command",
		"run_python",
	}
}

// BlockedCommandPatterns are matched case-insensitively against run_command
// payloads, in declaration order. The first hit blocks the command.
func BlockedCommandPatterns() []string {
	return []string{
		`(?i)\bformat\b`,
		`(?i)\brm\s+-rf\s+([\\/]|[A-Za-z]:\\?)`,
		`(?i)\bdel\s+/s\b`,
		`(?i)\bremove-item\b.*\brecurse\b.*\bforce\b`,
		`(?i)\bshutdown\b`,
		`(?i)\breboot\b`,
	}
}

// SystemPrompt seeds every conversation as the first history message.
const SystemPrompt = `You are a local coding agent running on the user's machine.
You have tools to read, write, and edit files, run shell commands, and search code.
Always use the provided tools for actions. Do not only describe what to do.
Be precise with file paths.
Ask for clarification if a task is ambiguous.
Before destructive actions, request confirmation from the user through the safety system.`

// Config stores the coarse grained runtime settings for one agent process.
// Constructed once at startup and passed by reference; never ambient.
type Config struct {
	URL                string
	Model              string
	Yolo               bool
	Cwd                string
	CommandTimeoutSecs int
	MaxOutputLines     int
	MaxHistoryMessages int
}

// Validate enforces minimal structural guarantees and normalizes the
// working directory to an absolute path.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("config url is required")
	}
	if c.CommandTimeoutSecs <= 0 {
		c.CommandTimeoutSecs = DefaultCommandTimeoutSecs
	}
	if c.MaxOutputLines <= 0 {
		c.MaxOutputLines = DefaultMaxOutputLines
	}
	if c.MaxHistoryMessages < 2 {
		return fmt.Errorf("max history messages must be at least 2: %d", c.MaxHistoryMessages)
	}

	cwd := strings.TrimSpace(c.Cwd)
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	c.Cwd = abs
	return nil
}
