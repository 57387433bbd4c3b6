// Package history persists the linear input-history log. This is the only
// state that survives a process restart; conversation history does not.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Log appends user inputs to a plain text file, one line each.
type Log struct {
	path string
	file *os.File
}

// DefaultPath locates the history file in the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lmagent_history"
	}
	return filepath.Join(home, ".lmagent_history")
}

// Open creates or opens the history log for appending.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open history log: %w", err)
	}
	return &Log{path: path, file: file}, nil
}

// Append records one input line. Blank lines are skipped.
func (l *Log) Append(line string) error {
	if l == nil || l.file == nil {
		return nil
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	_, err := l.file.WriteString(trimmed + "\n")
	return err
}

// Lines returns previously recorded inputs. A missing file yields no lines.
func (l *Log) Lines() ([]string, error) {
	if l == nil {
		return nil, nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Close releases the underlying file handle.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
