// Package ui renders conversation output to the terminal. It is a thin
// presentation layer; nothing here affects protocol or safety behavior.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const toolPreviewLimit = 260

// Console writes status lines, streamed tokens, and rendered markdown to
// the terminal. Styling switches off automatically when stdout is not a
// terminal.
type Console struct {
	out       io.Writer
	styled    bool
	streaming bool

	mdOnce     sync.Once
	mdRenderer *glamour.TermRenderer

	banner lipgloss.Style
	info   lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	tool   lipgloss.Style
	okMark lipgloss.Style
}

// NewConsole builds a Console bound to stdout.
func NewConsole() *Console {
	return newConsole(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
}

// NewConsoleWriter builds a Console on a custom writer, unstyled. For tests.
func NewConsoleWriter(w io.Writer) *Console {
	return newConsole(w, false)
}

func newConsole(w io.Writer, styled bool) *Console {
	return &Console{
		out:    w,
		styled: styled,
		banner: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("4")).Padding(0, 1),
		info:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		fail:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		tool:   lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		okMark: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

// Banner prints the startup panel with the resolved model and runtime mode.
func (c *Console) Banner(model, url, cwd string, yolo bool) {
	mode := "Safe (confirm destructive tools)"
	if yolo {
		mode = "YOLO (no confirmations)"
	}
	text := fmt.Sprintf("LM Agent\nModel: %s\nURL: %s\nCWD: %s\nMode: %s", model, url, cwd, mode)
	if c.styled {
		fmt.Fprintln(c.out, c.banner.Render(text))
		return
	}
	fmt.Fprintln(c.out, text)
}

// Info prints an informational status line.
func (c *Console) Info(message string) {
	fmt.Fprintf(c.out, "%s %s\n", c.render(c.info, "i"), message)
}

// Warn prints a warning status line.
func (c *Console) Warn(message string) {
	fmt.Fprintf(c.out, "%s %s\n", c.render(c.warn, "!"), message)
}

// Error prints a failure status line.
func (c *Console) Error(message string) {
	fmt.Fprintf(c.out, "%s %s\n", c.render(c.fail, "x"), message)
}

// ShowToolCall prints the tool name with a bounded argument preview.
func (c *Console) ShowToolCall(name string, args map[string]any) {
	rendered, err := json.Marshal(args)
	preview := string(rendered)
	if err != nil {
		preview = fmt.Sprint(args)
	}
	runes := []rune(preview)
	if len(runes) > toolPreviewLimit {
		preview = string(runes[:toolPreviewLimit-3]) + "..."
	}
	fmt.Fprintf(c.out, "%s %s %s\n", c.render(c.tool, "tool"), name, preview)
}

// ShowToolResult prints a symbol plus status for one finished call.
func (c *Console) ShowToolResult(name string, result map[string]any) {
	ok, _ := result["ok"].(bool)
	symbol := c.render(c.okMark, "✓")
	status := "ok"
	if !ok {
		symbol = c.render(c.fail, "✗")
		status = "error"
	}
	fmt.Fprintf(c.out, "%s %s (%s)\n", symbol, name, status)
}

// StartStream marks the beginning of token streaming for one model call.
func (c *Console) StartStream() {
	c.streaming = true
}

// StreamToken writes one streamed token without a trailing newline.
func (c *Console) StreamToken(token string) {
	if token == "" {
		return
	}
	fmt.Fprint(c.out, token)
}

// EndStream terminates the streamed line.
func (c *Console) EndStream() {
	if c.streaming {
		fmt.Fprintln(c.out)
	}
	c.streaming = false
}

// RenderAssistant prints a complete assistant answer, as markdown when a
// renderer is available.
func (c *Console) RenderAssistant(content string) {
	if content == "" {
		return
	}
	if c.styled {
		c.mdOnce.Do(func() {
			renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
			if err == nil {
				c.mdRenderer = renderer
			}
		})
		if c.mdRenderer != nil {
			if rendered, err := c.mdRenderer.Render(content); err == nil {
				fmt.Fprint(c.out, rendered)
				return
			}
		}
	}
	fmt.Fprintln(c.out, content)
}

func (c *Console) render(style lipgloss.Style, text string) string {
	if !c.styled {
		return text
	}
	return style.Render(text)
}
