package tool

import (
	"time"

	"github.com/localagent/lmagent/pkg/tool/builtin"
)

// Handler executes one tool invocation against a decoded argument mapping.
type Handler func(args map[string]any) (map[string]any, error)

// Registry keeps the mapping between tool names and handlers and is the
// sole adapter between the canonical (name, args) call shape and the
// concrete handler signatures. Built once at startup.
type Registry struct {
	cwd            string
	commandTimeout time.Duration
	maxOutputLines int
	handlers       map[string]Handler
}

// NewRegistry binds every known tool handler to the working directory plus
// the process-spawning limits.
func NewRegistry(cwd string, commandTimeoutSecs, maxOutputLines int) *Registry {
	r := &Registry{
		cwd:            cwd,
		commandTimeout: time.Duration(commandTimeoutSecs) * time.Second,
		maxOutputLines: maxOutputLines,
	}
	r.handlers = map[string]Handler{
		"read_file":        r.bind(builtin.ReadFile),
		"write_file":       r.bind(builtin.WriteFile),
		"edit_file":        r.bind(builtin.EditFile),
		"delete_file":      r.bind(builtin.DeleteFile),
		"list_directory":   r.bind(builtin.ListDirectory),
		"create_directory": r.bind(builtin.CreateDirectory),
		"move_file":        r.bind(builtin.MoveFile),
		"copy_file":        r.bind(builtin.CopyFile),
		"find_files":       r.bind(builtin.FindFiles),
		"get_file_info":    r.bind(builtin.GetFileInfo),
		"run_command":      r.runCommand,
		"run_python":       r.runPython,
		"grep_search":      r.bind(builtin.GrepSearch),
		"tree":             r.bind(builtin.Tree),
		"read_imports":     r.bind(builtin.ReadImports),
	}
	return r
}

// Execute dispatches a canonical tool call and normalizes every outcome into
// the uniform result envelope. A handler error becomes {ok:false, error};
// a successful mapping without an explicit ok key has ok:true injected.
func (r *Registry) Execute(name string, args any) map[string]any {
	handler, ok := r.handlers[name]
	if !ok {
		return map[string]any{"ok": false, "error": "Unknown tool: " + name}
	}

	mapped, ok := args.(map[string]any)
	if !ok {
		return map[string]any{"ok": false, "error": "Tool arguments must be an object."}
	}

	result, err := handler(mapped)
	if err != nil {
		return map[string]any{"ok": false, "error": err.Error()}
	}
	if result == nil {
		result = map[string]any{}
	}
	if _, declared := result["ok"]; !declared {
		result["ok"] = true
	}
	return result
}

func (r *Registry) bind(fn func(args map[string]any, cwd string) (map[string]any, error)) Handler {
	return func(args map[string]any) (map[string]any, error) {
		return fn(args, r.cwd)
	}
}

func (r *Registry) runCommand(args map[string]any) (map[string]any, error) {
	return builtin.RunCommand(args, r.cwd, r.commandTimeout, r.maxOutputLines)
}

func (r *Registry) runPython(args map[string]any) (map[string]any, error) {
	return builtin.RunPython(args, r.cwd, r.commandTimeout, r.maxOutputLines)
}
