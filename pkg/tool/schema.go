package tool

// Definition declares one tool to the chat API in the OpenAI function
// schema. Adding a tool means adding one entry here and one handler binding
// in the registry; the dispatcher itself never grows branches.
type Definition struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function carries the name, description, and parameter schema triple.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema captures the subset of JSON Schema the tool declarations need.
type JSONSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

func prop(kind string) map[string]any {
	return map[string]any{"type": kind}
}

func def(name, description string, properties map[string]any, required ...string) Definition {
	return Definition{
		Type: "function",
		Function: Function{
			Name:        name,
			Description: description,
			Parameters: JSONSchema{
				Type:       "object",
				Properties: properties,
				Required:   required,
			},
		},
	}
}

// Definitions lists the full tool schema passed on every chat request.
func Definitions() []Definition {
	return []Definition{
		def("read_file", "Read file contents; optional line range.", map[string]any{
			"path":       prop("string"),
			"start_line": prop("integer"),
			"end_line":   prop("integer"),
		}, "path"),
		def("write_file", "Create or overwrite a file.", map[string]any{
			"path":    prop("string"),
			"content": prop("string"),
			"append":  prop("boolean"),
		}, "path", "content"),
		def("edit_file", "Replace text inside a file.", map[string]any{
			"path":    prop("string"),
			"search":  prop("string"),
			"replace": prop("string"),
			"count":   prop("integer"),
		}, "path", "search", "replace"),
		def("delete_file", "Delete a file or directory.", map[string]any{
			"path":      prop("string"),
			"recursive": prop("boolean"),
		}, "path"),
		def("list_directory", "List files/folders in a directory.", map[string]any{
			"path":           prop("string"),
			"include_hidden": prop("boolean"),
		}, "path"),
		def("create_directory", "Create a directory (with parents).", map[string]any{
			"path": prop("string"),
		}, "path"),
		def("move_file", "Move or rename a file/directory.", map[string]any{
			"source":      prop("string"),
			"destination": prop("string"),
			"overwrite":   prop("boolean"),
		}, "source", "destination"),
		def("copy_file", "Copy a file or directory.", map[string]any{
			"source":      prop("string"),
			"destination": prop("string"),
			"recursive":   prop("boolean"),
			"overwrite":   prop("boolean"),
		}, "source", "destination"),
		def("find_files", "Find files by glob pattern.", map[string]any{
			"pattern":     prop("string"),
			"root":        prop("string"),
			"max_results": prop("integer"),
		}, "pattern", "root"),
		def("get_file_info", "Get metadata about a file/directory.", map[string]any{
			"path": prop("string"),
		}, "path"),
		def("run_command", "Run a shell command and return stdout/stderr.", map[string]any{
			"command":         prop("string"),
			"timeout_seconds": prop("integer"),
		}, "command"),
		def("run_python", "Run a Python snippet.", map[string]any{
			"code":            prop("string"),
			"timeout_seconds": prop("integer"),
		}, "code"),
		def("grep_search", "Search for a pattern across files.", map[string]any{
			"pattern":        prop("string"),
			"path":           prop("string"),
			"glob":           prop("string"),
			"max_results":    prop("integer"),
			"case_sensitive": prop("boolean"),
		}, "pattern", "path"),
		def("tree", "Show directory tree structure.", map[string]any{
			"path":        prop("string"),
			"max_depth":   prop("integer"),
			"max_entries": prop("integer"),
		}, "path"),
		def("read_imports", "Read imports/dependencies from a source file.", map[string]any{
			"path": prop("string"),
		}, "path"),
	}
}
