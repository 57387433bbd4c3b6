package builtin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const defaultGrepLimit = 200

// GrepSearch searches for a pattern across files under a path. It shells
// out to ripgrep when available and falls back to a pure-Go walk otherwise.
func GrepSearch(args map[string]any, cwd string) (map[string]any, error) {
	pattern, err := requiredString(args, "pattern")
	if err != nil {
		return nil, err
	}
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	searchRoot := resolvePath(path, cwd)
	glob := optionalString(args, "glob")
	maxResults := optionalInt(args, "max_results", defaultGrepLimit)
	caseSensitive := optionalBool(args, "case_sensitive")

	if _, err := exec.LookPath("rg"); err == nil {
		return grepWithRipgrep(pattern, searchRoot, glob, maxResults, caseSensitive)
	}
	return grepWithWalk(pattern, searchRoot, glob, maxResults, caseSensitive)
}

func grepWithRipgrep(pattern, searchRoot, glob string, maxResults int, caseSensitive bool) (map[string]any, error) {
	argv := []string{"--json", "--line-number"}
	if !caseSensitive {
		argv = append(argv, "-i")
	}
	if glob != "" {
		argv = append(argv, "-g", glob)
	}
	argv = append(argv, pattern, searchRoot)

	cmd := exec.Command("rg", argv...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// ripgrep exits 1 on zero matches; only higher codes are failures.
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() > 1 {
			message := strings.TrimSpace(stderr.String())
			if message == "" {
				message = "ripgrep failed"
			}
			return nil, fmt.Errorf("%s", message)
		}
	}

	matches := make([]map[string]any, 0, 16)
	for _, raw := range strings.Split(stdout.String(), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var event ripgrepEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			continue
		}
		if event.Type != "match" {
			continue
		}
		matches = append(matches, map[string]any{
			"path": event.Data.Path.Text,
			"line": event.Data.LineNumber,
			"text": strings.TrimRight(event.Data.Lines.Text, "\n"),
		})
		if len(matches) >= maxResults {
			break
		}
	}

	return map[string]any{
		"pattern":      pattern,
		"path":         searchRoot,
		"matches":      matches,
		"used_ripgrep": true,
	}, nil
}

type ripgrepEvent struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		LineNumber int `json:"line_number"`
		Lines      struct {
			Text string `json:"text"`
		} `json:"lines"`
	} `json:"data"`
}

func grepWithWalk(pattern, searchRoot, glob string, maxResults int, caseSensitive bool) (map[string]any, error) {
	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	regex, err := regexp.Compile(expr)
	if err != nil {
		// Invalid patterns degrade to a literal search.
		expr = regexp.QuoteMeta(pattern)
		if !caseSensitive {
			expr = "(?i)" + expr
		}
		regex = regexp.MustCompile(expr)
	}

	matches := make([]map[string]any, 0, 16)
	walkErr := filepath.WalkDir(searchRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if glob != "" {
			if ok, _ := filepath.Match(glob, entry.Name()); !ok {
				return nil
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if regex.MatchString(line) {
				matches = append(matches, map[string]any{"path": path, "line": i + 1, "text": line})
				if len(matches) >= maxResults {
					return fs.SkipAll
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return map[string]any{
		"pattern":      pattern,
		"path":         searchRoot,
		"matches":      matches,
		"used_ripgrep": false,
	}, nil
}

// Tree renders an ASCII directory tree, directories first, truncated by
// depth and total entry count.
func Tree(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	root := resolvePath(path, cwd)
	maxDepth := optionalInt(args, "max_depth", 3)
	maxEntries := optionalInt(args, "max_entries", 500)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("Path not found: %s", root)
	}

	name := filepath.Base(root)
	if name == "" || name == string(filepath.Separator) {
		name = root
	}
	lines := []string{name}
	entryCount := 0

	var walk func(current, prefix string, depth int)
	walk = func(current, prefix string, depth int) {
		if depth > maxDepth || entryCount >= maxEntries {
			return
		}
		entries, err := os.ReadDir(current)
		if err != nil {
			return
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].IsDir() != entries[j].IsDir() {
				return entries[i].IsDir()
			}
			return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
		})
		for index, entry := range entries {
			entryCount++
			if entryCount > maxEntries {
				lines = append(lines, prefix+"... (truncated)")
				return
			}
			connector := "|-- "
			extension := "|   "
			if index == len(entries)-1 {
				connector = "`-- "
				extension = "    "
			}
			lines = append(lines, prefix+connector+entry.Name())
			if entry.IsDir() && depth < maxDepth {
				walk(filepath.Join(current, entry.Name()), prefix+extension, depth+1)
			}
		}
	}

	if info.IsDir() {
		walk(root, "", 1)
	}

	return map[string]any{
		"path":      root,
		"tree":      strings.Join(lines, "\n"),
		"max_depth": maxDepth,
	}, nil
}

var (
	pythonImportPattern     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
	pythonFromImportPattern = regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\b`)
	jsImportPattern         = regexp.MustCompile(`(?m)^\s*import\s+(?:.+?\s+from\s+)?['"]([^'"]+)['"]|^\s*const\s+\w+\s*=\s*require\(['"]([^'"]+)['"]\)`)
)

// ReadImports extracts module dependencies from a Python or JS/TS source
// file.
func ReadImports(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	target := resolvePath(path, cwd)

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("File not found: %s", target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	text := string(data)

	seen := map[string]struct{}{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" {
			seen[name] = struct{}{}
		}
	}

	suffix := strings.ToLower(filepath.Ext(target))
	switch suffix {
	case ".py":
		for _, match := range pythonImportPattern.FindAllStringSubmatch(text, -1) {
			for _, name := range strings.Split(match[1], ",") {
				add(name)
			}
		}
		for _, match := range pythonFromImportPattern.FindAllStringSubmatch(text, -1) {
			add(match[1])
		}
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
		for _, match := range jsImportPattern.FindAllStringSubmatch(text, -1) {
			if match[1] != "" {
				add(match[1])
			} else {
				add(match[2])
			}
		}
	default:
		return nil, fmt.Errorf("Unsupported file type for import parsing: %s", suffix)
	}

	imports := make([]string, 0, len(seen))
	for name := range seen {
		imports = append(imports, name)
	}
	sort.Strings(imports)

	return map[string]any{"path": target, "imports": imports}, nil
}
