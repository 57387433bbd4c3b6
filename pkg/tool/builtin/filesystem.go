package builtin

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const defaultFindLimit = 200

// ReadFile returns file contents, optionally sliced to a 1-based line range.
func ReadFile(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	target := resolvePath(path, cwd)

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	content := string(data)

	startLine, hasStart := intArg(args, "start_line")
	endLine, hasEnd := intArg(args, "end_line")
	if hasStart || hasEnd {
		lines := strings.Split(content, "\n")
		start := 0
		if hasStart && startLine > 1 {
			start = startLine - 1
		}
		end := len(lines)
		if hasEnd && endLine < end {
			end = endLine
		}
		if start > len(lines) {
			start = len(lines)
		}
		if end < start {
			end = start
		}
		content = strings.Join(lines[start:end], "\n")
	}

	return map[string]any{"path": target, "content": content}, nil
}

// WriteFile creates or overwrites a file, making parent directories as
// needed. The append flag switches to appending.
func WriteFile(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	content, err := requiredString(args, "content")
	if err != nil {
		return nil, err
	}
	target := resolvePath(path, cwd)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}

	flags := os.O_WRONLY | os.O_CREATE
	if optionalBool(args, "append") {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	handle, err := os.OpenFile(target, flags, 0o644)
	if err != nil {
		return nil, err
	}
	defer handle.Close()
	if _, err := handle.WriteString(content); err != nil {
		return nil, err
	}

	return map[string]any{"path": target, "bytes_written": len(content)}, nil
}

// EditFile replaces occurrences of a search string. count limits how many
// occurrences change; zero or absent means all of them.
func EditFile(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	search, err := requiredString(args, "search")
	if err != nil {
		return nil, err
	}
	replace, err := requiredString(args, "replace")
	if err != nil {
		return nil, err
	}
	target := resolvePath(path, cwd)

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	original := string(data)
	occurrences := strings.Count(original, search)
	if occurrences == 0 {
		return nil, fmt.Errorf("Text not found in %s", target)
	}

	count := optionalInt(args, "count", 0)
	replaced := occurrences
	n := -1
	if count > 0 {
		n = count
		if count < occurrences {
			replaced = count
		}
	}
	updated := strings.Replace(original, search, replace, n)
	if err := os.WriteFile(target, []byte(updated), 0o644); err != nil {
		return nil, err
	}

	return map[string]any{"path": target, "occurrences_replaced": replaced}, nil
}

// DeleteFile removes a file, or a directory when recursive is set.
func DeleteFile(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	target := resolvePath(path, cwd)

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("Path not found: %s", target)
		}
		return nil, err
	}

	if info.IsDir() {
		if !optionalBool(args, "recursive") {
			return nil, errors.New("Refusing to delete directory without recursive=true.")
		}
		if err := os.RemoveAll(target); err != nil {
			return nil, err
		}
		return map[string]any{"path": target, "deleted": "directory"}, nil
	}

	if err := os.Remove(target); err != nil {
		return nil, err
	}
	return map[string]any{"path": target, "deleted": "file"}, nil
}

// ListDirectory enumerates entries sorted by lowercased name, hiding
// dotfiles unless include_hidden is set.
func ListDirectory(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	target := resolvePath(path, cwd)

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	includeHidden := optionalBool(args, "include_hidden")
	listed := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		if !includeHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		item := map[string]any{"name": entry.Name()}
		if entry.IsDir() {
			item["type"] = "directory"
			item["size"] = nil
		} else {
			item["type"] = "file"
			var size any
			if info, err := entry.Info(); err == nil {
				size = info.Size()
			}
			item["size"] = size
		}
		listed = append(listed, item)
	}

	return map[string]any{"path": target, "entries": listed}, nil
}

// CreateDirectory makes a directory including parents; existing directories
// are fine.
func CreateDirectory(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	target := resolvePath(path, cwd)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, err
	}
	return map[string]any{"path": target, "created": true}, nil
}

// MoveFile moves or renames a file or directory. An existing destination is
// an error unless overwrite is set.
func MoveFile(args map[string]any, cwd string) (map[string]any, error) {
	source, err := requiredString(args, "source")
	if err != nil {
		return nil, err
	}
	destination, err := requiredString(args, "destination")
	if err != nil {
		return nil, err
	}
	src := resolvePath(source, cwd)
	dst := resolvePath(destination, cwd)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}
	if _, err := os.Stat(dst); err == nil {
		if !optionalBool(args, "overwrite") {
			return nil, fmt.Errorf("Destination exists: %s", dst)
		}
		if err := os.RemoveAll(dst); err != nil {
			return nil, err
		}
	}
	if err := os.Rename(src, dst); err != nil {
		return nil, err
	}

	return map[string]any{"source": src, "destination": dst}, nil
}

// CopyFile copies a file, or a whole directory when recursive is set.
func CopyFile(args map[string]any, cwd string) (map[string]any, error) {
	source, err := requiredString(args, "source")
	if err != nil {
		return nil, err
	}
	destination, err := requiredString(args, "destination")
	if err != nil {
		return nil, err
	}
	src := resolvePath(source, cwd)
	dst := resolvePath(destination, cwd)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}
	if _, err := os.Stat(dst); err == nil && !optionalBool(args, "overwrite") {
		return nil, fmt.Errorf("Destination exists: %s", dst)
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		if !optionalBool(args, "recursive") {
			return nil, errors.New("Source is a directory; set recursive=true to copy directories.")
		}
		if err := os.RemoveAll(dst); err != nil {
			return nil, err
		}
		if err := copyTree(src, dst); err != nil {
			return nil, err
		}
	} else if err := copyOne(src, dst, info); err != nil {
		return nil, err
	}

	return map[string]any{"source": src, "destination": dst}, nil
}

// FindFiles walks root collecting paths whose base name matches the glob
// pattern, up to max_results.
func FindFiles(args map[string]any, cwd string) (map[string]any, error) {
	pattern, err := requiredString(args, "pattern")
	if err != nil {
		return nil, err
	}
	root, err := requiredString(args, "root")
	if err != nil {
		return nil, err
	}
	rootPath := resolvePath(root, cwd)
	maxResults := optionalInt(args, "max_results", defaultFindLimit)

	var matches []string
	err = filepath.WalkDir(rootPath, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if path == rootPath {
			return nil
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			matches = append(matches, path)
			if len(matches) >= maxResults {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{"root": rootPath, "pattern": pattern, "matches": matches}, nil
}

// GetFileInfo stats a path and returns its metadata envelope.
func GetFileInfo(args map[string]any, cwd string) (map[string]any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	target := resolvePath(path, cwd)

	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"path":         target,
		"exists":       true,
		"is_file":      info.Mode().IsRegular(),
		"is_directory": info.IsDir(),
		"size_bytes":   info.Size(),
		"modified_at":  info.ModTime().Format(time.RFC3339),
	}, nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		return copyOne(path, target, info)
	})
}

func copyOne(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
