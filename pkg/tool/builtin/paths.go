package builtin

import (
	"os"
	"path/filepath"
	"strings"
)

// resolvePath expands ~, anchors relative paths at the configured working
// directory, and cleans the result.
func resolvePath(path, cwd string) string {
	expanded := path
	if expanded == "~" || strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = home + expanded[1:]
		}
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(cwd, expanded)
	}
	return filepath.Clean(expanded)
}
