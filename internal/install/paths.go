package install

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// resolveTarget maps a catalog file path onto dir. The path must be
// relative and stay inside dir after cleaning.
func resolveTarget(dir, fullPath string) (string, error) {
	p := strings.ReplaceAll(fullPath, `\`, "/")
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty file path")
	}
	if strings.HasPrefix(p, "/") || filepath.IsAbs(fullPath) || filepath.VolumeName(fullPath) != "" {
		return "", fmt.Errorf("absolute file path %q", fullPath)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("file path %q escapes the project directory", fullPath)
	}
	return filepath.Join(dir, filepath.FromSlash(clean)), nil
}
