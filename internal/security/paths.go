// Package security guards the files tray-align writes.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateOutputPath reports whether path resolves inside the working
// directory, the temp directory or one of extraDirs. Symlinks in the
// existing part of the path are resolved first, so a link pointing out of an
// allowed directory is rejected.
func ValidateOutputPath(path string, extraDirs ...string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	dirs := append([]string{cwd, os.TempDir()}, extraDirs...)

	target, err := canonical(path)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		root, err := canonical(dir)
		if err != nil {
			continue
		}
		if within(target, root) {
			return nil
		}
	}
	return fmt.Errorf("output path %s must be within one of %v", path, dirs)
}

// canonical makes path absolute and resolves symlinks in its longest
// existing prefix. The missing tail is appended unchanged.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	existing, rest := abs, ""
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
