// Package fsutil keeps file operations inside a root directory.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for targets that resolve outside the root.
var ErrOutsideRoot = errors.New("path escapes root")

// Confine resolves target against root and returns the real path if it lies
// underneath the real path of root. Relative targets are joined to root;
// absolute targets are checked as given. Symlinks are followed on both
// sides, so a link inside root that points elsewhere is refused.
func Confine(root, target string) (string, error) {
	if strings.Contains(target, "\\") {
		return "", fmt.Errorf("path contains backslash: %s", target)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		realRoot = absRoot
	}

	full := filepath.Clean(target)
	if !filepath.IsAbs(full) {
		full = filepath.Join(absRoot, full)
	}

	realPath, err := resolve(full)
	if err != nil {
		return "", err
	}

	// absolute targets may be spelled against the unresolved root
	if !within(realRoot, realPath) && !within(absRoot, realPath) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, target)
	}
	return realPath, nil
}

// resolve follows symlinks in p. A missing file resolves through its parent.
func resolve(p string) (string, error) {
	if _, err := os.Lstat(p); err == nil {
		rp, err := filepath.EvalSymlinks(p)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return rp, nil
	}

	dir := filepath.Dir(p)
	if rp, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(rp, filepath.Base(p)), nil
	} else if _, statErr := os.Stat(dir); statErr == nil {
		// parent exists but cannot be resolved: fail closed
		return "", fmt.Errorf("failed to resolve parent path: %w", err)
	}
	return p, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
