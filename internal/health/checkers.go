// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/artnetviz/internal/dmx"
)

// FuncChecker adapts a plain function to Checker. A nil error is healthy.
type FuncChecker struct {
	name string
	fn   func(ctx context.Context) error
}

// NewFuncChecker wraps fn under the given name.
func NewFuncChecker(name string, fn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	if err := c.fn(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// SourceState is what SourceChecker needs from the active frame source.
type SourceState interface {
	Kind() dmx.Kind
	Running() bool
}

// SourceChecker reports whether the active frame source is producing frames.
// A stopped source is degraded, not unhealthy: the daemon still serves the API.
type SourceChecker struct {
	active func() SourceState
}

// NewSourceChecker creates a checker over the currently active source.
func NewSourceChecker(active func() SourceState) *SourceChecker {
	return &SourceChecker{active: active}
}

func (c *SourceChecker) Name() string { return "source" }

func (c *SourceChecker) Check(_ context.Context) CheckResult {
	src := c.active()
	if src == nil {
		return CheckResult{Status: StatusDegraded, Message: "no active source"}
	}
	if !src.Running() {
		return CheckResult{Status: StatusDegraded, Message: string(src.Kind()) + " source stopped"}
	}
	return CheckResult{Status: StatusHealthy, Message: string(src.Kind()) + " source running"}
}

// DirChecker checks that a directory exists and accepts writes.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a writable-directory checker.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(_ context.Context) CheckResult {
	if err := checkWritableDir(c.path); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.path}
	}
	return CheckResult{Status: StatusHealthy, Message: "directory writable"}
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	f, err := os.CreateTemp(path, ".write_test_*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(filepath.Clean(name))
	return nil
}
