package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// checkResult is one line of validate output.
type checkResult struct {
	Name   string
	Passed bool
	Detail string
}

func (r checkResult) kind() statusKind {
	if r.Passed {
		return statusOK
	}
	return statusError
}

// checkDirectoryAccess verifies that path is a directory we can read and
// write. A missing directory passes when its nearest existing ancestor is
// writable, since runs create it on demand.
func checkDirectoryAccess(name, path string) checkResult {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		ancestor := nearestExisting(path)
		if ancestor == "" {
			return checkResult{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
		}
		if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
			return checkResult{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
		}
		return checkResult{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	if err != nil {
		return checkResult{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return checkResult{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return checkResult{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return checkResult{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func nearestExisting(path string) string {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		if parent := filepath.Dir(dir); parent == dir {
			return ""
		}
	}
}
