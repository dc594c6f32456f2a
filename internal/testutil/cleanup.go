// Package testutil provides helpers for examples and tests.
package testutil

import "os"

// TempDir creates a fresh temporary directory with the given name pattern.
// Pair with RemoveAll for cleanup:
//
//	dir, err := testutil.TempDir("dfio-example-*")
//	defer testutil.RemoveAll(dir)
func TempDir(pattern string) (string, error) {
	return os.MkdirTemp("", pattern)
}

// RemoveAll removes the path and any children. Errors are ignored.
func RemoveAll(path string) { _ = os.RemoveAll(path) }
