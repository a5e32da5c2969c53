package storage

import (
	"path/filepath"
	"strings"
)

// ResolveUnder joins untrusted path segments below base and canonicalizes
// the result. It returns ErrPathTraversal when the resolved path is not
// contained in the resolved base, which catches ".." segments as well as
// absolute-path injection. The check is textual, on the cleaned absolute
// path; no symlink guarantees beyond the filesystem's own.
func ResolveUnder(base string, segments ...string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", ErrPathTraversal
	}
	resolved := filepath.Join(append([]string{absBase}, segments...)...)
	if resolved != absBase && !strings.HasPrefix(resolved, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return resolved, nil
}
