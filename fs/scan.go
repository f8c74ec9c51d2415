package fs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fwojciec/research"
)

// SupportedExtensions lists the local file types that can be loaded.
var SupportedExtensions = []string{".pdf", ".txt", ".md"}

// IsSupported reports whether the path has a supported extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Ensure Scanner implements research.Scanner at compile time.
var _ research.Scanner = (*Scanner)(nil)

// Scanner lists supported files on the local disk. Hidden files and
// directories are skipped.
type Scanner struct{}

// NewScanner creates a new Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan implements research.Scanner. Returned paths are absolute.
func (s *Scanner) Scan(ctx context.Context, root string, recursive bool) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "invalid path %q: %v", root, err)
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return nil, research.Errorf(research.ENOTFOUND, "path %s does not exist", root)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !IsSupported(abs) {
			return nil, research.Errorf(research.EUNSUPPORTED, "unsupported file type %s", filepath.Base(abs))
		}
		return []string{abs}, nil
	}

	paths := []string{}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == abs {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsSupported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
