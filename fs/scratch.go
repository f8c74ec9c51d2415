// Package fs provides file-based storage: a per-session scratch directory
// for acquired artifacts and a scanner for local documents.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fwojciec/research"
)

// MaxFilenameLength bounds sanitized file names, extension included.
const MaxFilenameLength = 200

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFilename replaces characters that are invalid in file names with
// underscores, trims leading and trailing dots and spaces, and truncates
// the result to maxLength runes keeping the extension.
func SanitizeFilename(name string, maxLength int) string {
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	if utf8.RuneCountInString(name) <= maxLength {
		return name
	}
	ext := filepath.Ext(name)
	if utf8.RuneCountInString(ext) >= maxLength {
		ext = ""
	}
	stem := []rune(strings.TrimSuffix(name, ext))
	return strings.TrimRight(string(stem[:maxLength-utf8.RuneCountInString(ext)]), ". ") + ext
}

// SessionDirName derives a directory name from a research query, e.g.
// "Coral Reef Decline?" becomes "coral_reef_decline_".
func SessionDirName(query string) string {
	name := SanitizeFilename(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), " ", "_"), 50)
	if name == "" {
		return "session"
	}
	return name
}

// FormatArtifact renders a text artifact with a "Source:" and "Title:"
// header closed by a rule, the format read back by local loading.
func FormatArtifact(a *research.Artifact) string {
	var b strings.Builder
	b.WriteString("Source: ")
	b.WriteString(a.Source)
	b.WriteString("\nTitle: ")
	b.WriteString(a.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n\n")
	b.WriteString(a.Content)
	return b.String()
}

// Ensure ScratchDir implements research.ArtifactStore at compile time.
var _ research.ArtifactStore = (*ScratchDir)(nil)

// ScratchDir saves artifacts into one directory per session. File names
// come from artifact titles; clashes get a numeric suffix. It is safe for
// concurrent use.
type ScratchDir struct {
	dir string

	mu   sync.Mutex
	used map[string]bool
}

// NewScratchDir creates a ScratchDir at baseDir/SessionDirName(query). The
// directory is created on first save.
func NewScratchDir(baseDir, query string) *ScratchDir {
	return &ScratchDir{
		dir:  filepath.Join(baseDir, SessionDirName(query)),
		used: make(map[string]bool),
	}
}

// Dir returns the session directory.
func (s *ScratchDir) Dir() string {
	return s.dir
}

// SaveArtifact writes the artifact and returns its path. Raw bytes are
// written as is; text content gets a metadata header.
func (s *ScratchDir) SaveArtifact(ctx context.Context, a *research.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.Raw == nil && a.Content == "" {
		return "", research.Errorf(research.EINVALID, "artifact for %s has no content", a.Source)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, s.reserve(a))

	data := a.Raw
	if data == nil {
		data = []byte(FormatArtifact(a))
	}

	// Write then rename so readers never see partial files.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// reserve picks an unused file name for the artifact.
func (s *ScratchDir) reserve(a *research.Artifact) string {
	stem := a.Title
	if strings.TrimSpace(stem) == "" {
		stem = a.Source
	}
	ext := a.Ext
	if ext == "" {
		ext = ".txt"
	}
	stem = SanitizeFilename(stem, MaxFilenameLength-len(ext)-4)
	if stem == "" {
		stem = "artifact"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := stem + ext
	for i := 2; s.used[name] || exists(filepath.Join(s.dir, name)); i++ {
		name = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	s.used[name] = true
	return name
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the session directory and everything in it.
func (s *ScratchDir) Remove() error {
	return os.RemoveAll(s.dir)
}
