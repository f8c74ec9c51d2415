package research

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Origin records whether a document came from the network or the local disk.
type Origin string

// Origin constants.
const (
	OriginOnline Origin = "online"
	OriginLocal  Origin = "local"
)

// DocumentMetadata describes where a document came from.
type DocumentMetadata struct {
	// Source is the canonical URL for online documents or the absolute
	// path for local ones.
	Source     string     `json:"source"`
	SourceType SourceKind `json:"sourceType"`
	Title      string     `json:"title"`
	Origin     Origin     `json:"origin"`

	// ArtifactPath is where the raw or converted artifact was saved, if any.
	ArtifactPath string `json:"artifactPath,omitempty"`
}

// Document is acquired text ready for chunking.
type Document struct {
	ID       string           `json:"id"`
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return Errorf(EINVALID, "document ID required")
	}
	if d.Metadata.Source == "" {
		return Errorf(EINVALID, "document source required")
	}
	switch d.Metadata.Origin {
	case OriginOnline, OriginLocal:
	default:
		return Errorf(EINVALID, "document origin %q not recognized", d.Metadata.Origin)
	}
	return nil
}

// DocumentID returns a stable identifier for a canonical URL or absolute path.
func DocumentID(key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// LocalDocumentID returns the identifier for a file on disk, keyed by its
// absolute path.
func LocalDocumentID(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return DocumentID(abs), nil
}

// Scanner lists local files eligible for loading.
type Scanner interface {
	// Scan returns supported files (.pdf, .txt, .md) under root in lexical
	// order. A root that is itself a supported file is returned as is.
	Scan(ctx context.Context, root string, recursive bool) ([]string, error)
}

// Artifact is an acquired source written to the session scratch directory.
type Artifact struct {
	Title  string
	Source string
	Kind   SourceKind

	// Ext is the file extension including the dot, e.g. ".pdf".
	Ext string

	// Raw holds original bytes (PDF downloads). When nil, Content is written
	// as text with a metadata header.
	Raw     []byte
	Content string
}

// ArtifactStore persists artifacts under sanitized file names.
type ArtifactStore interface {
	// SaveArtifact writes the artifact and returns the path it was saved to.
	SaveArtifact(ctx context.Context, a *Artifact) (string, error)
}
