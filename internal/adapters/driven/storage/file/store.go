// Package file provides a filesystem-backed artifact store.
// Each artifact kind gets its own directory under the base dir, one file
// per document identity. Payloads are framed in a checksummed envelope and
// promoted into place with a temp-file rename, so a reader never observes
// a half-written artifact.
package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// artifactExt is the on-disk file extension for all artifact payloads.
const artifactExt = ".art"

// envelope layout: magic, kind tag, body length, body SHA-256, body.
var magic = [4]byte{'R', 'T', 'A', '1'}

const headerSize = 4 + 1 + 8 + sha256.Size

// kindTags gives each namespace a stable single-byte tag so a payload
// copied between namespaces fails verification.
var kindTags = map[domain.ArtifactKind]byte{
	domain.KindChunks:   1,
	domain.KindVector:   2,
	domain.KindSummary:  3,
	domain.KindMetadata: 4,
}

// Store is a filesystem implementation of driven.ArtifactStore.
type Store struct {
	baseDir string
}

// NewStore creates a filesystem artifact store rooted at baseDir.
// If baseDir is empty, defaults to ~/.regtrack/storage.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".regtrack", "storage")
	}

	for kind := range kindTags {
		if err := os.MkdirAll(filepath.Join(baseDir, string(kind)), 0700); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", kind, err)
		}
	}

	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the storage root.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Exists reports whether a fully written payload is present.
// The rename discipline means any file that exists was fully written;
// a damaged file still exists and surfaces as corruption on Read.
func (s *Store) Exists(_ context.Context, identity string, kind domain.ArtifactKind) bool {
	path, err := s.path(identity, kind)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Write persists the payload, replacing any prior payload for the key.
func (s *Store) Write(_ context.Context, identity string, kind domain.ArtifactKind, payload []byte) error {
	path, err := s.path(identity, kind)
	if err != nil {
		return err
	}

	framed := frame(kind, payload)

	// Write to a temp file in the same directory, then promote atomically.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(framed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s for %q: %w", kind, identity, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("promoting %s for %q: %w", kind, identity, err)
	}
	return nil
}

// Read returns the payload for the key.
func (s *Store) Read(_ context.Context, identity string, kind domain.ArtifactKind) ([]byte, error) {
	path, err := s.path(identity, kind)
	if err != nil {
		return nil, err
	}

	framed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s for %q: %w", kind, identity, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s for %q: %w", kind, identity, err)
	}

	payload, err := unframe(kind, framed)
	if err != nil {
		return nil, fmt.Errorf("%s for %q: %w", kind, identity, err)
	}
	return payload, nil
}

// Delete removes the payload. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, identity string, kind domain.ArtifactKind) error {
	path, err := s.path(identity, kind)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s for %q: %w", kind, identity, err)
	}
	return nil
}

// ListIdentities returns the identities known to the store, derived from
// the chunks namespace only.
func (s *Store) ListIdentities(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, string(domain.KindChunks)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading chunks directory: %w", err)
	}

	var identities []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, artifactExt) {
			continue
		}
		identities = append(identities, strings.TrimSuffix(name, artifactExt))
	}
	return identities, nil
}

// Close releases resources. The file store holds none.
func (s *Store) Close() error {
	return nil
}

// path resolves the on-disk location for a key, rejecting identities that
// would escape the namespace directory.
func (s *Store) path(identity string, kind domain.ArtifactKind) (string, error) {
	if identity == "" || strings.ContainsAny(identity, `/\`) || identity == "." || identity == ".." {
		return "", fmt.Errorf("%w: bad identity %q", domain.ErrInvalidInput, identity)
	}
	if _, ok := kindTags[kind]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
	}
	return filepath.Join(s.baseDir, string(kind), identity+artifactExt), nil
}

// frame wraps a payload in the checksummed envelope.
func frame(kind domain.ArtifactKind, payload []byte) []byte {
	sum := sha256.Sum256(payload)

	framed := make([]byte, 0, headerSize+len(payload))
	framed = append(framed, magic[:]...)
	framed = append(framed, kindTags[kind])
	framed = binary.BigEndian.AppendUint64(framed, uint64(len(payload)))
	framed = append(framed, sum[:]...)
	framed = append(framed, payload...)
	return framed
}

// unframe verifies the envelope and returns the body.
// Any mismatch reports domain.ErrCorrupted.
func unframe(kind domain.ArtifactKind, framed []byte) ([]byte, error) {
	if len(framed) < headerSize {
		return nil, fmt.Errorf("%w: truncated envelope", domain.ErrCorrupted)
	}
	if !bytes.Equal(framed[:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", domain.ErrCorrupted)
	}
	if framed[4] != kindTags[kind] {
		return nil, fmt.Errorf("%w: kind tag mismatch", domain.ErrCorrupted)
	}

	bodyLen := binary.BigEndian.Uint64(framed[5:13])
	body := framed[headerSize:]
	if uint64(len(body)) != bodyLen {
		return nil, fmt.Errorf("%w: length mismatch", domain.ErrCorrupted)
	}

	sum := sha256.Sum256(body)
	if !bytes.Equal(framed[13:13+sha256.Size], sum[:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", domain.ErrCorrupted)
	}
	return body, nil
}
