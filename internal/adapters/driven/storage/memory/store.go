// Package memory provides an in-memory artifact store used in tests and
// as a reference implementation of the store contract.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

type key struct {
	identity string
	kind     domain.ArtifactKind
}

// Store is an in-memory implementation of driven.ArtifactStore.
type Store struct {
	mu        sync.RWMutex
	payloads  map[key][]byte
	corrupted map[key]bool
}

// NewStore creates a new in-memory artifact store.
func NewStore() *Store {
	return &Store{
		payloads:  make(map[key][]byte),
		corrupted: make(map[key]bool),
	}
}

// Exists reports whether a payload is present for the key.
func (s *Store) Exists(_ context.Context, identity string, kind domain.ArtifactKind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.payloads[key{identity, kind}]
	return ok
}

// Write persists the payload, replacing any prior payload for the key.
func (s *Store) Write(_ context.Context, identity string, kind domain.ArtifactKind, payload []byte) error {
	if identity == "" {
		return fmt.Errorf("%w: empty identity", domain.ErrInvalidInput)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{identity, kind}
	s.payloads[k] = append([]byte(nil), payload...)
	delete(s.corrupted, k)
	return nil
}

// Read returns the payload for the key.
func (s *Store) Read(_ context.Context, identity string, kind domain.ArtifactKind) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k := key{identity, kind}
	payload, ok := s.payloads[k]
	if !ok {
		return nil, fmt.Errorf("%s for %q: %w", kind, identity, domain.ErrNotFound)
	}
	if s.corrupted[k] {
		return nil, fmt.Errorf("%s for %q: %w: checksum mismatch", kind, identity, domain.ErrCorrupted)
	}
	return append([]byte(nil), payload...), nil
}

// Delete removes the payload. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, identity string, kind domain.ArtifactKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{identity, kind}
	delete(s.payloads, k)
	delete(s.corrupted, k)
	return nil
}

// ListIdentities returns the identities known to the store, derived from
// the chunks namespace only.
func (s *Store) ListIdentities(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var identities []string
	for k := range s.payloads {
		if k.kind == domain.KindChunks {
			identities = append(identities, k.identity)
		}
	}
	return identities, nil
}

// Close releases resources. The memory store holds none.
func (s *Store) Close() error {
	return nil
}

// Corrupt marks a stored payload as damaged so reads report corruption.
// Test hook: mirrors flipping bytes in a real store's payload.
func (s *Store) Corrupt(identity string, kind domain.ArtifactKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{identity, kind}
	if _, ok := s.payloads[k]; ok {
		s.corrupted[k] = true
	}
}

// Len returns the number of stored payloads across all namespaces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payloads)
}
