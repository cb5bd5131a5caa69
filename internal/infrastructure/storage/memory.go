package storage

import (
	"context"
	"errors"
	"sync"

	ingestapp "github.com/costiq/backend/internal/application/ingest"
)

// Ensure MemoryArchive implements FileArchive
var _ ingestapp.FileArchive = (*MemoryArchive)(nil)

// MemoryArchive keeps archived files in process memory.
// Use this for development and tests where no object store is available.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive creates an empty MemoryArchive
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		objects: make(map[string][]byte),
	}
}

// Store keeps a copy of the content under the given key.
func (a *MemoryArchive) Store(ctx context.Context, key string, content []byte, contentType string) error {
	if key == "" {
		return errors.New("archive key is required")
	}

	buf := make([]byte, len(content))
	copy(buf, content)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = buf
	return nil
}

// Get returns the stored content for a key, if present.
func (a *MemoryArchive) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	content, ok := a.objects[key]
	return content, ok
}

// Len returns the number of stored objects.
func (a *MemoryArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}
