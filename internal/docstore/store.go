// Package docstore is a small key-value document store: one JSON document
// per key. It is the persistence used by the mock record backend, where
// every collection is stored as a single document.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/starford/vfxhub/internal/storage"
)

const docExt = ".json"

// Store reads and writes whole documents by key.
type Store interface {
	// Get returns the document stored under key. ok is false when the key
	// has never been written.
	Get(ctx context.Context, key string) (doc []byte, ok bool, err error)
	// Put replaces the document under key.
	Put(ctx context.Context, key string, doc []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Files stores documents as <key>.json files through a storage.Provider.
type Files struct {
	fs storage.Provider
}

// NewFiles creates a file-backed document store.
func NewFiles(fs storage.Provider) *Files {
	return &Files{fs: fs}
}

// KeyFromPath maps a file name under the store root back to its key. ok is
// false for files that are not documents.
func KeyFromPath(name string) (key string, ok bool) {
	if storage.IsTemp(name) || !strings.HasSuffix(name, docExt) {
		return "", false
	}
	return strings.TrimSuffix(name, docExt), true
}

func (f *Files) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := validKey(key); err != nil {
		return nil, false, err
	}
	data, err := f.fs.Read(key + docExt)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (f *Files) Put(_ context.Context, key string, doc []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	return f.fs.Write(key+docExt, doc)
}

func (f *Files) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := f.fs.Delete(key + docExt); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Memory keeps documents in process memory. Used by tests and the
// "memory" store backend.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), doc...), true, nil
}

func (m *Memory) Put(_ context.Context, key string, doc []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]byte(nil), doc...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("docstore: invalid key %q", key)
	}
	return nil
}
