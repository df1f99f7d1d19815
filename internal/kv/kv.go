package kv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Gateway is a key/value view over one persisted JSON document.
type Gateway interface {
	// Get decodes the value stored under key into dst. It reports false, leaving dst
	// untouched, when the key is absent or its value cannot be decoded.
	Get(key string, dst any) bool
	Set(key string, v any) error
}

// GetOr returns the value under key, or def when it is missing or unreadable.
func GetOr[T any](g Gateway, key string, def T) T {
	var v T
	if !g.Get(key, &v) {
		return def
	}
	return v
}

// FileStore keeps the whole document in memory and rewrites the file on every Set.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// OpenFile loads path, creating an empty document if it does not exist. A corrupt
// file is moved aside and replaced by an empty document.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("kv: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	fs := &FileStore{path: path, data: map[string]json.RawMessage{}}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fs, nil
	case err != nil:
		return nil, err
	case len(b) == 0:
		return fs, nil
	}
	if err := json.Unmarshal(b, &fs.data); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		log.Printf("kv: %s is not valid JSON (%v); starting empty, original kept at %s", path, err, aside)
		if rerr := os.Rename(path, aside); rerr != nil {
			log.Printf("kv: move aside failed: %v", rerr)
		}
		fs.data = map[string]json.RawMessage{}
	}
	return fs, nil
}

func (s *FileStore) Get(key string, dst any) bool {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("kv: value for %q unreadable, using default: %v", key, err)
		s.setAside(key, raw)
		return false
	}
	return true
}

// setAside copies an unreadable value next to the document and drops it, so the
// next Set of that key cannot destroy the only copy.
func (s *FileStore) setAside(key string, raw json.RawMessage) {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(key)
	aside := fmt.Sprintf("%s.%s.corrupt-%d", s.path, name, time.Now().UnixNano())
	if err := os.WriteFile(aside, raw, 0o600); err != nil {
		log.Printf("kv: keep unreadable %q failed: %v", key, err)
		return
	}
	log.Printf("kv: unreadable %q kept at %s", key, aside)
	s.mu.Lock()
	if cur, ok := s.data[key]; ok && bytes.Equal(cur, raw) {
		delete(s.data, key)
	}
	s.mu.Unlock()
}

func (s *FileStore) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.flush()
}

// flush writes via a temp file in the same directory so readers never see a torn file.
func (s *FileStore) flush() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kv-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Memory is an in-process Gateway, used in tests and as a scratch store.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory { return &Memory{data: map[string][]byte{}} }

func (m *Memory) Get(key string, dst any) bool {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (m *Memory) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}
