package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FileStore keeps all keys in a single JSON file, rewritten on every
// mutation. A missing or corrupt file is treated as empty, never fatal.
type FileStore struct {
	mu     sync.Mutex
	path   string
	data   map[string]json.RawMessage
	logger zerolog.Logger
}

// NewFileStore loads the store file, initializing an empty map when the
// file is absent or unreadable.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		path:   path,
		data:   make(map[string]json.RawMessage),
		logger: log.With().Str("component", "file_store").Str("path", path).Logger(),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Msg("read store file, starting empty")
		}
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt store file, starting empty")
		s.data = make(map[string]json.RawMessage)
	}
	return s
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *FileStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = json.RawMessage(value)
	return s.save()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.save()
}

func (s *FileStore) Update(key string, fn func(old []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.data[key])
	if err != nil {
		return err
	}
	if next == nil {
		delete(s.data, key)
	} else {
		s.data[key] = json.RawMessage(next)
	}
	return s.save()
}

func (s *FileStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *FileStore) Close() error { return nil }

// save writes the whole map back to disk. Caller holds the lock.
func (s *FileStore) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, raw, 0644)
}
