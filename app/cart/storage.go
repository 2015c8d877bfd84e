package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a small key/value store for client state. Load returns nil
// data and a nil error for a key that was never saved.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// ─── Memory ───────────────────────────────────────────────────────────────────

type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

func (s *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data[key]...), nil
}

func (s *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

// ─── File ─────────────────────────────────────────────────────────────────────

// FileStorage keeps every key in one JSON object on disk. Writes go to a
// temporary file that is renamed over the original.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) read() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	doc := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			// An unreadable file is treated as empty and replaced on save.
			return map[string]json.RawMessage{}, nil
		}
	}
	return doc, nil
}

func (s *FileStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc[key], nil
}

func (s *FileStorage) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("file storage: value for %q is not JSON", key)
	}
	doc[key] = data

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".cart-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// ─── Redis ────────────────────────────────────────────────────────────────────

// RedisStorage namespaces keys by session so many shoppers can share one
// Redis. Each save refreshes the TTL.
type RedisStorage struct {
	rdb     redis.UniversalClient
	session string
	ttl     time.Duration
}

func NewRedisStorage(rdb redis.UniversalClient, session string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, session: session, ttl: ttl}
}

func (s *RedisStorage) key(k string) string {
	return "storefront:session:" + s.session + ":" + k
}

func (s *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (s *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	return s.rdb.Set(ctx, s.key(key), data, s.ttl).Err()
}
