// Package storage provides workspace snapshot storage backends.
// Supports file, Redis and in-memory backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"structcalc/core/types"
	"structcalc/core/workspace"
	apperrors "structcalc/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Store is a workspace.Storage that holds resources
type Store interface {
	workspace.Storage
	io.Closer
}

// FileStore keeps the snapshot in one JSON file
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a file store, creating the parent directory
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.Storage("failed to create storage directory", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the snapshot file path
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file is an empty workspace. A file
// holding a bare project array, as older versions wrote, is read as the
// project list.
func (s *FileStore) Load(ctx context.Context) (types.WorkspaceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return types.WorkspaceSnapshot{}, nil
	}
	if err != nil {
		return types.WorkspaceSnapshot{}, apperrors.Storage("failed to read workspace", err)
	}
	return decodeSnapshot(data)
}

// Save writes the snapshot to a temporary file and renames it over the
// previous one.
func (s *FileStore) Save(ctx context.Context, snap types.WorkspaceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return apperrors.Storage("failed to marshal workspace", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return apperrors.Storage("failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Storage("failed to write workspace", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Storage("failed to write workspace", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.Storage("failed to replace workspace", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// MemoryStore is an in-memory storage backend
type MemoryStore struct {
	snap types.WorkspaceSnapshot
	mu   sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (types.WorkspaceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, snap types.WorkspaceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// StoreFactory creates stores by backend type. Recognized config keys:
// path (file); addr, password, db, key (redis).
func StoreFactory(backend Backend, config map[string]string) (Store, error) {
	switch backend {
	case BackendFile:
		path := config["path"]
		if path == "" {
			path = filepath.Join(".structcalc", "workspace.json")
		}
		return NewFileStore(path)
	case BackendRedis:
		db := 0
		if v := config["db"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.TypeConfig, "invalid redis db", err)
			}
			db = n
		}
		return NewRedisStore(RedisOptions{
			Addr:     config["addr"],
			Password: config["password"],
			DB:       db,
			Key:      config["key"],
		})
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, apperrors.New(apperrors.TypeConfig, fmt.Sprintf("unsupported backend: %s", backend))
	}
}

// decodeSnapshot reads stored bytes leniently: one malformed project does
// not make the whole workspace unreadable
func decodeSnapshot(data []byte) (types.WorkspaceSnapshot, error) {
	snap, err := workspace.DecodeSnapshot(data)
	if err != nil {
		return types.WorkspaceSnapshot{}, apperrors.Storage("failed to decode workspace", err)
	}
	return snap, nil
}

// Ensure interfaces are implemented
var _ Store = (*FileStore)(nil)
var _ Store = (*MemoryStore)(nil)
var _ Store = (*RedisStore)(nil)
