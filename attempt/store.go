package attempt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind names one of the per-exam values an attempt keeps.
type Kind string

const (
	KindAnswers Kind = "answers"
	KindEndTime Kind = "endTime"
	KindHistory Kind = "history"
)

// ErrNotFound is returned by Store.Get for a key that holds nothing.
var ErrNotFound = errors.New("attempt value not found")

// Key addresses one value: whose it is, which exam, and what it holds.
type Key struct {
	Owner  string
	ExamID uuid.UUID
	Kind   Kind
}

func (k Key) String() string {
	return fmt.Sprintf("attempt:%s:exam-%s-%s", k.Owner, k.ExamID, k.Kind)
}

// Store is a small key-value store for in-progress and completed attempts.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, keys ...Key) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[Key][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}
