package features

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/forest-guardian/cropharvest-cli/internal/errs"
)

// Store keeps feature arrays keyed by example identifier.
type Store interface {
	Load(id string) (*Array, error)
	Save(id string, a *Array) error
	Exists(id string) bool
	Path(id string) string
}

// TestStore lists and loads held-out evaluation files.
type TestStore interface {
	ListMatching(prefix string) ([]string, error)
	LoadTestInstance(id string) (*TestInstance, error)
}

// MemoryStore is an in-process Store and TestStore, used when arrays never touch disk.
type MemoryStore struct {
	mu     sync.Mutex
	arrays map[string]*Array
	tests  map[string]*TestInstance
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		arrays: make(map[string]*Array),
		tests:  make(map[string]*TestInstance),
	}
}

func (s *MemoryStore) Load(id string) (*Array, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arrays[id]
	if !ok {
		return nil, fmt.Errorf("array %s: %w", id, errs.ErrStorageMissing)
	}
	return &Array{Dense: cloneDense(a)}, nil
}

func (s *MemoryStore) Save(id string, a *Array) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrays[id] = &Array{Dense: cloneDense(a)}
	return nil
}

func (s *MemoryStore) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.arrays[id]
	return ok
}

func (s *MemoryStore) Path(id string) string {
	return "memory://" + id
}

func (s *MemoryStore) SaveTestInstance(id string, ti *TestInstance) error {
	if err := ti.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests[id] = ti
	return nil
}

func (s *MemoryStore) ListMatching(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.tests {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) LoadTestInstance(id string) (*TestInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ti, ok := s.tests[id]
	if !ok {
		return nil, fmt.Errorf("test instance %s: %w", id, errs.ErrStorageMissing)
	}
	return ti, nil
}
