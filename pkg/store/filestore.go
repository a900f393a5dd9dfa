package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileStore keeps one entity kind in a single <kind>.json file holding an
// array of records. The file is hydrated into memory on first access and
// fully rewritten on every mutation; reads never touch the disk again.
//
// Concurrent mutations against the same instance serialize on the collection
// mutex. Nothing serializes two instances pointed at the same file.
type FileStore[T any, PT Record[T]] struct {
	mu      sync.RWMutex
	path    string
	loaded  bool
	records map[string]T
}

// NewFileStore binds a store to <dir>/<kind>.json. The file is not touched
// until it is first read or written.
func NewFileStore[T any, PT Record[T]](dir string) *FileStore[T, PT] {
	var zero T
	return &FileStore[T, PT]{
		path:    filepath.Join(dir, PT(&zero).Kind()+".json"),
		records: make(map[string]T),
	}
}

// hydrate lazily loads the backing file. A missing file is recovered by
// starting from an empty collection; any other read failure propagates.
// Callers must hold the write lock.
func (s *FileStore[T, PT]) hydrate() error {
	if s.loaded {
		return nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	for i := range list {
		s.records[PT(&list[i]).EntityID()] = list[i]
	}
	s.loaded = true
	logger.Debug().Str("path", s.path).Int("records", len(list)).Msg("collection hydrated")
	return nil
}

// persist rewrites the whole backing file from memory, via a temp file and
// rename so a failed write never leaves a truncated collection behind.
// Callers must hold the write lock.
func (s *FileStore[T, PT]) persist() error {
	list := s.sorted()
	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.path, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to stage write for %s: %w", s.path, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// sorted returns the collection ordered by creation time, then id, so that
// pagination is stable across calls.
func (s *FileStore[T, PT]) sorted() []T {
	list := make([]T, 0, len(s.records))
	for _, rec := range s.records {
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := PT(&list[i]), PT(&list[j])
		if !a.Created().Equal(b.Created()) {
			return a.Created().Before(b.Created())
		}
		return a.EntityID() < b.EntityID()
	})
	return list
}

func (s *FileStore[T, PT]) Get(id string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if err := s.hydrate(); err != nil {
		return zero, false, err
	}
	rec, ok := s.records[id]
	if !ok {
		return zero, false, nil
	}
	return PT(&rec).Clone(), true, nil
}

func (s *FileStore[T, PT]) List(opts ListOptions) (Page[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(); err != nil {
		return Page[T]{}, err
	}
	page := slicePage(s.sorted(), opts)
	data := make([]T, len(page.Data))
	for i := range page.Data {
		data[i] = PT(&page.Data[i]).Clone()
	}
	page.Data = data
	return page, nil
}

func (s *FileStore[T, PT]) Create(rec T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if err := s.hydrate(); err != nil {
		return zero, err
	}
	stored := PT(&rec).Clone()
	p := PT(&stored)
	p.SetEntityID(uuid.NewString())
	p.StampCreated(time.Now().UTC())
	s.records[p.EntityID()] = stored
	if err := s.persist(); err != nil {
		return zero, err
	}
	return p.Clone(), nil
}

func (s *FileStore[T, PT]) Update(id string, mutate func(*T) error) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if err := s.hydrate(); err != nil {
		return zero, false, err
	}
	current, ok := s.records[id]
	if !ok {
		return zero, false, nil
	}
	createdAt := PT(&current).Created()
	next := PT(&current).Clone()
	p := PT(&next)
	if err := mutate(&next); err != nil {
		return zero, true, err
	}
	// Identity and timestamps belong to the store, whatever the mutator did.
	p.SetEntityID(id)
	p.StampCreated(createdAt)
	p.StampUpdated(time.Now().UTC())
	s.records[id] = next
	if err := s.persist(); err != nil {
		return zero, true, err
	}
	return p.Clone(), true, nil
}

func (s *FileStore[T, PT]) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(); err != nil {
		return false, err
	}
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	if err := s.persist(); err != nil {
		return false, err
	}
	return true, nil
}
