package database

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a NotifyStore kept in process memory
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]NotifyRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]NotifyRecord)}
}

// Append stores a notify, replacing an existing record with the same version
func (s *MemoryStore) Append(_ context.Context, rec NotifyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Body = append([]byte(nil), rec.Body...)
	list := s.records[rec.Conference]
	for i := range list {
		if list[i].Version == rec.Version {
			list[i] = rec
			return nil
		}
	}
	list = append(list, rec)
	sort.Slice(list, func(i, j int) bool { return list[i].Version < list[j].Version })
	s.records[rec.Conference] = list
	return nil
}

// Since returns the notifies of a conference newer than after
func (s *MemoryStore) Since(_ context.Context, conference string, after uint) ([]NotifyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []NotifyRecord
	for _, rec := range s.records[conference] {
		if rec.Version > after {
			out = append(out, rec)
		}
	}
	return out, nil
}

// LastVersion returns the highest stored version of a conference
func (s *MemoryStore) LastVersion(_ context.Context, conference string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.records[conference]
	if len(list) == 0 {
		return 0, nil
	}
	return list[len(list)-1].Version, nil
}

// Prune keeps the newest keep notifies of a conference
func (s *MemoryStore) Prune(_ context.Context, conference string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.records[conference]
	if len(list) == 0 {
		return nil
	}
	cutoff := int64(list[len(list)-1].Version) - int64(keep)
	kept := list[:0]
	for _, rec := range list {
		if int64(rec.Version) > cutoff {
			kept = append(kept, rec)
		}
	}
	s.records[conference] = kept
	return nil
}

// Conferences lists the conferences with stored notifies
func (s *MemoryStore) Conferences(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.records))
	for c := range s.records {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
