package app

import (
	"sync"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
)

// Snapshot is the live in-memory record set. Reloads swap the whole set;
// readers keep whatever slice they were handed.
type Snapshot struct {
	mu       sync.RWMutex
	features []string
	records  []search.Record
	source   string
	version  uint64
}

var _ ports.RecordStore = (*Snapshot)(nil)

// NewSnapshot creates a snapshot from ds. A nil ds gives an empty snapshot.
func NewSnapshot(ds *ports.Dataset) *Snapshot {
	s := &Snapshot{}
	s.Swap(ds)
	return s
}

// Swap replaces the record set and bumps the version.
func (s *Snapshot) Swap(ds *ports.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	if ds == nil {
		s.features, s.records, s.source = nil, nil, ""
		return
	}
	s.features = append([]string(nil), ds.Features...)
	s.records = ds.Records
	s.source = ds.Source
}

// ListFeatures returns a copy of the feature names.
func (s *Snapshot) ListFeatures() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.features...), nil
}

// Records returns the current record slice. Callers must not modify it.
func (s *Snapshot) Records() ([]search.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, nil
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Source returns where the current records were imported from.
func (s *Snapshot) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Version increases on every Swap. The executor keys its cache on it.
func (s *Snapshot) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// view returns features, records and version under one lock.
func (s *Snapshot) view() ([]string, []search.Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.features, s.records, s.version
}
