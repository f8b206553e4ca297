// Package registry implements the in-memory skill record store. The store is
// copy-on-write: every mutation builds a fresh immutable snapshot and swaps it
// in atomically, so concurrent readers always observe a consistent
// point-in-time view and never a table mid-reload.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

// Snapshot is an immutable view of the registry at a single version. Records
// preserve registration order, which downstream ranking uses for deterministic
// tie-breaking.
type Snapshot struct {
	version uint64
	records []*skills.Record
	byName  map[string]*skills.Record
}

// Version returns the registry version this snapshot was taken at.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Lookup returns the record registered under name, or ErrNotFound.
func (s *Snapshot) Lookup(name string) (*skills.Record, error) {
	record, ok := s.byName[name]
	if !ok {
		return nil, errors.Wrapf(skills.ErrNotFound, "skill %q", name)
	}
	return record, nil
}

// List returns the records in registration order. The returned slice is a
// copy; iterating it is restartable and unaffected by later mutations.
func (s *Snapshot) List() []*skills.Record {
	out := make([]*skills.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Store owns the live snapshot. Mutations are serialized by a writer lock;
// readers load the current snapshot without blocking.
type Store struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[Snapshot]
}

// NewStore creates an empty store at version 0.
func NewStore() *Store {
	s := &Store{}
	s.snap.Store(&Snapshot{byName: map[string]*skills.Record{}})
	return s
}

// Snapshot returns the current immutable snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Version returns the current registry version. It increments on every
// mutation; outstanding activation tokens bound to older versions become
// stale.
func (s *Store) Version() uint64 {
	return s.snap.Load().version
}

// Register adds a single record. It fails with ErrDuplicateName if the name
// is already live, and with ErrMalformedRecord if required metadata is
// missing. The record is not retained on failure.
func (s *Store) Register(record *skills.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snap.Load()
	if _, exists := current.byName[record.Name]; exists {
		return errors.Wrapf(skills.ErrDuplicateName, "skill %q", record.Name)
	}

	next := &Snapshot{
		version: current.version + 1,
		records: make([]*skills.Record, len(current.records), len(current.records)+1),
		byName:  make(map[string]*skills.Record, len(current.byName)+1),
	}
	copy(next.records, current.records)
	for name, rec := range current.byName {
		next.byName[name] = rec
	}
	next.records = append(next.records, record)
	next.byName[record.Name] = record

	s.snap.Store(next)
	return nil
}

// Unregister removes the record registered under name, or returns
// ErrNotFound. Registration order of the remaining records is preserved.
func (s *Store) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snap.Load()
	if _, exists := current.byName[name]; !exists {
		return errors.Wrapf(skills.ErrNotFound, "skill %q", name)
	}

	next := &Snapshot{
		version: current.version + 1,
		records: make([]*skills.Record, 0, len(current.records)-1),
		byName:  make(map[string]*skills.Record, len(current.byName)-1),
	}
	for _, rec := range current.records {
		if rec.Name == name {
			continue
		}
		next.records = append(next.records, rec)
		next.byName[rec.Name] = rec
	}

	s.snap.Store(next)
	return nil
}

// BulkReplace atomically swaps the entire table for the given records, which
// must already be validated and unique by name (the engine enforces both and
// rejects offenders individually before calling). Readers holding the old
// snapshot keep a consistent view; new readers see only the new table.
func (s *Store) BulkReplace(records []*skills.Record) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snap.Load()
	next := &Snapshot{
		version: current.version + 1,
		records: make([]*skills.Record, len(records)),
		byName:  make(map[string]*skills.Record, len(records)),
	}
	copy(next.records, records)
	for _, rec := range records {
		next.byName[rec.Name] = rec
	}

	s.snap.Store(next)
	return next
}
