package main

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// RowView is a copy of one row taken under the read lock.
type RowView struct {
	ID         uuid.UUID
	Path       string
	Status     RemovalStatus
	Size       uint64
	SizeKnown  bool
	Age        uint64
	AgeKnown   bool
	AgeSettled bool
}

// RowStore is the ordered collection of folder entries shared between the
// engine and background workers. Rows are looked up by ID because sorting
// moves them around.
type RowStore struct {
	mu       sync.RWMutex
	rows     []*FolderEntry
	poisoned error
}

func NewRowStore() *RowStore {
	return &RowStore{}
}

func (s *RowStore) read(fn func(rows []*FolderEntry)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned != nil {
		return s.poisoned
	}
	fn(s.rows)
	return nil
}

// write runs fn under the exclusive lock. If fn panics the store is poisoned
// and the panic comes back as an error instead of unwinding further.
func (s *RowStore) write(fn func(rows *[]*FolderEntry)) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned != nil {
		return s.poisoned
	}
	defer func() {
		if r := recover(); r != nil {
			s.poisoned = errors.Wrapf(ErrLockPoisoned, "writer panicked: %v", r)
			err = s.poisoned
		}
	}()
	fn(&s.rows)
	return nil
}

func (s *RowStore) Append(e *FolderEntry) error {
	return s.write(func(rows *[]*FolderEntry) {
		*rows = append(*rows, e)
	})
}

func (s *RowStore) Len() (int, error) {
	var n int
	err := s.read(func(rows []*FolderEntry) {
		n = len(rows)
	})
	return n, err
}

// At returns the entry at index i and its current status.
func (s *RowStore) At(i int) (*FolderEntry, RemovalStatus, bool, error) {
	var (
		entry  *FolderEntry
		status RemovalStatus
		ok     bool
	)
	err := s.read(func(rows []*FolderEntry) {
		if i < 0 || i >= len(rows) {
			return
		}
		entry, status, ok = rows[i], rows[i].Status, true
	})
	return entry, status, ok, err
}

// UpdateStatus moves the row with the given id to next if that is a legal
// transition. It reports whether the row changed.
func (s *RowStore) UpdateStatus(id uuid.UUID, next RemovalStatus) (bool, error) {
	var changed bool
	err := s.write(func(rows *[]*FolderEntry) {
		for _, row := range *rows {
			if row.ID != id {
				continue
			}
			if row.Status.canBecome(next) {
				row.Status = next
				changed = true
			}
			return
		}
	})
	return changed, err
}

// Sort reorders all rows by column.
func (s *RowStore) Sort(column sortColumn, descending bool) error {
	return s.write(func(rows *[]*FolderEntry) {
		sortEntries(*rows, column, descending)
	})
}

func (s *RowStore) Views() ([]RowView, error) {
	var views []RowView
	err := s.read(func(rows []*FolderEntry) {
		views = make([]RowView, 0, len(rows))
		for _, row := range rows {
			size, sizeOK := row.Size()
			age, ageOK := row.Age()
			views = append(views, RowView{
				ID:         row.ID,
				Path:       row.Path,
				Status:     row.Status,
				Size:       size,
				SizeKnown:  sizeOK,
				Age:        age,
				AgeKnown:   ageOK,
				AgeSettled: row.AgeSettled(),
			})
		}
	})
	return views, err
}
