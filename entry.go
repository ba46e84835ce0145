package main

import (
	"github.com/google/uuid"
)

// RemovalStatus tracks a row through Pending → InProgress → Completed|Failed.
type RemovalStatus int

const (
	StatusPending RemovalStatus = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
)

func (s RemovalStatus) String() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

func (s RemovalStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s RemovalStatus) canBecome(next RemovalStatus) bool {
	switch {
	case s.Terminal():
		return false
	case s == StatusPending:
		return next == StatusInProgress
	default:
		return next.Terminal()
	}
}

// FolderEntry is one discovered artifact directory. Status is only read or
// written under the owning RowStore's lock; size and age are filled in by
// background measurements and may be read at any time.
type FolderEntry struct {
	ID     uuid.UUID
	Path   string
	Status RemovalStatus

	size *onceCell[uint64]
	age  *onceCell[uint64]
}

// NewFolderEntry creates an entry and, when p is non-nil, starts measuring
// its size and age right away.
func NewFolderEntry(path string, p *Populator) *FolderEntry {
	e := &FolderEntry{
		ID:   uuid.New(),
		Path: path,
		size: &onceCell[uint64]{},
		age:  &onceCell[uint64]{},
	}
	if p != nil {
		p.Populate(e.Path, e.size, e.age)
	}
	return e
}

// Size returns the total size in bytes once it is known.
func (e *FolderEntry) Size() (uint64, bool) {
	return e.size.Get()
}

// Age returns the seconds since last modification once it is known.
func (e *FolderEntry) Age() (uint64, bool) {
	return e.age.Get()
}

func (e *FolderEntry) AgeSettled() bool {
	return e.age.Settled()
}
