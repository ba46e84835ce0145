package main

import (
	"cmp"
	"slices"
	"strings"
)

type sortColumn int

const (
	sortByPath sortColumn = iota
	sortBySize
	sortByLastModified
)

func (c sortColumn) String() string {
	switch c {
	case sortBySize:
		return "size"
	case sortByLastModified:
		return "modified"
	default:
		return "path"
	}
}

type sortKey struct {
	path  string
	id    string
	value uint64
	known bool
}

// sortEntries orders rows by column. Unknown sizes and ages sort lowest, and
// ties fall back to path and then id, so descending is always the exact
// reverse of ascending.
func sortEntries(rows []*FolderEntry, column sortColumn, descending bool) {
	// Metadata can land mid-sort; freeze it first so the order stays consistent.
	keys := make(map[*FolderEntry]sortKey, len(rows))
	for _, row := range rows {
		key := sortKey{path: row.Path, id: row.ID.String()}
		switch column {
		case sortBySize:
			key.value, key.known = row.Size()
		case sortByLastModified:
			key.value, key.known = row.Age()
		}
		keys[row] = key
	}

	slices.SortStableFunc(rows, func(a, b *FolderEntry) int {
		c := compareKeys(column, keys[a], keys[b])
		if descending {
			return -c
		}
		return c
	})
}

func compareKeys(column sortColumn, a, b sortKey) int {
	if column != sortByPath {
		if c := compareOptional(a.value, a.known, b.value, b.known); c != 0 {
			return c
		}
	}
	if c := strings.Compare(a.path, b.path); c != 0 {
		return c
	}
	return strings.Compare(a.id, b.id)
}

func compareOptional(a uint64, aKnown bool, b uint64, bKnown bool) int {
	switch {
	case !aKnown && !bKnown:
		return 0
	case !aKnown:
		return -1
	case !bKnown:
		return 1
	}
	return cmp.Compare(a, b)
}
