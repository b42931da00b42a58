package usage

import (
	"debug/elf"
	"slices"

	"github.com/isseis/bldd/internal/elfinspect"
)

// Record is one file that declares a library.
type Record struct {
	Path    string
	Machine elf.Machine
}

// ArchLabel returns the display name of the record's architecture.
func (r Record) ArchLabel() string {
	return elfinspect.MachineLabel(r.Machine)
}

// Entry is one library with the files that use it.
type Entry struct {
	Library string
	Records []Record
}

// Index maps library names to the files that need them. Libraries keep the
// order in which they were first added; records keep insertion order.
// An Index is not safe for concurrent mutation.
type Index struct {
	order   []string
	records map[string][]Record
	seen    map[string]map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		records: make(map[string][]Record),
		seen:    make(map[string]map[string]struct{}),
	}
}

// Add records that the file at rec.Path needs lib. A repeated
// (lib, path) pair is ignored and Add returns false.
func (ix *Index) Add(lib string, rec Record) bool {
	paths, ok := ix.seen[lib]
	if !ok {
		paths = make(map[string]struct{})
		ix.seen[lib] = paths
		ix.order = append(ix.order, lib)
	}
	if _, dup := paths[rec.Path]; dup {
		return false
	}
	paths[rec.Path] = struct{}{}
	ix.records[lib] = append(ix.records[lib], rec)
	return true
}

// Libraries returns the indexed library names in first-seen order.
func (ix *Index) Libraries() []string {
	return slices.Clone(ix.order)
}

// Records returns the files that use lib, or nil.
func (ix *Index) Records(lib string) []Record {
	return slices.Clone(ix.records[lib])
}

// Len returns the number of distinct libraries.
func (ix *Index) Len() int {
	return len(ix.order)
}

// TotalRecords returns the number of (library, file) pairs.
func (ix *Index) TotalRecords() int {
	total := 0
	for _, recs := range ix.records {
		total += len(recs)
	}
	return total
}

// Sorted returns the entries by descending usage count. Libraries with the
// same count keep their first-seen order.
func (ix *Index) Sorted() []Entry {
	entries := make([]Entry, 0, len(ix.order))
	for _, lib := range ix.order {
		entries = append(entries, Entry{Library: lib, Records: slices.Clone(ix.records[lib])})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return len(b.Records) - len(a.Records)
	})
	return entries
}

// Missing returns the targets that have no records, in the given order.
func (ix *Index) Missing(targets []string) []string {
	var missing []string
	for _, t := range targets {
		if len(ix.records[t]) == 0 {
			missing = append(missing, t)
		}
	}
	return missing
}
