package usage

import (
	"fmt"

	"github.com/isseis/bldd/internal/elfinspect"
)

// SkipReason records why a file contributed no records.
type SkipReason int

const (
	// SkipNone means the file was inspected and its dependencies indexed.
	SkipNone SkipReason = iota
	// SkipNotELF means the file does not start with the ELF magic.
	SkipNotELF
	// SkipMalformed means the ELF header could not be decoded.
	SkipMalformed
	// SkipUnsupportedType means a valid ELF that is neither an executable
	// nor a shared object (relocatable objects, core dumps).
	SkipUnsupportedType
	// SkipArchMismatch means the machine tag did not match the filter.
	SkipArchMismatch
	// SkipIOFailure means the file could not be opened or read.
	SkipIOFailure
)

var skipReasonNames = [...]string{
	SkipNone:            "none",
	SkipNotELF:          "not_elf",
	SkipMalformed:       "malformed",
	SkipUnsupportedType: "unsupported_type",
	SkipArchMismatch:    "arch_mismatch",
	SkipIOFailure:       "io_failure",
}

func (r SkipReason) String() string {
	if r >= 0 && int(r) < len(skipReasonNames) {
		return skipReasonNames[r]
	}
	return fmt.Sprintf("SkipReason(%d)", int(r))
}

// FileResult is the outcome of inspecting one file.
//
// Err holds the cause of a skip, or an advisory extraction error when Skip
// is SkipNone (truncated .dynamic, missing string table). In the advisory
// case Needed holds whatever was recovered.
type FileResult struct {
	Path     string
	Identity elfinspect.Identity
	Needed   []string
	Soname   string
	RunPath  []string
	Skip     SkipReason
	Err      error
}

// Indexed reports whether the file passed classification and filtering.
func (r FileResult) Indexed() bool {
	return r.Skip == SkipNone
}

// Stats summarizes one aggregation run.
type Stats struct {
	Files    int
	Indexed  int
	Warnings int
	Skipped  map[SkipReason]int
}

// SkippedTotal returns the number of files skipped for any reason.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

func (s *Stats) add(r FileResult) {
	s.Files++
	if r.Skip != SkipNone {
		if s.Skipped == nil {
			s.Skipped = make(map[SkipReason]int)
		}
		s.Skipped[r.Skip]++
		return
	}
	s.Indexed++
	if r.Err != nil {
		s.Warnings++
	}
}
