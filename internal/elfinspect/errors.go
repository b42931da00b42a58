package elfinspect

import (
	"errors"
	"fmt"
)

// Static errors
var (
	// ErrMalformedHeader indicates the file starts with the ELF magic number
	// but its identification bytes or header fields are inconsistent.
	ErrMalformedHeader = errors.New("malformed ELF header")

	// ErrReadFailed indicates an I/O error while reading the header.
	ErrReadFailed = errors.New("failed to read ELF data")

	// ErrSectionLookup indicates the section header table could not be read.
	// The file is treated as having no dependencies.
	ErrSectionLookup = errors.New("section header table unreadable")

	// ErrNoDynamicStrings indicates .dynamic exists but no string table
	// could be resolved for it.
	ErrNoDynamicStrings = errors.New("dynamic string table not found")

	// ErrTruncatedDynamic indicates .dynamic ended before its declared size.
	// Entries read before the truncation point are still returned.
	ErrTruncatedDynamic = errors.New("dynamic section truncated")

	// ErrUnknownArchitecture is returned by ParseArchFilter for names
	// outside the supported set.
	ErrUnknownArchitecture = errors.New("unknown architecture")
)

// HeaderError describes which header field made the file unusable.
type HeaderError struct {
	Field string
	Value any
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%s: invalid %s %v", ErrMalformedHeader, e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrMalformedHeader.
func (e *HeaderError) Unwrap() error {
	return ErrMalformedHeader
}
