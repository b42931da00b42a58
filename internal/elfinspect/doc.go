// Package elfinspect classifies ELF images and extracts their declared
// shared library dependencies.
//
// The package works on any io.ReaderAt and never writes to it. It is split
// in two steps that mirror what a scanner needs:
//
//	id, err := elfinspect.Classify(f)
//	if !id.Valid {
//	    return // not ELF, or a header that cannot be trusted
//	}
//	needed, err := elfinspect.ExtractNeeded(f, id)
//
// Classify only looks at the ELF header and rejects non-ELF input after
// reading four bytes. ExtractNeeded walks the section header table, finds
// the section named .dynamic and resolves DT_NEEDED entries through the
// dynamic string table.
//
// # Damaged input
//
// Both steps tolerate truncated or corrupted files. Classify reports
// problems as Valid=false with an error wrapping ErrMalformedHeader or
// ErrReadFailed. ExtractNeeded always returns the names it could read;
// its error is advisory (ErrSectionLookup, ErrNoDynamicStrings,
// ErrTruncatedDynamic) and never means the result must be discarded.
package elfinspect
