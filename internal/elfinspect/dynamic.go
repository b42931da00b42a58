package elfinspect

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	dynamicSectionName = ".dynamic"
	dynstrSectionName  = ".dynstr"

	dyn32EntrySize = 8
	dyn64EntrySize = 16

	stringChunkSize = 128
	// maxNameLen bounds how far a string lookup scans for the terminating NUL.
	maxNameLen = 4096
)

// dynEntryKind is the closed set of dynamic entries the extractor acts on.
type dynEntryKind int

const (
	dynIgnored dynEntryKind = iota
	dynEnd
	dynNeeded
	dynSoname
	dynSearchPath
)

var dynEntryKinds = map[elf.DynTag]dynEntryKind{
	elf.DT_NULL:    dynEnd,
	elf.DT_NEEDED:  dynNeeded,
	elf.DT_SONAME:  dynSoname,
	elf.DT_RPATH:   dynSearchPath,
	elf.DT_RUNPATH: dynSearchPath,
}

// kindOfTag never fails: tags outside the table are ignored.
func kindOfTag(tag elf.DynTag) dynEntryKind {
	if k, ok := dynEntryKinds[tag]; ok {
		return k
	}
	return dynIgnored
}

// DynamicInfo holds the dynamic linking metadata extracted from one image.
type DynamicInfo struct {
	// Needed lists DT_NEEDED names in on-disk order.
	Needed []string

	// Soname is the DT_SONAME value, empty for most executables.
	Soname string

	// RunPath holds DT_RUNPATH and DT_RPATH entries split on ':'.
	RunPath []string
}

// ExtractNeeded returns the DT_NEEDED names of the image in on-disk order.
// See ExtractDynamic for error semantics.
func ExtractNeeded(r io.ReaderAt, id Identity) ([]string, error) {
	info, err := ExtractDynamic(r, id)
	return info.Needed, err
}

// ExtractDynamic reads the .dynamic section of a classified image.
//
// Invalid identities and images without .dynamic yield an empty result and a
// nil error. Any returned error is advisory: info always holds every entry
// read before the problem was hit.
func ExtractDynamic(r io.ReaderAt, id Identity) (DynamicInfo, error) {
	var info DynamicInfo
	if !id.Valid {
		return info, nil
	}

	f, err := elf.NewFile(r)
	if err != nil {
		return info, fmt.Errorf("%w: %w", ErrSectionLookup, err)
	}

	dyn := f.Section(dynamicSectionName)
	if dyn == nil || dyn.Type == elf.SHT_NOBITS {
		return info, nil
	}

	strtab := dynamicStringTable(f, dyn)
	if strtab == nil {
		return info, ErrNoDynamicStrings
	}
	strs := stringTable{sr: io.NewSectionReader(r, int64(strtab.Offset), int64(strtab.FileSize))}

	entSize := uint64(dyn64EntrySize)
	if f.Class == elf.ELFCLASS32 {
		entSize = dyn32EntrySize
	}
	count := dyn.FileSize / entSize
	sr := io.NewSectionReader(r, int64(dyn.Offset), int64(dyn.FileSize))
	buf := make([]byte, entSize)

	for i := uint64(0); i < count; i++ {
		if _, err := readFullAt(sr, buf, int64(i*entSize)); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return info, fmt.Errorf("%w: %d of %d entries readable", ErrTruncatedDynamic, i, count)
			}
			return info, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		tag, val := decodeDynEntry(buf, f.Class, f.ByteOrder)
		switch kindOfTag(tag) {
		case dynEnd:
			return info, nil
		case dynNeeded:
			if name, ok := strs.lookup(val); ok {
				info.Needed = append(info.Needed, name)
			}
		case dynSoname:
			if name, ok := strs.lookup(val); ok {
				info.Soname = name
			}
		case dynSearchPath:
			if paths, ok := strs.lookup(val); ok && paths != "" {
				info.RunPath = append(info.RunPath, strings.Split(paths, ":")...)
			}
		case dynIgnored:
		}
	}

	return info, nil
}

// dynamicStringTable prefers the section linked from .dynamic and falls back
// to the section named .dynstr.
func dynamicStringTable(f *elf.File, dyn *elf.Section) *elf.Section {
	if link := int(dyn.Link); link > 0 && link < len(f.Sections) {
		if s := f.Sections[link]; s.Type == elf.SHT_STRTAB {
			return s
		}
	}
	if s := f.Section(dynstrSectionName); s != nil && s.Type == elf.SHT_STRTAB {
		return s
	}
	return nil
}

func decodeDynEntry(buf []byte, class elf.Class, order binary.ByteOrder) (elf.DynTag, uint64) {
	if class == elf.ELFCLASS32 {
		return elf.DynTag(int32(order.Uint32(buf[0:4]))), uint64(order.Uint32(buf[4:8]))
	}
	return elf.DynTag(int64(order.Uint64(buf[0:8]))), order.Uint64(buf[8:16])
}

// stringTable resolves NUL-terminated strings straight from the file
// without loading the whole table.
type stringTable struct {
	sr *io.SectionReader
}

func (t stringTable) lookup(off uint64) (string, bool) {
	size := t.sr.Size()
	if off >= uint64(size) {
		return "", false
	}
	var sb strings.Builder
	var chunk [stringChunkSize]byte
	for pos := int64(off); pos < size && sb.Len() <= maxNameLen; pos += stringChunkSize {
		n, err := t.sr.ReadAt(chunk[:], pos)
		if idx := bytes.IndexByte(chunk[:n], 0); idx >= 0 {
			sb.Write(chunk[:idx])
			return sb.String(), true
		}
		sb.Write(chunk[:n])
		if err != nil {
			return "", false
		}
	}
	return "", false
}
