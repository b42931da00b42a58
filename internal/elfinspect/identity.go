package elfinspect

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// elfMagicStr is the ELF magic number string literal.
const elfMagicStr = "\x7fELF"

// elfMagic is the ELF magic number bytes.
var elfMagic = []byte(elfMagicStr)

// elfMagicLen is the number of bytes in the ELF magic number.
const elfMagicLen = len(elfMagicStr)

// ObjectKind is the coarse object type derived from e_type.
type ObjectKind int

const (
	// KindNotELF is used for anything that is not a trustworthy ELF image.
	KindNotELF ObjectKind = iota

	// KindExecutable is ET_EXEC: a statically or dynamically linked executable.
	KindExecutable

	// KindSharedOrPIE is ET_DYN: a shared object or a position-independent executable.
	KindSharedOrPIE

	// KindOther covers every other e_type (relocatable objects, core dumps, ...).
	KindOther
)

// String returns a string representation of ObjectKind.
func (k ObjectKind) String() string {
	switch k {
	case KindNotELF:
		return "not_elf"
	case KindExecutable:
		return "executable"
	case KindSharedOrPIE:
		return "shared_or_pie"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Identity is what Classify learns from the ELF header.
type Identity struct {
	Kind    ObjectKind
	Machine elf.Machine
	Class   elf.Class
	Data    elf.Data
	Valid   bool
}

// IsLoadable reports whether the image is an executable or a shared/PIE image.
func (id Identity) IsLoadable() bool {
	return id.Valid && (id.Kind == KindExecutable || id.Kind == KindSharedOrPIE)
}

// ByteOrder returns the byte order declared by the header, or nil when the
// identity is not valid.
func (id Identity) ByteOrder() binary.ByteOrder {
	switch id.Data {
	case elf.ELFDATA2LSB:
		return binary.LittleEndian
	case elf.ELFDATA2MSB:
		return binary.BigEndian
	default:
		return nil
	}
}

// Classify reads the ELF header from r.
//
// Input that does not start with the ELF magic number yields KindNotELF and a
// nil error after a single four byte read. A header that cannot be decoded
// yields Valid=false and an error wrapping ErrMalformedHeader or ErrReadFailed.
func Classify(r io.ReaderAt) (Identity, error) {
	magic := make([]byte, elfMagicLen)
	if _, err := readFullAt(r, magic, 0); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// Shorter than the magic number: cannot be ELF.
			return Identity{Kind: KindNotELF}, nil
		}
		return Identity{Kind: KindNotELF}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if !isELFMagic(magic) {
		return Identity{Kind: KindNotELF}, nil
	}

	var ident [elf.EI_NIDENT]byte
	if _, err := readFullAt(r, ident[:], 0); err != nil {
		return Identity{Kind: KindNotELF}, headerReadError(err)
	}

	id := Identity{
		Class: elf.Class(ident[elf.EI_CLASS]),
		Data:  elf.Data(ident[elf.EI_DATA]),
	}
	order := id.ByteOrder()
	if order == nil {
		return Identity{Kind: KindNotELF}, &HeaderError{Field: "data encoding", Value: id.Data}
	}
	if v := elf.Version(ident[elf.EI_VERSION]); v != elf.EV_CURRENT {
		return Identity{Kind: KindNotELF}, &HeaderError{Field: "version", Value: v}
	}

	var (
		typ       elf.Type
		version   uint32
		ehsize    int
		shnum     int
		shentsize int
		wantEh    int
		wantSh    int
	)
	switch id.Class {
	case elf.ELFCLASS32:
		var hdr elf.Header32
		if err := readStructAt(r, order, &hdr); err != nil {
			return Identity{Kind: KindNotELF}, headerReadError(err)
		}
		typ, id.Machine, version = elf.Type(hdr.Type), elf.Machine(hdr.Machine), hdr.Version
		ehsize, shnum, shentsize = int(hdr.Ehsize), int(hdr.Shnum), int(hdr.Shentsize)
		wantEh, wantSh = binary.Size(hdr), binary.Size(elf.Section32{})
	case elf.ELFCLASS64:
		var hdr elf.Header64
		if err := readStructAt(r, order, &hdr); err != nil {
			return Identity{Kind: KindNotELF}, headerReadError(err)
		}
		typ, id.Machine, version = elf.Type(hdr.Type), elf.Machine(hdr.Machine), hdr.Version
		ehsize, shnum, shentsize = int(hdr.Ehsize), int(hdr.Shnum), int(hdr.Shentsize)
		wantEh, wantSh = binary.Size(hdr), binary.Size(elf.Section64{})
	default:
		return Identity{Kind: KindNotELF}, &HeaderError{Field: "class", Value: id.Class}
	}

	if elf.Version(version) != elf.EV_CURRENT {
		return Identity{Kind: KindNotELF}, &HeaderError{Field: "header version", Value: version}
	}
	if ehsize < wantEh {
		return Identity{Kind: KindNotELF}, &HeaderError{Field: "header size", Value: ehsize}
	}
	if shnum > 0 && shentsize < wantSh {
		return Identity{Kind: KindNotELF}, &HeaderError{Field: "section header entry size", Value: shentsize}
	}

	id.Kind = kindOf(typ)
	id.Valid = true
	return id, nil
}

func kindOf(typ elf.Type) ObjectKind {
	switch typ {
	case elf.ET_EXEC:
		return KindExecutable
	case elf.ET_DYN:
		return KindSharedOrPIE
	default:
		return KindOther
	}
}

// isELFMagic checks if the given bytes match the ELF magic number.
func isELFMagic(magic []byte) bool {
	if len(magic) < elfMagicLen {
		return false
	}
	return bytes.Equal(magic[:elfMagicLen], elfMagic)
}

// headerReadError maps a failed header read onto the error taxonomy:
// running out of bytes is a malformed header, anything else an I/O failure.
func headerReadError(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated header: %w", ErrMalformedHeader, err)
	}
	return fmt.Errorf("%w: %w", ErrReadFailed, err)
}

// readFullAt fills buf from r at off. A short read is reported as
// io.ErrUnexpectedEOF; an io.EOF that accompanies a full buffer is dropped.
func readFullAt(r io.ReaderAt, buf []byte, off int64) (int, error) {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return n, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// readStructAt decodes a fixed-size header located at offset 0.
func readStructAt(r io.ReaderAt, order binary.ByteOrder, v any) error {
	buf := make([]byte, binary.Size(v))
	if _, err := readFullAt(r, buf, 0); err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), order, v)
}
