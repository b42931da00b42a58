//go:build test

// Package elfinspecttesting provides test helpers for the elfinspect package.
package elfinspecttesting

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Options describes a synthetic ELF image. Zero values select a 64-bit
// little-endian x86_64 executable with an empty .dynamic section.
type Options struct {
	Class   elf.Class
	Data    elf.Data
	Type    elf.Type
	Machine elf.Machine

	// Needed is written as DT_NEEDED entries in this order.
	Needed  []string
	Soname  string
	RunPath string

	// NoDynamic omits the .dynamic section, like a static binary.
	NoDynamic bool

	// NoDynstr omits .dynstr and leaves sh_link of .dynamic at zero.
	NoDynstr bool
}

// Image is a built ELF file.
type Image struct {
	Bytes []byte

	// DynamicOffset is the file offset of .dynamic, or -1 when absent.
	// The section is always the last thing in the file.
	DynamicOffset int

	// DynamicEntrySize is 8 for ELFCLASS32 and 16 for ELFCLASS64.
	DynamicEntrySize int
}

// TruncatedAfter returns the image cut inside .dynamic after the given
// number of entry halves (3 halves = 1.5 entries).
func (img Image) TruncatedAfter(halves int) []byte {
	cut := img.DynamicOffset + halves*img.DynamicEntrySize/2
	return bytes.Clone(img.Bytes[:cut])
}

type strtab struct {
	buf bytes.Buffer
}

func newStrtab() *strtab {
	t := &strtab{}
	t.buf.WriteByte(0)
	return t
}

func (t *strtab) add(s string) uint32 {
	off := uint32(t.buf.Len()) //nolint:gosec // test data stays tiny
	t.buf.WriteString(s)
	t.buf.WriteByte(0)
	return off
}

type section struct {
	name    uint32
	typ     elf.SectionType
	off     int
	size    int
	link    uint32
	entsize int
}

// Build lays out: ELF header, .shstrtab, .dynstr, section headers, .dynamic.
func Build(opts Options) Image {
	if opts.Class == elf.ELFCLASSNONE {
		opts.Class = elf.ELFCLASS64
	}
	if opts.Data == elf.ELFDATANONE {
		opts.Data = elf.ELFDATA2LSB
	}
	if opts.Type == elf.ET_NONE {
		opts.Type = elf.ET_EXEC
	}
	if opts.Machine == elf.EM_NONE {
		opts.Machine = elf.EM_X86_64
	}
	var order binary.ByteOrder = binary.LittleEndian
	if opts.Data == elf.ELFDATA2MSB {
		order = binary.BigEndian
	}
	is32 := opts.Class == elf.ELFCLASS32

	headerSize, shentsize, dynentsize := 64, 64, 16
	if is32 {
		headerSize, shentsize, dynentsize = 52, 40, 8
	}

	names := newStrtab()
	shstrtabName := names.add(".shstrtab")
	dynstrName := names.add(".dynstr")
	dynamicName := names.add(".dynamic")

	strs := newStrtab()
	type entry struct {
		tag elf.DynTag
		val uint32
	}
	var entries []entry
	for _, n := range opts.Needed {
		entries = append(entries, entry{elf.DT_NEEDED, strs.add(n)})
	}
	if opts.Soname != "" {
		entries = append(entries, entry{elf.DT_SONAME, strs.add(opts.Soname)})
	}
	if opts.RunPath != "" {
		entries = append(entries, entry{elf.DT_RUNPATH, strs.add(opts.RunPath)})
	}
	// An unrelated tag must be skipped by the extractor.
	entries = append(entries, entry{elf.DT_FLAGS, 0}, entry{elf.DT_NULL, 0})

	shstrOff := headerSize
	dynstrOff := shstrOff + names.buf.Len()
	shoff := align8(dynstrOff + strs.buf.Len())

	sections := []section{
		{},
		{name: shstrtabName, typ: elf.SHT_STRTAB, off: shstrOff, size: names.buf.Len()},
	}
	var dynstrIdx uint32
	if !opts.NoDynstr {
		dynstrIdx = uint32(len(sections)) //nolint:gosec // at most four sections
		sections = append(sections, section{name: dynstrName, typ: elf.SHT_STRTAB, off: dynstrOff, size: strs.buf.Len()})
	}
	dynOff := shoff + (len(sections)+1)*shentsize
	if opts.NoDynamic {
		dynOff = -1
	} else {
		sections = append(sections, section{
			name:    dynamicName,
			typ:     elf.SHT_DYNAMIC,
			off:     dynOff,
			size:    len(entries) * dynentsize,
			link:    dynstrIdx,
			entsize: dynentsize,
		})
	}

	var buf bytes.Buffer
	var ident [elf.EI_NIDENT]byte
	copy(ident[:], "\x7fELF")
	ident[elf.EI_CLASS] = byte(opts.Class)
	ident[elf.EI_DATA] = byte(opts.Data)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	write := func(v any) {
		if err := binary.Write(&buf, order, v); err != nil {
			panic(err)
		}
	}

	if is32 {
		write(&elf.Header32{
			Ident: ident, Type: uint16(opts.Type), Machine: uint16(opts.Machine),
			Version: uint32(elf.EV_CURRENT), Shoff: uint32(shoff), //nolint:gosec // small offsets
			Ehsize: uint16(headerSize), Shentsize: uint16(shentsize), //nolint:gosec // constants
			Shnum: uint16(len(sections)), Shstrndx: 1, //nolint:gosec // at most four sections
		})
	} else {
		write(&elf.Header64{
			Ident: ident, Type: uint16(opts.Type), Machine: uint16(opts.Machine),
			Version: uint32(elf.EV_CURRENT), Shoff: uint64(shoff), //nolint:gosec // small offsets
			Ehsize: uint16(headerSize), Shentsize: uint16(shentsize), //nolint:gosec // constants
			Shnum: uint16(len(sections)), Shstrndx: 1, //nolint:gosec // at most four sections
		})
	}
	buf.Write(names.buf.Bytes())
	buf.Write(strs.buf.Bytes())
	buf.Write(make([]byte, shoff-buf.Len()))

	for _, s := range sections {
		if is32 {
			write(&elf.Section32{
				Name: s.name, Type: uint32(s.typ), Off: uint32(s.off), Size: uint32(s.size), //nolint:gosec // small values
				Link: s.link, Entsize: uint32(s.entsize), //nolint:gosec // small values
			})
		} else {
			write(&elf.Section64{
				Name: s.name, Type: uint32(s.typ), Off: uint64(s.off), Size: uint64(s.size), //nolint:gosec // small values
				Link: s.link, Entsize: uint64(s.entsize), //nolint:gosec // small values
			})
		}
	}

	if !opts.NoDynamic {
		for _, e := range entries {
			if is32 {
				write(&elf.Dyn32{Tag: int32(e.tag), Val: e.val})
			} else {
				write(&elf.Dyn64{Tag: int64(e.tag), Val: uint64(e.val)})
			}
		}
	}

	return Image{Bytes: buf.Bytes(), DynamicOffset: dynOff, DynamicEntrySize: dynentsize}
}

// WriteFile builds an image and writes it to path.
func WriteFile(t *testing.T, path string, opts Options) Image {
	t.Helper()

	img := Build(opts)
	err := os.WriteFile(path, img.Bytes, 0o644) //nolint:gosec // test helper: 0644 is intentional for test files
	require.NoError(t, err)
	return img
}

func align8(n int) int {
	return (n + 7) &^ 7
}
