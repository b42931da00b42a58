package elfinspect

import (
	"debug/elf"
	"fmt"
	"strings"
)

// UnknownArchLabel is shown for machine tags outside the supported set.
const UnknownArchLabel = "unknown"

// ArchFilter restricts a scan to one architecture.
type ArchFilter int

const (
	// ArchAll disables architecture filtering.
	ArchAll ArchFilter = iota
	// ArchX86 selects EM_386.
	ArchX86
	// ArchX86_64 selects EM_X86_64.
	ArchX86_64
	// ArchARMv7 selects EM_ARM.
	ArchARMv7
	// ArchAArch64 selects EM_AARCH64.
	ArchAArch64
)

type archEntry struct {
	filter  ArchFilter
	name    string
	machine elf.Machine
}

// archTable is built once during package initialization and only read
// afterwards. Order is the order names are listed in help output.
type archTable struct {
	entries   []archEntry
	byName    map[string]archEntry
	byFilter  map[ArchFilter]archEntry
	byMachine map[elf.Machine]archEntry
}

func newArchTable(entries ...archEntry) *archTable {
	t := &archTable{
		entries:   entries,
		byName:    make(map[string]archEntry, len(entries)),
		byFilter:  make(map[ArchFilter]archEntry, len(entries)),
		byMachine: make(map[elf.Machine]archEntry, len(entries)),
	}
	for _, e := range entries {
		t.byName[e.name] = e
		t.byFilter[e.filter] = e
		t.byMachine[e.machine] = e
	}
	return t
}

var architectures = newArchTable(
	archEntry{filter: ArchX86, name: "x86", machine: elf.EM_386},
	archEntry{filter: ArchX86_64, name: "x86_64", machine: elf.EM_X86_64},
	archEntry{filter: ArchARMv7, name: "armv7", machine: elf.EM_ARM},
	archEntry{filter: ArchAArch64, name: "aarch64", machine: elf.EM_AARCH64},
)

const archAllName = "all"

// ParseArchFilter parses one of x86, x86_64, armv7, aarch64 or all.
func ParseArchFilter(name string) (ArchFilter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == archAllName {
		return ArchAll, nil
	}
	if e, ok := architectures.byName[name]; ok {
		return e.filter, nil
	}
	return ArchAll, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownArchitecture, name, strings.Join(ArchNames(), ", "))
}

// ArchNames lists the accepted filter names, "all" last.
func ArchNames() []string {
	names := make([]string, 0, len(architectures.entries)+1)
	for _, e := range architectures.entries {
		names = append(names, e.name)
	}
	return append(names, archAllName)
}

// String returns the filter name as accepted by ParseArchFilter.
func (f ArchFilter) String() string {
	if f == ArchAll {
		return archAllName
	}
	if e, ok := architectures.byFilter[f]; ok {
		return e.name
	}
	return fmt.Sprintf("ArchFilter(%d)", int(f))
}

// Machine returns the machine tag selected by the filter. ok is false for ArchAll.
func (f ArchFilter) Machine() (m elf.Machine, ok bool) {
	e, ok := architectures.byFilter[f]
	return e.machine, ok
}

// Matches reports whether a file with machine tag m passes the filter.
func (f ArchFilter) Matches(m elf.Machine) bool {
	want, ok := f.Machine()
	if !ok {
		return true
	}
	return m == want
}

// MachineLabel returns the human-readable architecture name for m.
func MachineLabel(m elf.Machine) string {
	if e, ok := architectures.byMachine[m]; ok {
		return e.name
	}
	return UnknownArchLabel
}
