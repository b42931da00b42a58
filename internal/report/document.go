package report

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// document is the machine-readable shape shared by the JSON and YAML writers.
type document struct {
	Title       string         `json:"title" yaml:"title"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	RunID       string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Root        string         `json:"root,omitempty" yaml:"root,omitempty"`
	Arch        string         `json:"arch,omitempty" yaml:"arch,omitempty"`
	Targets     []string       `json:"targets,omitempty" yaml:"targets,omitempty"`
	Summary     summary        `json:"summary" yaml:"summary"`
	Libraries   []libraryEntry `json:"libraries" yaml:"libraries"`
	Missing     []string       `json:"missing,omitempty" yaml:"missing,omitempty"`
	Skipped     map[string]int `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

type summary struct {
	Libraries    int `json:"libraries" yaml:"libraries"`
	Usages       int `json:"usages" yaml:"usages"`
	FilesScanned int `json:"files_scanned" yaml:"files_scanned"`
	FilesIndexed int `json:"files_indexed" yaml:"files_indexed"`
}

type libraryEntry struct {
	Library     string           `json:"library" yaml:"library"`
	Usages      int              `json:"usages" yaml:"usages"`
	Executables []executableItem `json:"executables" yaml:"executables"`
}

type executableItem struct {
	Path string `json:"path" yaml:"path"`
	Arch string `json:"arch" yaml:"arch"`
}

func (r *Report) document() document {
	doc := document{
		Title:       Title,
		GeneratedAt: r.GeneratedAt,
		RunID:       r.RunID,
		Root:        r.Root,
		Arch:        r.Arch,
		Targets:     r.Targets,
		Summary: summary{
			Libraries:    len(r.Entries),
			Usages:       r.TotalUsages(),
			FilesScanned: r.Stats.Files,
			FilesIndexed: r.Stats.Indexed,
		},
		Libraries: make([]libraryEntry, 0, len(r.Entries)),
		Missing:   r.Missing,
	}
	for _, e := range r.Entries {
		item := libraryEntry{
			Library:     e.Library,
			Usages:      len(e.Records),
			Executables: make([]executableItem, 0, len(e.Records)),
		}
		for _, rec := range e.Records {
			item.Executables = append(item.Executables, executableItem{Path: rec.Path, Arch: rec.ArchLabel()})
		}
		doc.Libraries = append(doc.Libraries, item)
	}
	if len(r.Stats.Skipped) > 0 {
		doc.Skipped = make(map[string]int, len(r.Stats.Skipped))
		for reason, n := range r.Stats.Skipped {
			doc.Skipped[reason.String()] = n
		}
	}
	return doc
}

func (r *Report) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.document())
}

func (r *Report) writeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.document()); err != nil {
		return err
	}
	return enc.Close()
}
