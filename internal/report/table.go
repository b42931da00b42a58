package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

func (r *Report) writeTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Library", "Usages", "Executable", "Arch"})
	table.SetAutoMergeCells(true)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)

	for _, e := range r.Entries {
		count := strconv.Itoa(len(e.Records))
		for _, rec := range e.Records {
			table.Append([]string{e.Library, count, rec.Path, rec.ArchLabel()})
		}
	}
	for _, lib := range r.Missing {
		table.Append([]string{lib, "0", "", ""})
	}
	table.SetFooter([]string{"Total", strconv.Itoa(r.TotalUsages()), "", ""})
	table.Render()
	return nil
}
