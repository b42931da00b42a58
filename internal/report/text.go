package report

import (
	"bufio"
	"fmt"
	"io"
)

func (r *Report) writeText(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n===========\n\n", Title)
	fmt.Fprintf(bw, "Generated on: %s\n\n", r.GeneratedAt.Format(timestampLayout))

	fmt.Fprintln(bw, "Summary:")
	fmt.Fprintf(bw, "Total libraries found: %d\n", len(r.Entries))
	fmt.Fprintf(bw, "Total executables analyzed: %d\n\n", r.TotalUsages())

	fmt.Fprintln(bw, "Detailed Report:")
	fmt.Fprint(bw, "--------------\n\n")

	for _, e := range r.Entries {
		fmt.Fprintf(bw, "Library: %s\n", e.Library)
		fmt.Fprintf(bw, "Total usages: %d\n", len(e.Records))
		fmt.Fprintln(bw, "Executables:")
		for _, rec := range e.Records {
			fmt.Fprintf(bw, "  - %s (%s)\n", rec.Path, rec.ArchLabel())
		}
		fmt.Fprintln(bw)
	}

	if len(r.Missing) > 0 {
		fmt.Fprintln(bw, "Libraries with no usages:")
		for _, lib := range r.Missing {
			fmt.Fprintf(bw, "  - %s\n", lib)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}
