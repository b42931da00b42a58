package report

import (
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 6.0
)

func (r *Report) writePDF(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(Title, true)
	pdf.SetCreator("bldd", true)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetCompression(false)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	heading := func(size float64, text string) {
		pdf.SetFont(pdfFont, "B", size)
		pdf.MultiCell(0, size/2, tr(text), "", "L", false)
		pdf.Ln(2)
	}
	line := func(text string) {
		pdf.SetFont(pdfFont, "", 10)
		pdf.MultiCell(0, pdfLineHeight, tr(text), "", "L", false)
	}

	heading(20, Title)
	line("Generated on: " + r.GeneratedAt.Format(timestampLayout))
	pdf.Ln(4)

	heading(16, "Summary")
	line(fmt.Sprintf("Total libraries found: %d", len(r.Entries)))
	line(fmt.Sprintf("Total executables analyzed: %d", r.TotalUsages()))
	pdf.Ln(4)

	heading(16, "Detailed Report")
	for _, e := range r.Entries {
		heading(13, fmt.Sprintf("%s - %d usages", e.Library, len(e.Records)))
		for _, rec := range e.Records {
			line(fmt.Sprintf("%s (%s)", rec.Path, rec.ArchLabel()))
		}
		pdf.Ln(4)
	}

	if len(r.Missing) > 0 {
		heading(16, "Libraries with no usages")
		for _, lib := range r.Missing {
			line(lib)
		}
	}

	return pdf.Output(w)
}
