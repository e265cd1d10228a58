package export

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// Page geometry in points on a US Letter page (612 x 792).
const (
	pageSize     = "Letter"
	fontFamily   = "Helvetica"
	fontSize     = 12
	marginLeft   = 50.0
	marginTop    = 50.0
	marginBottom = 50.0
	lineHeight   = 15.0
)

// EncodePDF draws one line of text per input line, top to bottom, starting a
// new page whenever the next baseline would fall below the bottom margin.
// Lines are neither wrapped nor truncated. It returns the page count.
func EncodePDF(w io.Writer, text string) (int, error) {
	pdf := fpdf.New("P", "pt", pageSize, "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("docfill", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	_, pageHeight := pdf.GetPageSize()
	limit := pageHeight - marginBottom

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", fontSize)
	y := marginTop
	for _, line := range lines(text) {
		if y > limit {
			pdf.AddPage()
			pdf.SetFont(fontFamily, "", fontSize)
			y = marginTop
		}
		pdf.Text(marginLeft, y, tr(line))
		y += lineHeight
	}

	if err := pdf.Output(w); err != nil {
		return 0, err
	}
	return pdf.PageNo(), nil
}

// LinesPerPage is the number of lines EncodePDF fits on one page.
func LinesPerPage() int {
	_, pageHeight := fpdf.New("P", "pt", pageSize, "").GetPageSize()
	return int((pageHeight-marginBottom-marginTop)/lineHeight) + 1
}
