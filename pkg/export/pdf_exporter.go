package export

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth   = 277.0 // A4 landscape minus margins
	pdfMinColWidth = 18.0
	pdfMaxCellRune = 60
)

// PDFExporter renders datasets as a landscape table, repeating the header row
// on every page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the document. Columns are sized by their longest value.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	records, err := data.Records()
	if err != nil {
		return nil, err
	}
	widths := columnWidths(data.Headers, records)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if title != "" && pdf.PageNo() == 1 {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
			pdf.Ln(3)
		}
		header()
	})
	pdf.AddPage()

	for _, record := range records {
		for i, value := range record {
			pdf.CellFormat(widths[i], 6, tr(truncate(value)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(headers []string, records [][]string) []float64 {
	weights := make([]float64, len(headers))
	var total float64
	for i, h := range headers {
		longest := utf8.RuneCountInString(h)
		for _, record := range records {
			longest = max(longest, min(utf8.RuneCountInString(record[i]), pdfMaxCellRune))
		}
		weights[i] = float64(longest)
		total += weights[i]
	}
	widths := make([]float64, len(headers))
	free := pdfPageWidth - pdfMinColWidth*float64(len(headers))
	for i := range weights {
		widths[i] = pdfMinColWidth
		if free > 0 && total > 0 {
			widths[i] += free * weights[i] / total
		}
	}
	return widths
}

func truncate(value string) string {
	if utf8.RuneCountInString(value) <= pdfMaxCellRune {
		return value
	}
	runes := []rune(value)
	return string(runes[:pdfMaxCellRune-3]) + "..."
}
