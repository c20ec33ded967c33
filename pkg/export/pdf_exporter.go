package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReportDocument carries the fields rendered into an accountability report
// (LPJ) PDF.
type ReportDocument struct {
	OrgCode   string
	Period    string
	StartDate time.Time
	EndDate   time.Time
	Income    int64
	Expense   int64
	Balance   int64
	Remarks   string
	Status    string
	CreatedAt time.Time
}

// PDFExporter renders accountability reports into a printable PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderReport creates a single-page PDF for the given report.
func (e *PDFExporter) RenderReport(doc ReportDocument) ([]byte, error) {
	if doc.Period == "" {
		return nil, fmt.Errorf("pdf requires a report period")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "LAPORAN PERTANGGUNGJAWABAN KEUANGAN", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, doc.OrgCode, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Periode", doc.Period},
		{"Tanggal", fmt.Sprintf("%s s.d. %s", doc.StartDate.Format("02-01-2006"), doc.EndDate.Format("02-01-2006"))},
		{"Pemasukan", formatRupiah(doc.Income)},
		{"Pengeluaran", formatRupiah(doc.Expense)},
		{"Saldo", formatRupiah(doc.Balance)},
		{"Status", doc.Status},
	}

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(130, 8, row[1], "1", 1, "", false, 0, "")
	}

	if doc.Remarks != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, "Keterangan", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(180, 6, doc.Remarks, "1", "", false)
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Dibuat %s", doc.CreatedAt.Format("02-01-2006 15:04")), "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, d)
	}
	return fmt.Sprintf("%sRp %s", sign, string(out))
}
