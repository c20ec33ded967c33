package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReportProducesPDF(t *testing.T) {
	exporter := NewPDFExporter()
	data, err := exporter.RenderReport(ReportDocument{
		OrgCode:   "PSHT",
		Period:    "Triwulan I 2025",
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Income:    1000000,
		Expense:   400000,
		Balance:   600000,
		Remarks:   "Kegiatan rutin",
		Status:    "DISETUJUI",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderReportRequiresPeriod(t *testing.T) {
	exporter := NewPDFExporter()
	_, err := exporter.RenderReport(ReportDocument{})
	assert.Error(t, err)
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 1.000.000", formatRupiah(1000000))
	assert.Equal(t, "Rp 600", formatRupiah(600))
	assert.Equal(t, "-Rp 1.500", formatRupiah(-1500))
}
