package models

import "time"

// ReportStatus enumerates the accountability-report (LPJ) approval states.
// Both DISETUJUI and DITOLAK are terminal; a rejected report is not
// reopened.
type ReportStatus string

const (
	ReportStatusDiajukan  ReportStatus = "DIAJUKAN"
	ReportStatusDisetujui ReportStatus = "DISETUJUI"
	ReportStatusDitolak   ReportStatus = "DITOLAK"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusDiajukan, ReportStatusDisetujui, ReportStatusDitolak:
		return true
	}
	return false
}

// FinancialReport is a periodic accountability report (LPJ). Saldo is never
// stored independently: it is always recomputed as Pemasukan - Pengeluaran.
type FinancialReport struct {
	ID          string       `db:"id" json:"id"`
	Periode     string       `db:"periode" json:"periode"`
	StartDate   time.Time    `db:"start_date" json:"start_date"`
	EndDate     time.Time    `db:"end_date" json:"end_date"`
	Pemasukan   int64        `db:"pemasukan" json:"pemasukan"`
	Pengeluaran int64        `db:"pengeluaran" json:"pengeluaran"`
	Saldo       int64        `db:"saldo" json:"saldo"`
	Keterangan  string       `db:"keterangan" json:"keterangan"`
	Status      ReportStatus `db:"status" json:"status"`
	CreatedBy   string       `db:"created_by" json:"created_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ReportFilter captures filtering criteria for listing reports.
type ReportFilter struct {
	Status   *ReportStatus
	Page     int
	PageSize int
}
