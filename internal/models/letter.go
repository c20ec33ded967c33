package models

import "time"

// LetterStatus enumerates the outgoing-letter validation workflow states.
type LetterStatus string

const (
	LetterStatusDraft            LetterStatus = "DRAFT"
	LetterStatusMenungguValidasi LetterStatus = "MENUNGGU_VALIDASI"
	LetterStatusValidasi         LetterStatus = "VALIDASI"
	LetterStatusDitolak          LetterStatus = "DITOLAK"
)

// Valid reports whether s is a known letter status.
func (s LetterStatus) Valid() bool {
	switch s {
	case LetterStatusDraft, LetterStatusMenungguValidasi, LetterStatusValidasi, LetterStatusDitolak:
		return true
	}
	return false
}

// Letter is an outgoing correspondence record subject to the validation
// workflow. Nomor is unique per calendar year.
type Letter struct {
	ID           string       `db:"id" json:"id"`
	Nomor        string       `db:"nomor" json:"nomor"`
	JenisSurat   string       `db:"jenis_surat" json:"jenis_surat"`
	Perihal      string       `db:"perihal" json:"perihal"`
	Tujuan       string       `db:"tujuan" json:"tujuan"`
	Isi          string       `db:"isi" json:"isi"`
	TanggalSurat time.Time    `db:"tanggal_surat" json:"tanggal_surat"`
	Status       LetterStatus `db:"status" json:"status"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// LetterFilter captures filtering criteria for listing letters.
type LetterFilter struct {
	Status   *LetterStatus
	Jenis    string
	Search   string
	Page     int
	PageSize int
}
