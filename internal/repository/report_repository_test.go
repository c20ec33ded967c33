package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
)

func reportColumns() []string {
	return []string{"id", "periode", "start_date", "end_date", "pemasukan", "pengeluaran", "saldo", "keterangan", "status", "created_by", "created_at", "updated_at"}
}

func TestReportRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(reportColumns()).
		AddRow("r1", "Triwulan I 2025", now, now, int64(1000000), int64(400000), int64(600000), "", "DIAJUKAN", "u1", now, now)
	mock.ExpectQuery("SELECT id, periode, .+ FROM financial_reports WHERE status = \\$1 ORDER BY created_at DESC LIMIT 20").
		WithArgs(models.ReportStatusDiajukan).
		WillReturnRows(rows)

	reports, err := repo.ListByStatus(context.Background(), models.ReportStatusDiajukan, 20)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, int64(600000), reports[0].Saldo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO financial_reports").
		WithArgs(sqlmock.AnyArg(), "Triwulan I 2025", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1000000), int64(400000), int64(600000), "", "DIAJUKAN", "u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.FinancialReport{
		Periode:     "Triwulan I 2025",
		StartDate:   time.Now(),
		EndDate:     time.Now(),
		Pemasukan:   1000000,
		Pengeluaran: 400000,
		Saldo:       600000,
		Status:      models.ReportStatusDiajukan,
		CreatedBy:   "u1",
	}
	require.NoError(t, repo.Create(context.Background(), report))
	assert.NotEmpty(t, report.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE financial_reports SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.ReportStatusDisetujui, sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "r1", models.ReportStatusDisetujui))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM financial_reports WHERE status = $1")).
		WithArgs(models.ReportStatusDiajukan).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountByStatus(context.Background(), models.ReportStatusDiajukan)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
