package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
)

// ReportRepository handles persistence for accountability reports (LPJ).
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository instantiates a report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// List returns reports matching the provided filters.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.FinancialReport, int, error) {
	base := "FROM financial_reports WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, periode, start_date, end_date, pemasukan, pengeluaran, saldo, keterangan, status, created_by, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)

	var reports []models.FinancialReport
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	return reports, total, nil
}

// ListByStatus returns the most recent reports in the given status, capped
// at limit. Used by the notification aggregator.
func (r *ReportRepository) ListByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]models.FinancialReport, error) {
	query := fmt.Sprintf("SELECT id, periode, start_date, end_date, pemasukan, pengeluaran, saldo, keterangan, status, created_by, created_at, updated_at FROM financial_reports WHERE status = $1 ORDER BY created_at DESC LIMIT %d", limit)
	var reports []models.FinancialReport
	if err := r.db.SelectContext(ctx, &reports, query, status); err != nil {
		return nil, fmt.Errorf("list reports by status: %w", err)
	}
	return reports, nil
}

// CountByStatus returns the total number of reports in the given status.
func (r *ReportRepository) CountByStatus(ctx context.Context, status models.ReportStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM financial_reports WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count reports by status: %w", err)
	}
	return total, nil
}

// FindByID loads a report by identifier.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.FinancialReport, error) {
	const query = `SELECT id, periode, start_date, end_date, pemasukan, pengeluaran, saldo, keterangan, status, created_by, created_at, updated_at FROM financial_reports WHERE id = $1`
	var report models.FinancialReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create inserts a new report.
func (r *ReportRepository) Create(ctx context.Context, report *models.FinancialReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	const query = `INSERT INTO financial_reports (id, periode, start_date, end_date, pemasukan, pengeluaran, saldo, keterangan, status, created_by, created_at, updated_at)
VALUES (:id, :periode, :start_date, :end_date, :pemasukan, :pengeluaran, :saldo, :keterangan, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// Update modifies an existing report.
func (r *ReportRepository) Update(ctx context.Context, report *models.FinancialReport) error {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE financial_reports SET periode = :periode, start_date = :start_date, end_date = :end_date,
pemasukan = :pemasukan, pengeluaran = :pengeluaran, saldo = :saldo, keterangan = :keterangan, status = :status,
updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}

// UpdateStatus sets the report status unconditionally (last writer wins).
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE financial_reports SET status = $1, updated_at = $2 WHERE id = $3", status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	return nil
}

// UpdateStatusCAS sets the report status only when the stored status still
// matches from. Returns false when the precondition failed.
func (r *ReportRepository) UpdateStatusCAS(ctx context.Context, id string, from, to models.ReportStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE financial_reports SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4", to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("update report status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update report status: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM financial_reports WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}
