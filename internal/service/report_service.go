package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/padepokan-dev/silat-admin-api/internal/authz"
	"github.com/padepokan-dev/silat-admin-api/internal/models"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
	"github.com/padepokan-dev/silat-admin-api/pkg/export"
	"github.com/padepokan-dev/silat-admin-api/pkg/resilience"
)

type reportRepository interface {
	List(ctx context.Context, filter models.ReportFilter) ([]models.FinancialReport, int, error)
	FindByID(ctx context.Context, id string) (*models.FinancialReport, error)
	Create(ctx context.Context, report *models.FinancialReport) error
	Update(ctx context.Context, report *models.FinancialReport) error
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus) error
	UpdateStatusCAS(ctx context.Context, id string, from, to models.ReportStatus) (bool, error)
	Delete(ctx context.Context, id string) error
}

type reportExporter interface {
	RenderReport(doc export.ReportDocument) ([]byte, error)
}

// ReportService drives the accountability-report (LPJ) approval workflow.
type ReportService struct {
	repo      reportRepository
	runner    *resilience.Runner
	exporter  reportExporter
	validator *validator.Validate
	logger    *zap.Logger
	orgCode   string
	enableCAS bool
}

// NewReportService constructs the service.
func NewReportService(repo reportRepository, runner *resilience.Runner, exporter reportExporter, validate *validator.Validate, logger *zap.Logger, orgCode string, enableCAS bool) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:      repo,
		runner:    runner,
		exporter:  exporter,
		validator: validate,
		logger:    logger,
		orgCode:   orgCode,
		enableCAS: enableCAS,
	}
}

// CreateReportRequest describes the create payload.
type CreateReportRequest struct {
	Periode     string    `json:"periode" validate:"required"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	Pemasukan   int64     `json:"pemasukan" validate:"gte=0"`
	Pengeluaran int64     `json:"pengeluaran" validate:"gte=0"`
	Keterangan  string    `json:"keterangan"`
}

// UpdateReportRequest describes the update payload. Totals are optional;
// the balance is recomputed from the effective values.
type UpdateReportRequest struct {
	Periode     *string    `json:"periode"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Pemasukan   *int64     `json:"pemasukan" validate:"omitempty,gte=0"`
	Pengeluaran *int64     `json:"pengeluaran" validate:"omitempty,gte=0"`
	Keterangan  *string    `json:"keterangan"`
}

// Create submits a new report. Status is fixed to DIAJUKAN and the balance
// is computed as income minus expense.
func (s *ReportService) Create(ctx context.Context, req CreateReportRequest, claims *models.JWTClaims) (*models.FinancialReport, error) {
	if err := authz.Require(claims.Role, authz.ActionReportWrite); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}

	report := &models.FinancialReport{
		Periode:     req.Periode,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Pemasukan:   req.Pemasukan,
		Pengeluaran: req.Pengeluaran,
		Saldo:       req.Pemasukan - req.Pengeluaran,
		Keterangan:  req.Keterangan,
		Status:      models.ReportStatusDiajukan,
		CreatedBy:   claims.UserID,
	}

	if err := s.runner.Do(ctx, "report.create", func(ctx context.Context) error {
		return s.repo.Create(ctx, report)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("report submitted",
		zap.String("report_id", report.ID),
		zap.String("periode", report.Periode),
		zap.String("created_by", claims.UserID),
	)
	return report, nil
}

// List returns reports matching the filter.
func (s *ReportService) List(ctx context.Context, filter models.ReportFilter, claims *models.JWTClaims) ([]models.FinancialReport, *models.Pagination, error) {
	if err := authz.Require(claims.Role, authz.ActionReportWrite); err != nil {
		return nil, nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	var reports []models.FinancialReport
	var total int
	if err := s.runner.Do(ctx, "report.list", func(ctx context.Context) error {
		var err error
		reports, total, err = s.repo.List(ctx, filter)
		return err
	}); err != nil {
		return nil, nil, err
	}

	return reports, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get loads one report.
func (s *ReportService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.FinancialReport, error) {
	if err := authz.Require(claims.Role, authz.ActionReportWrite); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Update modifies remarks, period or totals. When either total changes the
// balance is recomputed from the effective totals, never from the stored
// balance. Status cannot change through this path.
func (s *ReportService) Update(ctx context.Context, id string, req UpdateReportRequest, claims *models.JWTClaims) (*models.FinancialReport, error) {
	if err := authz.Require(claims.Role, authz.ActionReportWrite); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Periode != nil {
		report.Periode = *req.Periode
	}
	if req.StartDate != nil {
		report.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		report.EndDate = *req.EndDate
	}
	if req.Pemasukan != nil {
		report.Pemasukan = *req.Pemasukan
	}
	if req.Pengeluaran != nil {
		report.Pengeluaran = *req.Pengeluaran
	}
	if req.Keterangan != nil {
		report.Keterangan = *req.Keterangan
	}
	report.Saldo = report.Pemasukan - report.Pengeluaran

	if err := s.runner.Do(ctx, "report.update", func(ctx context.Context) error {
		return s.repo.Update(ctx, report)
	}); err != nil {
		return nil, err
	}

	return report, nil
}

// Transition approves or rejects a submitted report. Both outcomes are
// terminal; a rejected report is not reopened.
func (s *ReportService) Transition(ctx context.Context, id string, target models.ReportStatus, claims *models.JWTClaims) (*models.FinancialReport, error) {
	if target != models.ReportStatusDisetujui && target != models.ReportStatusDitolak {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown decision %q", target))
	}
	if err := authz.Require(claims.Role, authz.ActionReportApprove); err != nil {
		return nil, err
	}

	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusDiajukan {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("report is already %s", report.Status))
	}

	if err := s.runner.Do(ctx, "report.transition", func(ctx context.Context) error {
		if s.enableCAS {
			swapped, err := s.repo.UpdateStatusCAS(ctx, report.ID, models.ReportStatusDiajukan, target)
			if err != nil {
				return err
			}
			if !swapped {
				return appErrors.Clone(appErrors.ErrConflict, "report was decided concurrently")
			}
			return nil
		}
		return s.repo.UpdateStatus(ctx, report.ID, target)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("report decided",
		zap.String("report_id", report.ID),
		zap.String("status", string(target)),
		zap.String("decided_by", claims.UserID),
	)
	report.Status = target
	return report, nil
}

// Delete removes a report. The owner or MASTER_ADMIN may delete; once a
// report is approved, BENDAHARA is blocked even as owner.
func (s *ReportService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	report, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if claims.UserID != report.CreatedBy && claims.Role != models.RoleMasterAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner or MASTER_ADMIN may delete a report")
	}
	if report.Status == models.ReportStatusDisetujui && !authz.CanDeleteApprovedReport(claims.Role) {
		return appErrors.Clone(appErrors.ErrForbidden, "approved reports cannot be deleted by BENDAHARA")
	}

	return s.runner.Do(ctx, "report.delete", func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}

// RenderPDF exports a report as a printable PDF.
func (s *ReportService) RenderPDF(ctx context.Context, id string, claims *models.JWTClaims) ([]byte, string, error) {
	report, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, "", err
	}

	data, err := s.exporter.RenderReport(export.ReportDocument{
		OrgCode:   s.orgCode,
		Period:    report.Periode,
		StartDate: report.StartDate,
		EndDate:   report.EndDate,
		Income:    report.Pemasukan,
		Expense:   report.Pengeluaran,
		Balance:   report.Saldo,
		Remarks:   report.Keterangan,
		Status:    string(report.Status),
		CreatedAt: report.CreatedAt,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report pdf")
	}

	filename := fmt.Sprintf("lpj-%s.pdf", report.ID)
	return data, filename, nil
}

func (s *ReportService) find(ctx context.Context, id string) (*models.FinancialReport, error) {
	var report *models.FinancialReport
	if err := s.runner.Do(ctx, "report.find", func(ctx context.Context) error {
		var err error
		report, err = s.repo.FindByID(ctx, id)
		return err
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, err
	}
	return report, nil
}
