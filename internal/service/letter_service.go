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
	"github.com/padepokan-dev/silat-admin-api/pkg/resilience"
)

type letterRepository interface {
	List(ctx context.Context, filter models.LetterFilter) ([]models.Letter, int, error)
	CountInYear(ctx context.Context, year int) (int, error)
	FindByID(ctx context.Context, id string) (*models.Letter, error)
	Create(ctx context.Context, letter *models.Letter) error
	Update(ctx context.Context, letter *models.Letter) error
	UpdateStatus(ctx context.Context, id string, status models.LetterStatus) error
	UpdateStatusCAS(ctx context.Context, id string, from, to models.LetterStatus) (bool, error)
	Delete(ctx context.Context, id string) error
}

// letterTransitions is the workflow graph. Any edge outside it is rejected
// for every role.
var letterTransitions = map[models.LetterStatus][]models.LetterStatus{
	models.LetterStatusDraft:            {models.LetterStatusMenungguValidasi},
	models.LetterStatusMenungguValidasi: {models.LetterStatusValidasi, models.LetterStatusDitolak},
	models.LetterStatusDitolak:          {models.LetterStatusMenungguValidasi},
}

// editableStatuses is the window in which non-privileged roles may modify
// letter content.
var editableStatuses = map[models.LetterStatus]struct{}{
	models.LetterStatusDraft:            {},
	models.LetterStatusMenungguValidasi: {},
	models.LetterStatusDitolak:          {},
}

// LetterService drives the outgoing-letter validation workflow.
type LetterService struct {
	repo      letterRepository
	runner    *resilience.Runner
	validator *validator.Validate
	logger    *zap.Logger
	orgCode   string
	enableCAS bool
	now       func() time.Time
}

// NewLetterService constructs the service.
func NewLetterService(repo letterRepository, runner *resilience.Runner, validate *validator.Validate, logger *zap.Logger, orgCode string, enableCAS bool) *LetterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if orgCode == "" {
		orgCode = "PSHT"
	}
	return &LetterService{
		repo:      repo,
		runner:    runner,
		validator: validate,
		logger:    logger,
		orgCode:   orgCode,
		enableCAS: enableCAS,
		now:       time.Now,
	}
}

// CreateLetterRequest describes the create payload.
type CreateLetterRequest struct {
	JenisSurat   string    `json:"jenis_surat" validate:"required"`
	Perihal      string    `json:"perihal" validate:"required"`
	Tujuan       string    `json:"tujuan" validate:"required"`
	Isi          string    `json:"isi"`
	TanggalSurat time.Time `json:"tanggal_surat" validate:"required"`
}

// UpdateLetterRequest describes the update payload. Status is honored only
// for roles allowed arbitrary status assignment.
type UpdateLetterRequest struct {
	JenisSurat   *string              `json:"jenis_surat"`
	Perihal      *string              `json:"perihal"`
	Tujuan       *string              `json:"tujuan"`
	Isi          *string              `json:"isi"`
	TanggalSurat *time.Time           `json:"tanggal_surat"`
	Status       *models.LetterStatus `json:"status"`
}

// Create registers a new letter. The standard path always enters
// MENUNGGU_VALIDASI; DRAFT is reachable only through a privileged status
// edit.
func (s *LetterService) Create(ctx context.Context, req CreateLetterRequest, claims *models.JWTClaims) (*models.Letter, error) {
	if err := authz.Require(claims.Role, authz.ActionLetterWrite); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid letter payload")
	}

	nomor, err := s.nextNomor(ctx)
	if err != nil {
		return nil, err
	}

	letter := &models.Letter{
		Nomor:        nomor,
		JenisSurat:   req.JenisSurat,
		Perihal:      req.Perihal,
		Tujuan:       req.Tujuan,
		Isi:          req.Isi,
		TanggalSurat: req.TanggalSurat,
		Status:       models.LetterStatusMenungguValidasi,
		CreatedBy:    claims.UserID,
	}

	if err := s.runner.Do(ctx, "letter.create", func(ctx context.Context) error {
		return s.repo.Create(ctx, letter)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("letter created",
		zap.String("letter_id", letter.ID),
		zap.String("nomor", letter.Nomor),
		zap.String("created_by", claims.UserID),
	)
	return letter, nil
}

// NextNumber previews the sequence number the next created letter would
// receive.
func (s *LetterService) NextNumber(ctx context.Context, claims *models.JWTClaims) (string, error) {
	if err := authz.Require(claims.Role, authz.ActionLetterWrite); err != nil {
		return "", err
	}
	return s.nextNomor(ctx)
}

// nextNomor counts this year's letters and formats the next number. The
// count-then-format sequence is not guarded against concurrent creation;
// the unique index on nomor turns a duplicate into a Conflict.
func (s *LetterService) nextNomor(ctx context.Context) (string, error) {
	now := s.now()
	var count int
	if err := s.runner.Do(ctx, "letter.count_in_year", func(ctx context.Context) error {
		var err error
		count, err = s.repo.CountInYear(ctx, now.Year())
		return err
	}); err != nil {
		return "", err
	}
	return formatNomor(count+1, s.orgCode, now), nil
}

// List returns letters matching the filter.
func (s *LetterService) List(ctx context.Context, filter models.LetterFilter, claims *models.JWTClaims) ([]models.Letter, *models.Pagination, error) {
	if err := authz.Require(claims.Role, authz.ActionLetterWrite); err != nil {
		return nil, nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	var letters []models.Letter
	var total int
	if err := s.runner.Do(ctx, "letter.list", func(ctx context.Context) error {
		var err error
		letters, total, err = s.repo.List(ctx, filter)
		return err
	}); err != nil {
		return nil, nil, err
	}

	return letters, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get loads one letter.
func (s *LetterService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Letter, error) {
	if err := authz.Require(claims.Role, authz.ActionLetterWrite); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Update modifies letter content. Content fields are editable while status
// is DRAFT, MENUNGGU_VALIDASI or DITOLAK; MASTER_ADMIN and KETUA edit
// unconditionally and may also assign status directly.
func (s *LetterService) Update(ctx context.Context, id string, req UpdateLetterRequest, claims *models.JWTClaims) (*models.Letter, error) {
	if err := authz.Require(claims.Role, authz.ActionLetterWrite); err != nil {
		return nil, err
	}

	letter, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, editable := editableStatuses[letter.Status]; !editable {
		if !authz.Can(claims.Role, authz.ActionLetterEditProcessed) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "letter is already processed")
		}
	}

	if req.JenisSurat != nil {
		letter.JenisSurat = *req.JenisSurat
	}
	if req.Perihal != nil {
		letter.Perihal = *req.Perihal
	}
	if req.Tujuan != nil {
		letter.Tujuan = *req.Tujuan
	}
	if req.Isi != nil {
		letter.Isi = *req.Isi
	}
	if req.TanggalSurat != nil {
		letter.TanggalSurat = *req.TanggalSurat
	}
	if req.Status != nil && *req.Status != letter.Status {
		// Arbitrary status assignment, including back to DRAFT.
		if !authz.Can(claims.Role, authz.ActionLetterApprove) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "status assignment requires KETUA or MASTER_ADMIN")
		}
		if !req.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown letter status %q", *req.Status))
		}
		letter.Status = *req.Status
	}

	if err := s.runner.Do(ctx, "letter.update", func(ctx context.Context) error {
		return s.repo.Update(ctx, letter)
	}); err != nil {
		return nil, err
	}

	return letter, nil
}

// Transition moves a letter along the workflow graph. Off-graph edges are
// rejected with Forbidden regardless of role; approval edges require
// KETUA/MASTER_ADMIN, resubmission edges require letter authorship rights.
func (s *LetterService) Transition(ctx context.Context, id string, target models.LetterStatus, claims *models.JWTClaims) (*models.Letter, error) {
	if !target.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown letter status %q", target))
	}

	letter, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !letterEdgeAllowed(letter.Status, target) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("transition %s -> %s is not allowed", letter.Status, target))
	}

	action := authz.ActionLetterApprove
	if target == models.LetterStatusMenungguValidasi {
		// Resubmission from DRAFT or DITOLAK.
		action = authz.ActionLetterWrite
	}
	if err := authz.Require(claims.Role, action); err != nil {
		return nil, err
	}

	if err := s.applyLetterStatus(ctx, letter, target); err != nil {
		return nil, err
	}

	s.logger.Info("letter status changed",
		zap.String("letter_id", letter.ID),
		zap.String("status", string(target)),
		zap.String("changed_by", claims.UserID),
	)
	letter.Status = target
	return letter, nil
}

func (s *LetterService) applyLetterStatus(ctx context.Context, letter *models.Letter, target models.LetterStatus) error {
	return s.runner.Do(ctx, "letter.transition", func(ctx context.Context) error {
		if s.enableCAS {
			swapped, err := s.repo.UpdateStatusCAS(ctx, letter.ID, letter.Status, target)
			if err != nil {
				return err
			}
			if !swapped {
				return appErrors.Clone(appErrors.ErrConflict, "letter was modified concurrently")
			}
			return nil
		}
		// Default matches the original behaviour: last writer wins.
		return s.repo.UpdateStatus(ctx, letter.ID, target)
	})
}

// Delete removes a letter. Only DRAFT letters may be deleted, except by
// MASTER_ADMIN who may delete regardless of status.
func (s *LetterService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if err := authz.Require(claims.Role, authz.ActionLetterWrite); err != nil {
		return err
	}

	letter, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if letter.Status != models.LetterStatusDraft && !authz.Can(claims.Role, authz.ActionLetterDeleteAny) {
		return appErrors.Clone(appErrors.ErrForbidden, "only draft letters can be deleted")
	}

	return s.runner.Do(ctx, "letter.delete", func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}

func (s *LetterService) find(ctx context.Context, id string) (*models.Letter, error) {
	var letter *models.Letter
	if err := s.runner.Do(ctx, "letter.find", func(ctx context.Context) error {
		var err error
		letter, err = s.repo.FindByID(ctx, id)
		return err
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "letter not found")
		}
		return nil, err
	}
	return letter, nil
}

func letterEdgeAllowed(from, to models.LetterStatus) bool {
	for _, next := range letterTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var romanMonths = [...]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

// formatNomor renders a sequence number as 001/ORG/VII/2025.
func formatNomor(seq int, orgCode string, t time.Time) string {
	return fmt.Sprintf("%03d/%s/%s/%d", seq, orgCode, romanMonths[t.Month()-1], t.Year())
}
