package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/padepokan-dev/silat-admin-api/internal/authz"
	"github.com/padepokan-dev/silat-admin-api/internal/models"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
	"github.com/padepokan-dev/silat-admin-api/pkg/resilience"
)

type contactRepository interface {
	List(ctx context.Context, filter models.ContactFilter) ([]models.ContactMessage, int, error)
	FindByID(ctx context.Context, id string) (*models.ContactMessage, error)
	Create(ctx context.Context, message *models.ContactMessage) error
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ContactService handles the public contact inbox: anonymous submissions in,
// admin triage out.
type ContactService struct {
	repo      contactRepository
	runner    *resilience.Runner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactService constructs the service.
func NewContactService(repo contactRepository, runner *resilience.Runner, validate *validator.Validate, logger *zap.Logger) *ContactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, runner: runner, validator: validate, logger: logger}
}

// SubmitContactRequest is the public submission payload.
type SubmitContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Subject string `json:"subject" validate:"required,max=150"`
	Body    string `json:"body" validate:"required"`
}

// Submit stores an anonymous contact message. No authentication required.
func (s *ContactService) Submit(ctx context.Context, req SubmitContactRequest) (*models.ContactMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}

	message := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := s.runner.Do(ctx, "contact.submit", func(ctx context.Context) error {
		return s.repo.Create(ctx, message)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("contact message received", zap.String("contact_id", message.ID), zap.String("subject", message.Subject))
	return message, nil
}

// List returns inbox messages for admin triage.
func (s *ContactService) List(ctx context.Context, filter models.ContactFilter, claims *models.JWTClaims) ([]models.ContactMessage, *models.Pagination, error) {
	if err := authz.Require(claims.Role, authz.ActionContactManage); err != nil {
		return nil, nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	var messages []models.ContactMessage
	var total int
	if err := s.runner.Do(ctx, "contact.list", func(ctx context.Context) error {
		var err error
		messages, total, err = s.repo.List(ctx, filter)
		return err
	}); err != nil {
		return nil, nil, err
	}

	return messages, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get loads one message and flips its read flag as a side effect of viewing.
func (s *ContactService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.ContactMessage, error) {
	if err := authz.Require(claims.Role, authz.ActionContactManage); err != nil {
		return nil, err
	}

	var message *models.ContactMessage
	if err := s.runner.Do(ctx, "contact.get", func(ctx context.Context) error {
		var err error
		message, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !message.IsRead {
			if err := s.repo.MarkRead(ctx, id); err != nil {
				return err
			}
			message.IsRead = true
		}
		return nil
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contact message not found")
		}
		return nil, err
	}
	return message, nil
}

// Delete removes a message from the inbox.
func (s *ContactService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if err := authz.Require(claims.Role, authz.ActionContactManage); err != nil {
		return err
	}
	return s.runner.Do(ctx, "contact.delete", func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}
