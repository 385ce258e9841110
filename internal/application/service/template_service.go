package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/invoice"
)

// TemplateService manages reusable invoice templates
type TemplateService interface {
	Create(ctx context.Context, userID string, tpl *entity.Template) (*entity.Template, error)
	Get(ctx context.Context, userID, id string) (*entity.Template, error)
	List(ctx context.Context, userID string) ([]*entity.Template, error)
	// Update replaces every editable field of the template
	Update(ctx context.Context, userID, id string, tpl *entity.Template) (*entity.Template, error)
	Delete(ctx context.Context, userID, id string) error
}

type templateServiceImpl struct {
	templateRepo port.TemplateRepository
	logger       Logger
	now          func() time.Time
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templateRepo port.TemplateRepository, logger Logger) TemplateService {
	return &templateServiceImpl{
		templateRepo: templateRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func normalizeTemplate(tpl *entity.Template) {
	tpl.Name = strings.TrimSpace(tpl.Name)
	tpl.Currency = strings.TrimSpace(tpl.Currency)
	if tpl.Kind == "" {
		tpl.Kind = entity.TemplateSimple
	}
}

func (s *templateServiceImpl) Create(ctx context.Context, userID string, tpl *entity.Template) (*entity.Template, error) {
	normalizeTemplate(tpl)
	if err := invoice.ValidateTemplate(tpl); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tpl.ID = uuid.NewString()
	tpl.UserID = userID
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		s.logger.Error("Failed to create template", "error", err, "user_id", userID)
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.logger.Info("Template created", "template_id", tpl.ID, "user_id", userID)
	return tpl, nil
}

func (s *templateServiceImpl) Get(ctx context.Context, userID, id string) (*entity.Template, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if tpl == nil {
		return nil, apperror.New(apperror.KindNotFound, "template %s not found", id)
	}
	return tpl, nil
}

func (s *templateServiceImpl) List(ctx context.Context, userID string) ([]*entity.Template, error) {
	templates, err := s.templateRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (s *templateServiceImpl) Update(ctx context.Context, userID, id string, tpl *entity.Template) (*entity.Template, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	normalizeTemplate(tpl)
	if err := invoice.ValidateTemplate(tpl); err != nil {
		return nil, err
	}

	tpl.ID = existing.ID
	tpl.UserID = existing.UserID
	tpl.CreatedAt = existing.CreatedAt
	tpl.UpdatedAt = s.now().UTC()

	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return tpl, nil
}

func (s *templateServiceImpl) Delete(ctx context.Context, userID, id string) error {
	if err := s.templateRepo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.logger.Info("Template deleted", "template_id", id, "user_id", userID)
	return nil
}
