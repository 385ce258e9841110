package service

import (
	"context"
	"fmt"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/artifact"
	"github.com/garyjia/invoice-service/internal/domain/entity"
)

// ArtifactCache stores rendered invoices and signs share links
type ArtifactCache interface {
	GetOrRender(ctx context.Context, inv *entity.Invoice, branding entity.Branding, fetch bool) (*artifact.Artifact, error)
	CreateShareLink(ctx context.Context, inv *entity.Invoice, branding entity.Branding) (*artifact.ShareLink, error)
}

// DocumentService serves rendered invoice documents
type DocumentService interface {
	// Download returns the stored PDF, rendering it on first use
	Download(ctx context.Context, userID, id string) (*artifact.Artifact, error)
	Share(ctx context.Context, userID, id string) (*artifact.ShareLink, error)
	// Preview returns a PNG of the first page
	Preview(ctx context.Context, userID, id string) ([]byte, error)
}

type documentServiceImpl struct {
	invoices    InvoiceService
	profileRepo port.ProfileRepository
	cache       ArtifactCache
	previewer   port.DocumentPreviewer
	logger      Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	invoices InvoiceService,
	profileRepo port.ProfileRepository,
	cache ArtifactCache,
	previewer port.DocumentPreviewer,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		invoices:    invoices,
		profileRepo: profileRepo,
		cache:       cache,
		previewer:   previewer,
		logger:      logger,
	}
}

func (s *documentServiceImpl) load(ctx context.Context, userID, id string) (*entity.Invoice, entity.Branding, error) {
	inv, err := s.invoices.Get(ctx, userID, id)
	if err != nil {
		return nil, entity.Branding{}, err
	}
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, entity.Branding{}, fmt.Errorf("get profile: %w", err)
	}
	return inv, profile.Branding(), nil
}

func (s *documentServiceImpl) Download(ctx context.Context, userID, id string) (*artifact.Artifact, error) {
	inv, branding, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.cache.GetOrRender(ctx, inv, branding, true)
}

func (s *documentServiceImpl) Share(ctx context.Context, userID, id string) (*artifact.ShareLink, error) {
	inv, branding, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	link, err := s.cache.CreateShareLink(ctx, inv, branding)
	if err != nil {
		s.logger.Error("Failed to create share link", "error", err, "invoice_id", id)
		return nil, err
	}

	s.logger.Info("Share link created", "invoice_id", id, "expires_in", link.ExpiresIn)
	return link, nil
}

func (s *documentServiceImpl) Preview(ctx context.Context, userID, id string) ([]byte, error) {
	doc, err := s.Download(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.previewer.PNG(doc.Data)
}
