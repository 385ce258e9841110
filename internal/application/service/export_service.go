package service

import (
	"context"

	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/export"
)

// exportLimit bounds a single spreadsheet export
const exportLimit = 500

// ExportService produces spreadsheets of a user's invoices
type ExportService interface {
	Invoices(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]byte, error)
}

type exportServiceImpl struct {
	invoices InvoiceService
	logger   Logger
}

// NewExportService creates a new ExportService
func NewExportService(invoices InvoiceService, logger Logger) ExportService {
	return &exportServiceImpl{invoices: invoices, logger: logger}
}

func (s *exportServiceImpl) Invoices(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]byte, error) {
	filter.Limit = exportLimit
	filter.Offset = 0

	invoices, err := s.invoices.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	data, err := export.WriteInvoices(invoices)
	if err != nil {
		s.logger.Error("Failed to export invoices", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("Invoices exported", "user_id", userID, "count", len(invoices))
	return data, nil
}
