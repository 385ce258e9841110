package document

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
)

const (
	pageWidth  = 210.0
	pageHeight = 297.0
	pageMargin = 15.0
)

// Renderer produces A4 invoice PDFs from persisted snapshots
type Renderer struct {
	layout []Section
	logger *zap.Logger
}

// NewRenderer creates a renderer using the standard invoice layout
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{layout: Layout, logger: logger}
}

// Render draws inv and returns the complete PDF. A snapshot rendered twice yields identical bytes.
func (r *Renderer) Render(inv *entity.Invoice, branding entity.Branding) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic while rendering invoice",
				zap.String("invoice_id", inv.ID),
				zap.Any("panic", rec))
			out = nil
			err = apperror.New(apperror.KindRenderFailed, "failed to render invoice: %v", rec)
		}
	}()

	view, err := BuildView(inv, branding)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindRenderFailed, err, "invalid invoice content")
	}
	if inv.HasItems() && view.Totals.Total != inv.Amount {
		r.logger.Warn("Invoice data integrity: recomputed total differs from stored amount",
			zap.String("invoice_id", inv.ID),
			zap.Int64("stored_amount", inv.Amount),
			zap.Int64("computed_total", view.Totals.Total))
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(inv.CreatedAt.UTC())
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(fmt.Sprintf("Invoice %s", view.Number), true)
	pdf.SetCreator("invoice-service", true)
	pdf.AddPage()

	p := newPainter(pdf)
	frame := Frame{
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
		Margin:     pageMargin,
		Measure:    p,
	}

	y := pageMargin
	for _, section := range r.layout {
		var ops []Op
		ops, y = section.Draw(frame, view, y)
		p.paint(ops)
		if pdf.Err() {
			return nil, apperror.Wrap(apperror.KindRenderFailed, pdf.Error(), "failed to draw %s", section.Name)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperror.Wrap(apperror.KindRenderFailed, err, "failed to write pdf")
	}

	r.logger.Debug("Invoice rendered",
		zap.String("invoice_id", inv.ID),
		zap.Int("bytes", buf.Len()),
		zap.Int("pages", pdf.PageCount()))
	return buf.Bytes(), nil
}
