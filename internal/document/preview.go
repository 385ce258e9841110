package document

import (
	"bytes"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
)

// Previewer rasterizes PDFs with MuPDF
type Previewer struct{}

// NewPreviewer creates a previewer
func NewPreviewer() *Previewer {
	return &Previewer{}
}

// PNG renders the first page of pdf as a PNG image
func (p *Previewer) PNG(pdf []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindRenderFailed, err, "failed to open pdf")
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, apperror.New(apperror.KindRenderFailed, "pdf has no pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindRenderFailed, err, "failed to rasterize page")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperror.Wrap(apperror.KindRenderFailed, err, "failed to encode png")
	}
	return buf.Bytes(), nil
}
