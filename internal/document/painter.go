package document

import (
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// painter replays layout ops onto a gofpdf document
type painter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newPainter(pdf *gofpdf.Fpdf) *painter {
	// core fonts only cover cp1252
	return &painter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// SplitText word-wraps text to width, measuring in the encoding that will be drawn
func (p *painter) SplitText(text string, font Font, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	p.pdf.SetFont(font.Family, font.Style, font.Size)

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if p.pdf.GetStringWidth(p.tr(candidate)) <= width {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

func (p *painter) paint(ops []Op) {
	for _, op := range ops {
		switch op.Kind {
		case OpText:
			p.pdf.SetFont(op.Font.Family, op.Font.Style, op.Font.Size)
			p.pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
			p.pdf.SetXY(op.X, op.Y)
			p.pdf.CellFormat(op.W, op.H, p.tr(op.Text), "", 0, op.Align, false, 0, "")
		case OpRule:
			p.pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
			p.pdf.SetLineWidth(0.2)
			p.pdf.Line(op.X, op.Y, op.X+op.W, op.Y)
		case OpFill:
			p.pdf.SetFillColor(op.Color.R, op.Color.G, op.Color.B)
			p.pdf.Rect(op.X, op.Y, op.W, op.H, "F")
		case OpPageBreak:
			p.pdf.AddPage()
		}
	}
}

