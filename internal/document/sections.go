package document

import "strings"

const (
	lineHeight    = 5.5
	rowHeight     = 7.0
	footerReserve = 14.0
)

// Section draws one block of the page starting at y and returns its ops and the next free y.
// Sections do not touch the PDF, so each can be tested on its own.
type Section struct {
	Name string
	Draw func(f Frame, v *View, y float64) ([]Op, float64)
}

// Layout is the fixed top-to-bottom order of an invoice page
var Layout = []Section{
	{Name: "header", Draw: drawHeader},
	{Name: "metadata", Draw: drawMetadata},
	{Name: "parties", Draw: drawParties},
	{Name: "dates", Draw: drawDates},
	{Name: "items", Draw: drawItems},
	{Name: "summary", Draw: drawSummary},
	{Name: "notes", Draw: drawNotes},
	{Name: "footer", Draw: drawFooter},
}

func drawHeader(f Frame, v *View, y float64) ([]Op, float64) {
	half := f.ContentWidth() / 2
	ops := []Op{
		text(f.Margin, y, half, 10, v.BrandName, fontBrand, "L", black),
		text(f.Margin+half, y, half, 10, v.Title, fontTitle, "R", black),
	}
	y += 12
	ops = append(ops, rule(f.Margin, y, f.ContentWidth()))
	return ops, y + 4
}

func drawMetadata(f Frame, v *View, y float64) ([]Op, float64) {
	labelW := 30.0
	valueW := 45.0
	x := f.Margin + f.ContentWidth() - labelW - valueW

	var ops []Op
	for _, kv := range [][2]string{
		{"Invoice #", v.Number},
		{"Date", v.CreatedDate},
		{"Status", v.Status},
	} {
		ops = append(ops,
			text(x, y, labelW, lineHeight, kv[0], fontHeading, "L", grey),
			text(x+labelW, y, valueW, lineHeight, kv[1], fontBody, "R", black),
		)
		y += lineHeight
	}
	return ops, y + 4
}

func drawParties(f Frame, v *View, y float64) ([]Op, float64) {
	colW := f.ContentWidth()/2 - 5
	left, leftY := partyBlock(f, "From", v.From, f.Margin, colW, y)
	right, rightY := partyBlock(f, "Bill To", v.BillTo, f.Margin+f.ContentWidth()/2+5, colW, y)

	next := leftY
	if rightY > next {
		next = rightY
	}
	return append(left, right...), next + 4
}

func partyBlock(f Frame, heading string, lines []string, x, w, y float64) ([]Op, float64) {
	if len(lines) == 0 {
		return nil, y
	}
	ops := []Op{text(x, y, w, lineHeight, heading, fontHeading, "L", grey)}
	y += lineHeight
	for _, line := range lines {
		for _, wrapped := range f.Measure.SplitText(line, fontBody, w) {
			ops = append(ops, text(x, y, w, lineHeight, wrapped, fontBody, "L", black))
			y += lineHeight
		}
	}
	return ops, y
}

func drawDates(f Frame, v *View, y float64) ([]Op, float64) {
	if v.IssueDate == "" && v.DueDate == "" {
		return nil, y
	}

	var ops []Op
	x := f.Margin
	w := f.ContentWidth() / 2
	if v.IssueDate != "" {
		ops = append(ops, text(x, y, w, lineHeight, "Issue date: "+v.IssueDate, fontBody, "L", black))
		x += w
	}
	if v.DueDate != "" {
		ops = append(ops, text(x, y, w, lineHeight, "Due date: "+v.DueDate, fontHeading, "L", black))
	}
	return ops, y + lineHeight + 4
}

type column struct {
	title string
	width float64
	align string
	value func(Row) string
}

func itemColumns(f Frame, v *View) []column {
	numW := 0.0
	if v.LineNumbers {
		numW = 10
	}
	qtyW, rateW, amountW := 20.0, 32.0, 35.0
	descW := f.ContentWidth() - numW - qtyW - rateW - amountW

	cols := []column{}
	if v.LineNumbers {
		cols = append(cols, column{"#", numW, "L", func(r Row) string { return r.Number }})
	}
	return append(cols,
		column{"Description", descW, "L", func(r Row) string { return r.Description }},
		column{"Qty", qtyW, "R", func(r Row) string { return r.Quantity }},
		column{"Rate", rateW, "R", func(r Row) string { return r.Rate }},
		column{"Amount", amountW, "R", func(r Row) string { return r.Amount }},
	)
}

func itemHeader(f Frame, cols []column, y float64) []Op {
	ops := []Op{fill(f.Margin, y, f.ContentWidth(), rowHeight, lightGrey)}
	x := f.Margin
	for _, c := range cols {
		ops = append(ops, text(x+1, y, c.width-2, rowHeight, c.title, fontHeading, c.align, black))
		x += c.width
	}
	return ops
}

func drawItems(f Frame, v *View, y float64) ([]Op, float64) {
	if len(v.Rows) == 0 {
		return nil, y
	}

	cols := itemColumns(f, v)
	ops := itemHeader(f, cols, y)
	y += rowHeight

	for _, row := range v.Rows {
		descCol := cols[0]
		if v.LineNumbers {
			descCol = cols[1]
		}
		descLines := f.Measure.SplitText(row.Description, fontBody, descCol.width-2)
		if len(descLines) == 0 {
			descLines = []string{""}
		}
		height := float64(len(descLines)) * lineHeight
		if height < rowHeight {
			height = rowHeight
		}

		if y+height > f.Bottom() {
			ops = append(ops, pageBreak())
			y = f.Margin
			ops = append(ops, itemHeader(f, cols, y)...)
			y += rowHeight
		}

		x := f.Margin
		for _, c := range cols {
			if c.title == "Description" {
				for i, line := range descLines {
					ops = append(ops, text(x+1, y+float64(i)*lineHeight, c.width-2, rowHeight, line, fontBody, "L", black))
				}
			} else {
				ops = append(ops, text(x+1, y, c.width-2, rowHeight, c.value(row), fontBody, c.align, black))
			}
			x += c.width
		}
		y += height
		ops = append(ops, rule(f.Margin, y, f.ContentWidth()))
	}
	return ops, y + 4
}

func drawSummary(f Frame, v *View, y float64) ([]Op, float64) {
	labelW, valueW := 40.0, 40.0
	x := f.Margin + f.ContentWidth() - labelW - valueW

	var ops []Op
	if y+float64(len(v.Summary))*rowHeight > f.Bottom() {
		ops = append(ops, pageBreak())
		y = f.Margin
	}
	for _, line := range v.Summary {
		font := fontBody
		if line.Bold {
			font = fontHeading
			ops = append(ops, fill(x, y, labelW+valueW, rowHeight, lightGrey))
		}
		ops = append(ops,
			text(x+1, y, labelW-2, rowHeight, line.Label, font, "L", black),
			text(x+labelW, y, valueW-1, rowHeight, line.Value, font, "R", black),
		)
		y += rowHeight
	}
	return ops, y + 6
}

func drawNotes(f Frame, v *View, y float64) ([]Op, float64) {
	if v.Notes == "" {
		return nil, y
	}

	var lines []string
	for _, paragraph := range strings.Split(v.Notes, "\n") {
		lines = append(lines, f.Measure.SplitText(paragraph, fontBody, f.ContentWidth())...)
	}

	ops := []Op{text(f.Margin, y, f.ContentWidth(), lineHeight, "Notes", fontHeading, "L", grey)}
	y += lineHeight
	for _, line := range lines {
		if y+lineHeight > f.Bottom() {
			ops = append(ops, pageBreak())
			y = f.Margin
		}
		ops = append(ops, text(f.Margin, y, f.ContentWidth(), lineHeight, line, fontBody, "L", black))
		y += lineHeight
	}
	return ops, y + 4
}

func drawFooter(f Frame, v *View, y float64) ([]Op, float64) {
	footerY := f.PageHeight - f.Margin - float64(len(v.Footer))*lineHeight
	var ops []Op
	if y > footerY {
		ops = append(ops, pageBreak())
	}
	for i, line := range v.Footer {
		ops = append(ops, text(f.Margin, footerY+float64(i)*lineHeight, f.ContentWidth(), lineHeight, line, fontSmall, "C", grey))
	}
	return ops, f.PageHeight - f.Margin
}
