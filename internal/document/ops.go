package document

// OpKind identifies a drawing instruction
type OpKind int

const (
	OpText OpKind = iota
	OpRule
	OpFill
	OpPageBreak
)

// Font selects a core PDF font
type Font struct {
	Family string
	Style  string // "", "B", "I", "BI"
	Size   float64
}

// RGB is an 8-bit colour
type RGB struct {
	R, G, B int
}

// Op is one drawing instruction in page coordinates (millimetres from the top left)
type Op struct {
	Kind  OpKind
	X, Y  float64
	W, H  float64
	Text  string
	Align string // "L", "C" or "R"
	Font  Font
	Color RGB
}

// Measurer wraps text to a width for a given font
type Measurer interface {
	SplitText(text string, font Font, width float64) []string
}

// Frame is the page geometry handed to every section
type Frame struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	Measure    Measurer
}

// ContentWidth is the printable width between margins
func (f Frame) ContentWidth() float64 {
	return f.PageWidth - 2*f.Margin
}

// Bottom is the lowest y a section may draw at before breaking the page
func (f Frame) Bottom() float64 {
	return f.PageHeight - f.Margin - footerReserve
}

var (
	black     = RGB{0, 0, 0}
	grey      = RGB{110, 110, 110}
	lightGrey = RGB{235, 235, 235}
	ruleGrey  = RGB{190, 190, 190}

	fontTitle   = Font{Family: "Helvetica", Style: "B", Size: 18}
	fontBrand   = Font{Family: "Helvetica", Style: "B", Size: 14}
	fontHeading = Font{Family: "Helvetica", Style: "B", Size: 10}
	fontBody    = Font{Family: "Helvetica", Size: 10}
	fontSmall   = Font{Family: "Helvetica", Size: 8}
)

func text(x, y, w, h float64, s string, font Font, align string, color RGB) Op {
	return Op{Kind: OpText, X: x, Y: y, W: w, H: h, Text: s, Font: font, Align: align, Color: color}
}

func rule(x, y, w float64) Op {
	return Op{Kind: OpRule, X: x, Y: y, W: w, Color: ruleGrey}
}

func fill(x, y, w, h float64, color RGB) Op {
	return Op{Kind: OpFill, X: x, Y: y, W: w, H: h, Color: color}
}

func pageBreak() Op {
	return Op{Kind: OpPageBreak}
}
