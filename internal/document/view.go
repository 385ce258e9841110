package document

import (
	"strconv"
	"strings"

	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/money"
	"github.com/garyjia/invoice-service/pkg/utils"
)

// Row is one printed line item
type Row struct {
	Number      string
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

// SummaryLine is a label/value pair in the totals block
type SummaryLine struct {
	Label string
	Value string
	Bold  bool
}

// View is everything the layout prints, already formatted
type View struct {
	Title       string
	BrandName   string
	Number      string
	Status      string
	CreatedDate string
	From        []string
	BillTo      []string
	IssueDate   string
	DueDate     string
	LineNumbers bool
	Rows        []Row
	Summary     []SummaryLine
	Notes       string
	Footer      []string

	// Totals recomputed from the snapshot's items; zero-valued when there are none
	Totals money.Totals
}

// BuildView formats inv for printing. With line items the summary comes from the
// money engine; without them the stored amount is the total.
func BuildView(inv *entity.Invoice, branding entity.Branding) (*View, error) {
	kind := inv.TemplateKind
	if !entity.ValidTemplateKinds[kind] {
		kind = entity.TemplateSimple
	}

	v := &View{
		Title:       "INVOICE",
		BrandName:   brandName(inv, branding),
		Number:      ShortID(inv.ID),
		Status:      strings.ToUpper(inv.Status),
		CreatedDate: inv.CreatedAt.UTC().Format("2006-01-02"),
		From:        nonEmpty(inv.CompanyName, inv.CompanyAddress),
		BillTo:      nonEmpty(inv.Customer, inv.ClientAddress, inv.ClientEmail),
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
		LineNumbers: kind == entity.TemplateDetailed,
		Notes:       strings.TrimSpace(utils.SanitizeString(inv.Notes)),
		Footer:      []string{"Thank you for your business."},
	}
	if kind == entity.TemplateProforma {
		v.Title = "PRO FORMA INVOICE"
		v.Footer = append(v.Footer, "This pro forma invoice is not a demand for payment.")
	}

	if !inv.HasItems() {
		v.Summary = []SummaryLine{{Label: "Total", Value: money.Format(inv.Amount, inv.Currency), Bold: true}}
		return v, nil
	}

	tax := 0.0
	if inv.TaxRate != nil {
		tax = *inv.TaxRate
	}
	totals, err := money.ComputeTotals(inv.Items, tax)
	if err != nil {
		return nil, err
	}
	v.Totals = totals

	for i, item := range inv.Items {
		v.Rows = append(v.Rows, Row{
			Number:      strconv.Itoa(i + 1),
			Description: utils.SanitizeString(item.Description),
			Quantity:    strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			Rate:        money.Format(money.ToMinor(item.Rate), inv.Currency),
			Amount:      money.Format(money.LineAmount(item), inv.Currency),
		})
	}

	v.Summary = append(v.Summary, SummaryLine{Label: "Subtotal", Value: money.Format(totals.Subtotal, inv.Currency)})
	if tax > 0 || kind == entity.TemplateDetailed {
		v.Summary = append(v.Summary, SummaryLine{
			Label: "Tax (" + strconv.FormatFloat(tax, 'f', -1, 64) + "%)",
			Value: money.Format(totals.Tax, inv.Currency),
		})
	}
	v.Summary = append(v.Summary, SummaryLine{Label: "Total", Value: money.Format(totals.Total, inv.Currency), Bold: true})
	return v, nil
}

// ShortID is the first eight characters of an invoice id
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func brandName(inv *entity.Invoice, branding entity.Branding) string {
	if branding.Name != nil && strings.TrimSpace(*branding.Name) != "" {
		return strings.TrimSpace(*branding.Name)
	}
	if inv.CompanyName != "" {
		return inv.CompanyName
	}
	return "Invoice"
}

// nonEmpty splits each value into lines and drops blanks
func nonEmpty(values ...string) []string {
	var lines []string
	for _, v := range values {
		for _, line := range strings.Split(utils.SanitizeString(v), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
