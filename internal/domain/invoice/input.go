package invoice

import "github.com/garyjia/invoice-service/internal/domain/entity"

// CreateInput carries the caller-supplied fields of a new invoice.
// Amount is only consulted when Items is empty.
type CreateInput struct {
	Amount         *int64
	Currency       string
	Customer       string
	Items          []entity.LineItem
	TaxRate        *float64
	Notes          string
	CompanyName    string
	CompanyAddress string
	ClientEmail    string
	ClientAddress  string
	IssueDate      string
	DueDate        string
	TemplateKind   string
}

// Patch is a partial update. A nil field is absent and leaves the stored value alone;
// a non-nil Items pointing at an empty slice clears the line items.
type Patch struct {
	Amount         *int64
	Currency       *string
	Customer       *string
	Items          *[]entity.LineItem
	TaxRate        *float64
	Notes          *string
	CompanyName    *string
	CompanyAddress *string
	ClientEmail    *string
	ClientAddress  *string
	IssueDate      *string
	DueDate        *string
	TemplateKind   *string
}

// IsMoneyPatch reports whether applying p can change amount, items or tax_rate
func (p Patch) IsMoneyPatch() bool {
	return p.Amount != nil || p.Items != nil || p.TaxRate != nil
}
