package entity

import "time"

// LineItem is a single billable row on an invoice
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

// Amount returns quantity * rate in major units
func (li LineItem) Amount() float64 {
	return li.Quantity * li.Rate
}

// Invoice is the persisted invoice snapshot.
// Amount is in minor units (cents). Items is nil when the invoice has no line items,
// in which case TaxRate is nil as well and Amount was supplied by the caller.
type Invoice struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Amount         int64      `json:"amount"`
	Currency       string     `json:"currency"`
	Customer       string     `json:"customer"`
	Status         string     `json:"status"`
	Items          []LineItem `json:"items,omitempty"`
	TaxRate        *float64   `json:"tax_rate,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CompanyName    string     `json:"company_name,omitempty"`
	CompanyAddress string     `json:"company_address,omitempty"`
	ClientEmail    string     `json:"client_email,omitempty"`
	ClientAddress  string     `json:"client_address,omitempty"`
	IssueDate      string     `json:"issue_date,omitempty"`
	DueDate        string     `json:"due_date,omitempty"`
	TemplateKind   string     `json:"template_kind"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasItems reports whether the invoice carries at least one line item
func (inv *Invoice) HasItems() bool {
	return len(inv.Items) > 0
}

// Clone returns a deep copy so callers can modify it without touching the original
func (inv *Invoice) Clone() *Invoice {
	out := *inv
	if inv.Items != nil {
		out.Items = append([]LineItem(nil), inv.Items...)
	}
	if inv.TaxRate != nil {
		rate := *inv.TaxRate
		out.TaxRate = &rate
	}
	return &out
}

// InvoiceFilter narrows an invoice listing
type InvoiceFilter struct {
	Status   string
	Customer string
	Limit    int
	Offset   int
}

// Branding is the presentation data taken from the owner's profile
type Branding struct {
	Name *string `json:"name,omitempty"`
}
