package http

import (
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/invoice"
)

// LineItemRequest is one line item in a request body
type LineItemRequest struct {
	Description string  `json:"description" binding:"required,max=500"`
	Quantity    float64 `json:"quantity" binding:"gt=0"`
	Rate        float64 `json:"rate" binding:"gte=0"`
}

func toLineItems(items []LineItemRequest) []entity.LineItem {
	if items == nil {
		return nil
	}
	out := make([]entity.LineItem, len(items))
	for i, item := range items {
		out[i] = entity.LineItem{Description: item.Description, Quantity: item.Quantity, Rate: item.Rate}
	}
	return out
}

// CreateInvoiceRequest is the body of POST /api/invoices. Amount is in minor units.
type CreateInvoiceRequest struct {
	TemplateID     string            `json:"template_id"`
	Amount         *int64            `json:"amount"`
	Currency       string            `json:"currency" binding:"omitempty,min=3,max=10"`
	Customer       string            `json:"customer" binding:"required,max=120"`
	Items          []LineItemRequest `json:"items" binding:"omitempty,dive"`
	TaxRate        *float64          `json:"tax_rate" binding:"omitempty,gte=0,lte=100"`
	Notes          string            `json:"notes" binding:"max=4000"`
	CompanyName    string            `json:"company_name"`
	CompanyAddress string            `json:"company_address"`
	ClientEmail    string            `json:"client_email" binding:"omitempty,email"`
	ClientAddress  string            `json:"client_address"`
	IssueDate      string            `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate        string            `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	TemplateKind   string            `json:"template_kind" binding:"omitempty,oneof=simple detailed proforma"`
}

func (r CreateInvoiceRequest) toInput() invoice.CreateInput {
	return invoice.CreateInput{
		Amount:         r.Amount,
		Currency:       r.Currency,
		Customer:       r.Customer,
		Items:          toLineItems(r.Items),
		TaxRate:        r.TaxRate,
		Notes:          r.Notes,
		CompanyName:    r.CompanyName,
		CompanyAddress: r.CompanyAddress,
		ClientEmail:    r.ClientEmail,
		ClientAddress:  r.ClientAddress,
		IssueDate:      r.IssueDate,
		DueDate:        r.DueDate,
		TemplateKind:   r.TemplateKind,
	}
}

// PatchInvoiceRequest is the body of PATCH /api/invoices/:id.
// Omitted fields are left alone; "items": [] clears the line items.
type PatchInvoiceRequest struct {
	Amount         *int64             `json:"amount"`
	Currency       *string            `json:"currency"`
	Customer       *string            `json:"customer"`
	Items          *[]LineItemRequest `json:"items" binding:"omitempty,dive"`
	TaxRate        *float64           `json:"tax_rate" binding:"omitempty,gte=0,lte=100"`
	Notes          *string            `json:"notes"`
	CompanyName    *string            `json:"company_name"`
	CompanyAddress *string            `json:"company_address"`
	ClientEmail    *string            `json:"client_email"`
	ClientAddress  *string            `json:"client_address"`
	IssueDate      *string            `json:"issue_date"`
	DueDate        *string            `json:"due_date"`
	TemplateKind   *string            `json:"template_kind"`
}

func (r PatchInvoiceRequest) toPatch() invoice.Patch {
	p := invoice.Patch{
		Amount:         r.Amount,
		Currency:       r.Currency,
		Customer:       r.Customer,
		TaxRate:        r.TaxRate,
		Notes:          r.Notes,
		CompanyName:    r.CompanyName,
		CompanyAddress: r.CompanyAddress,
		ClientEmail:    r.ClientEmail,
		ClientAddress:  r.ClientAddress,
		IssueDate:      r.IssueDate,
		DueDate:        r.DueDate,
		TemplateKind:   r.TemplateKind,
	}
	if r.Items != nil {
		items := toLineItems(*r.Items)
		if items == nil {
			items = []entity.LineItem{}
		}
		p.Items = &items
	}
	return p
}

// ListInvoicesRequest represents query parameters for listing invoices
type ListInvoicesRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending paid void"`
	Customer string `form:"customer"`
	Limit    int    `form:"limit" binding:"gte=0"`
	Offset   int    `form:"offset" binding:"gte=0"`
}

func (r ListInvoicesRequest) toFilter() entity.InvoiceFilter {
	return entity.InvoiceFilter{Status: r.Status, Customer: r.Customer, Limit: r.Limit, Offset: r.Offset}
}

// PreviewTotalsRequest is the body of POST /api/invoices/preview-totals
type PreviewTotalsRequest struct {
	Items    []LineItemRequest `json:"items" binding:"dive"`
	TaxRate  float64           `json:"tax_rate" binding:"gte=0,lte=100"`
	Currency string            `json:"currency"`
}

// SendInvoiceRequest is the optional body of POST /api/invoices/:id/send
type SendInvoiceRequest struct {
	To string `json:"to" binding:"omitempty,email"`
}

// TemplateRequest is the body of template create and update
type TemplateRequest struct {
	Name           string            `json:"name" binding:"required,max=120"`
	Kind           string            `json:"kind" binding:"omitempty,oneof=simple detailed proforma"`
	Currency       string            `json:"currency"`
	CompanyName    string            `json:"company_name"`
	CompanyAddress string            `json:"company_address"`
	Notes          string            `json:"notes"`
	TaxRate        *float64          `json:"tax_rate"`
	Items          []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

func (r TemplateRequest) toEntity() *entity.Template {
	return &entity.Template{
		Name:           r.Name,
		Kind:           r.Kind,
		Currency:       r.Currency,
		CompanyName:    r.CompanyName,
		CompanyAddress: r.CompanyAddress,
		Notes:          r.Notes,
		TaxRate:        r.TaxRate,
		Items:          toLineItems(r.Items),
	}
}

// ProfileRequest is the body of PUT /api/profile
type ProfileRequest struct {
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

// TotalsResponse reports computed totals in minor units with display strings
type TotalsResponse struct {
	Subtotal          int64  `json:"subtotal"`
	Tax               int64  `json:"tax"`
	Total             int64  `json:"total"`
	FormattedSubtotal string `json:"formatted_subtotal,omitempty"`
	FormattedTax      string `json:"formatted_tax,omitempty"`
	FormattedTotal    string `json:"formatted_total,omitempty"`
}
