package entity

import "time"

// Template holds reusable defaults for new invoices
type Template struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	Kind           string     `json:"kind"`
	Currency       string     `json:"currency,omitempty"`
	CompanyName    string     `json:"company_name,omitempty"`
	CompanyAddress string     `json:"company_address,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	TaxRate        *float64   `json:"tax_rate,omitempty"`
	Items          []LineItem `json:"items,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
