package entity

import "time"

// Profile is a user's account-level branding
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      *string   `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Branding extracts the fields the document renderer uses
func (p *Profile) Branding() Branding {
	if p == nil {
		return Branding{}
	}
	return Branding{Name: p.Name}
}

// Wallet is a per-currency running balance credited by paid invoices
type Wallet struct {
	UserID    string    `json:"user_id"`
	Currency  string    `json:"currency"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}
