package port

import (
	"context"

	"github.com/garyjia/invoice-service/internal/domain/entity"
)

// InvoiceRepository defines persistence operations for invoices.
// Every lookup is scoped to the owning user; a row owned by someone else is reported as missing.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id, userID string) (*entity.Invoice, error)
	// Update writes the editable fields; status is left untouched
	Update(ctx context.Context, inv *entity.Invoice) error
	// UpdateStatus moves the row to inv.Status only if it is still in status from.
	// It reports false when another writer changed the status first.
	UpdateStatus(ctx context.Context, inv *entity.Invoice, from string) (bool, error)
	List(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
}

// TemplateRepository defines persistence operations for invoice templates
type TemplateRepository interface {
	Create(ctx context.Context, tpl *entity.Template) error
	GetByID(ctx context.Context, id, userID string) (*entity.Template, error)
	Update(ctx context.Context, tpl *entity.Template) error
	Delete(ctx context.Context, id, userID string) error
	List(ctx context.Context, userID string) ([]*entity.Template, error)
}

// ProfileRepository defines persistence operations for user profiles
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*entity.Profile, error)
	Upsert(ctx context.Context, profile *entity.Profile) error
}

// WalletRepository defines persistence operations for wallet balances
type WalletRepository interface {
	// Credit atomically adds amount to the (userID, currency) balance, creating it when absent
	Credit(ctx context.Context, userID, currency string, amount int64) error
	List(ctx context.Context, userID string) ([]*entity.Wallet, error)
}

// TransactionManager runs fn inside a database transaction carried by ctx
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
