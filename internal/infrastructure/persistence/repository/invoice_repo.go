package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/infrastructure/persistence/sqlstore"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

const invoiceColumns = `id, user_id, amount, currency, customer, status, items, tax_rate,
	notes, company_name, company_address, client_email, client_address,
	issue_date, due_date, template_kind, created_at, updated_at`

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sqlstore.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new invoice row
func (r *InvoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	items, err := encodeItems(inv.Items)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		inv.ID,
		inv.UserID,
		inv.Amount,
		inv.Currency,
		inv.Customer,
		inv.Status,
		items,
		nullableFloat(inv.TaxRate),
		inv.Notes,
		inv.CompanyName,
		inv.CompanyAddress,
		inv.ClientEmail,
		inv.ClientAddress,
		inv.IssueDate,
		inv.DueDate,
		inv.TemplateKind,
		inv.CreatedAt.UTC(),
		inv.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create invoice",
			zap.String("invoice_id", inv.ID),
			zap.String("user_id", inv.UserID),
			zap.Error(err))
		return storageError(err, "failed to create invoice")
	}
	return nil
}

// GetByID returns the invoice owned by userID, or nil when there is none
func (r *InvoiceRepository) GetByID(ctx context.Context, id, userID string) (*entity.Invoice, error) {
	query := r.db.Rebind(`SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ? AND user_id = ?`)

	inv, err := scanInvoice(r.db.Executor(ctx).QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.String("invoice_id", id), zap.Error(err))
		return nil, storageError(err, "failed to get invoice")
	}
	return inv, nil
}

// Update overwrites the editable columns of the row matching id and owner.
// The last writer wins. Status only moves through UpdateStatus.
func (r *InvoiceRepository) Update(ctx context.Context, inv *entity.Invoice) error {
	items, err := encodeItems(inv.Items)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		UPDATE invoices SET
			amount = ?, currency = ?, customer = ?, items = ?, tax_rate = ?,
			notes = ?, company_name = ?, company_address = ?, client_email = ?, client_address = ?,
			issue_date = ?, due_date = ?, template_kind = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		inv.Amount,
		inv.Currency,
		inv.Customer,
		items,
		nullableFloat(inv.TaxRate),
		inv.Notes,
		inv.CompanyName,
		inv.CompanyAddress,
		inv.ClientEmail,
		inv.ClientAddress,
		inv.IssueDate,
		inv.DueDate,
		inv.TemplateKind,
		inv.UpdatedAt.UTC(),
		inv.ID,
		inv.UserID,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice", zap.String("invoice_id", inv.ID), zap.Error(err))
		return storageError(err, "failed to update invoice")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageError(err, "failed to get rows affected")
	}
	if rows == 0 {
		return apperror.New(apperror.KindNotFound, "invoice %s not found", inv.ID)
	}
	return nil
}

// UpdateStatus is a compare-and-set on status: the row changes only while it
// still holds from.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, inv *entity.Invoice, from string) (bool, error) {
	query := r.db.Rebind(`
		UPDATE invoices SET status = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		inv.Status, inv.UpdatedAt.UTC(), inv.ID, inv.UserID, from)
	if err != nil {
		r.logger.Error("Failed to update invoice status",
			zap.String("invoice_id", inv.ID),
			zap.String("from", from),
			zap.String("to", inv.Status),
			zap.Error(err))
		return false, storageError(err, "failed to update invoice status")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storageError(err, "failed to get rows affected")
	}
	return rows == 1, nil
}

// List returns the user's invoices, newest first
func (r *InvoiceRepository) List(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []interface{}{userID}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Customer != "" {
		where = append(where, "LOWER(customer) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Customer)+"%")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := r.db.Rebind(`SELECT ` + invoiceColumns + ` FROM invoices WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.String("user_id", userID), zap.Error(err))
		return nil, storageError(err, "failed to list invoices")
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, storageError(err, "failed to scan invoice")
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "failed to read invoices")
	}
	return invoices, nil
}

func scanInvoice(row scanner) (*entity.Invoice, error) {
	var (
		inv     entity.Invoice
		items   sql.NullString
		taxRate sql.NullFloat64
	)

	err := row.Scan(
		&inv.ID,
		&inv.UserID,
		&inv.Amount,
		&inv.Currency,
		&inv.Customer,
		&inv.Status,
		&items,
		&taxRate,
		&inv.Notes,
		&inv.CompanyName,
		&inv.CompanyAddress,
		&inv.ClientEmail,
		&inv.ClientAddress,
		&inv.IssueDate,
		&inv.DueDate,
		&inv.TemplateKind,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if inv.Items, err = decodeItems(items); err != nil {
		return nil, err
	}
	inv.TaxRate = floatPtr(taxRate)
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return &inv, nil
}

var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
