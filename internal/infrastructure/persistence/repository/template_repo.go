package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/infrastructure/persistence/sqlstore"
	"go.uber.org/zap"
)

const templateColumns = `id, user_id, name, kind, currency, company_name, company_address,
	notes, tax_rate, items, created_at, updated_at`

// TemplateRepository implements port.TemplateRepository
type TemplateRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sqlstore.DB, logger *zap.Logger) port.TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new template
func (r *TemplateRepository) Create(ctx context.Context, tpl *entity.Template) error {
	items, err := encodeItems(tpl.Items)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO invoice_templates (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		tpl.ID, tpl.UserID, tpl.Name, tpl.Kind, tpl.Currency,
		tpl.CompanyName, tpl.CompanyAddress, tpl.Notes,
		nullableFloat(tpl.TaxRate), items,
		tpl.CreatedAt.UTC(), tpl.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create template", zap.String("template_id", tpl.ID), zap.Error(err))
		return storageError(err, "failed to create template")
	}
	return nil
}

// GetByID returns the template owned by userID, or nil when there is none
func (r *TemplateRepository) GetByID(ctx context.Context, id, userID string) (*entity.Template, error) {
	query := r.db.Rebind(`SELECT ` + templateColumns + ` FROM invoice_templates WHERE id = ? AND user_id = ?`)

	tpl, err := scanTemplate(r.db.Executor(ctx).QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get template", zap.String("template_id", id), zap.Error(err))
		return nil, storageError(err, "failed to get template")
	}
	return tpl, nil
}

// Update overwrites a template's editable fields
func (r *TemplateRepository) Update(ctx context.Context, tpl *entity.Template) error {
	items, err := encodeItems(tpl.Items)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		UPDATE invoice_templates SET
			name = ?, kind = ?, currency = ?, company_name = ?, company_address = ?,
			notes = ?, tax_rate = ?, items = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`)
	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		tpl.Name, tpl.Kind, tpl.Currency, tpl.CompanyName, tpl.CompanyAddress,
		tpl.Notes, nullableFloat(tpl.TaxRate), items, tpl.UpdatedAt.UTC(),
		tpl.ID, tpl.UserID,
	)
	if err != nil {
		r.logger.Error("Failed to update template", zap.String("template_id", tpl.ID), zap.Error(err))
		return storageError(err, "failed to update template")
	}
	return expectOneRow(result, "template", tpl.ID)
}

// Delete removes a template
func (r *TemplateRepository) Delete(ctx context.Context, id, userID string) error {
	query := r.db.Rebind(`DELETE FROM invoice_templates WHERE id = ? AND user_id = ?`)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, id, userID)
	if err != nil {
		r.logger.Error("Failed to delete template", zap.String("template_id", id), zap.Error(err))
		return storageError(err, "failed to delete template")
	}
	return expectOneRow(result, "template", id)
}

// List returns the user's templates ordered by name
func (r *TemplateRepository) List(ctx context.Context, userID string) ([]*entity.Template, error) {
	query := r.db.Rebind(`SELECT ` + templateColumns + ` FROM invoice_templates WHERE user_id = ? ORDER BY name ASC, id ASC`)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list templates", zap.String("user_id", userID), zap.Error(err))
		return nil, storageError(err, "failed to list templates")
	}
	defer rows.Close()

	var templates []*entity.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, storageError(err, "failed to scan template")
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "failed to read templates")
	}
	return templates, nil
}

func scanTemplate(row scanner) (*entity.Template, error) {
	var (
		tpl     entity.Template
		taxRate sql.NullFloat64
		items   sql.NullString
	)
	err := row.Scan(
		&tpl.ID, &tpl.UserID, &tpl.Name, &tpl.Kind, &tpl.Currency,
		&tpl.CompanyName, &tpl.CompanyAddress, &tpl.Notes,
		&taxRate, &items, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tpl.Items, err = decodeItems(items); err != nil {
		return nil, err
	}
	tpl.TaxRate = floatPtr(taxRate)
	tpl.CreatedAt = tpl.CreatedAt.UTC()
	tpl.UpdatedAt = tpl.UpdatedAt.UTC()
	return &tpl, nil
}

func expectOneRow(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return storageError(err, "failed to get rows affected")
	}
	if rows == 0 {
		return apperror.New(apperror.KindNotFound, "%s %s not found", what, id)
	}
	return nil
}

var _ port.TemplateRepository = (*TemplateRepository)(nil)
