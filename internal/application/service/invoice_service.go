package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/invoice"
	"github.com/garyjia/invoice-service/internal/domain/money"
	"github.com/garyjia/invoice-service/internal/domain/workflow"
)

// InvoiceService manages the invoice lifecycle for authenticated users
type InvoiceService interface {
	// Create persists a new pending invoice, pre-filled from templateID when it is set
	Create(ctx context.Context, userID string, in invoice.CreateInput, templateID string) (*entity.Invoice, error)
	Get(ctx context.Context, userID, id string) (*entity.Invoice, error)
	List(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
	Patch(ctx context.Context, userID, id string, p invoice.Patch) (*entity.Invoice, error)
	// MarkPaid confirms payment and credits the owner's wallet on the first transition only
	MarkPaid(ctx context.Context, userID, id string) (*entity.Invoice, error)
	Void(ctx context.Context, userID, id string) (*entity.Invoice, error)
	PreviewTotals(items []entity.LineItem, taxRate float64) (money.Totals, error)
}

type invoiceServiceImpl struct {
	invoiceRepo  port.InvoiceRepository
	templateRepo port.TemplateRepository
	walletRepo   port.WalletRepository
	txManager    port.TransactionManager
	reconciler   *invoice.Reconciler
	logger       Logger
	now          func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	templateRepo port.TemplateRepository,
	walletRepo port.WalletRepository,
	txManager port.TransactionManager,
	reconciler *invoice.Reconciler,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo:  invoiceRepo,
		templateRepo: templateRepo,
		walletRepo:   walletRepo,
		txManager:    txManager,
		reconciler:   reconciler,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *invoiceServiceImpl) Create(ctx context.Context, userID string, in invoice.CreateInput, templateID string) (*entity.Invoice, error) {
	if templateID != "" {
		tpl, err := s.templateRepo.GetByID(ctx, templateID, userID)
		if err != nil {
			return nil, fmt.Errorf("get template: %w", err)
		}
		if tpl == nil {
			return nil, apperror.New(apperror.KindNotFound, "template %s not found", templateID)
		}
		in = invoice.ApplyTemplate(in, tpl)
	}

	inv, err := s.reconciler.Create(userID, in, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		s.logger.Error("Failed to create invoice", "error", err, "user_id", userID)
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.logger.Info("Invoice created",
		"invoice_id", inv.ID,
		"user_id", userID,
		"amount", inv.Amount,
		"currency", inv.Currency,
		"items", len(inv.Items))
	return inv, nil
}

func (s *invoiceServiceImpl) Get(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv == nil {
		return nil, apperror.New(apperror.KindNotFound, "invoice %s not found", id)
	}
	return inv, nil
}

func (s *invoiceServiceImpl) List(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	if filter.Status != "" && !entity.ValidStatuses[filter.Status] {
		return nil, apperror.New(apperror.KindValidationFailed, "unknown status %q", filter.Status)
	}
	invoices, err := s.invoiceRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (s *invoiceServiceImpl) Patch(ctx context.Context, userID, id string, p invoice.Patch) (*entity.Invoice, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.reconciler.Patch(existing, p, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, updated); err != nil {
		s.logger.Error("Failed to update invoice", "error", err, "invoice_id", id)
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	if p.IsMoneyPatch() && updated.Amount != existing.Amount {
		s.logger.Info("Invoice amount changed",
			"invoice_id", id,
			"old_amount", existing.Amount,
			"new_amount", updated.Amount)
	}
	return updated, nil
}

func (s *invoiceServiceImpl) MarkPaid(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	var result *entity.Invoice
	credited := false

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.Get(txCtx, userID, id)
		if err != nil {
			return err
		}

		paid, changed, err := s.reconciler.MarkPaid(existing, userID, s.now())
		if err != nil {
			return err
		}
		result = paid
		if !changed {
			return nil
		}

		swapped, err := s.invoiceRepo.UpdateStatus(txCtx, paid, existing.Status)
		if err != nil {
			return fmt.Errorf("update invoice status: %w", err)
		}
		if !swapped {
			// another request moved the invoice first; report where it ended up
			result, err = s.settle(txCtx, userID, id, workflow.TriggerPay)
			return err
		}

		if err := s.walletRepo.Credit(txCtx, userID, paid.Currency, paid.Amount); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		credited = true
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to mark invoice paid", "error", err, "invoice_id", id)
		return nil, err
	}

	if credited {
		s.logger.Info("Invoice paid",
			"invoice_id", id,
			"user_id", userID,
			"amount", result.Amount,
			"currency", result.Currency)
	}
	return result, nil
}

func (s *invoiceServiceImpl) Void(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	voided, err := s.reconciler.Void(existing, userID, s.now())
	if err != nil {
		return nil, err
	}
	if voided.Status != existing.Status {
		swapped, err := s.invoiceRepo.UpdateStatus(ctx, voided, existing.Status)
		if err != nil {
			s.logger.Error("Failed to void invoice", "error", err, "invoice_id", id)
			return nil, fmt.Errorf("update invoice status: %w", err)
		}
		if !swapped {
			return s.settle(ctx, userID, id, workflow.TriggerVoid)
		}
	}

	s.logger.Info("Invoice voided", "invoice_id", id, "user_id", userID)
	return voided, nil
}

// settle re-reads an invoice whose status changed under a transition and
// replays the trigger against the stored status. The replay may only be a
// no-op or a refusal; anything else means the row is still moving.
func (s *invoiceServiceImpl) settle(ctx context.Context, userID, id string, trigger workflow.Trigger) (*entity.Invoice, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var (
		out     *entity.Invoice
		changed bool
	)
	switch trigger {
	case workflow.TriggerPay:
		out, changed, err = s.reconciler.MarkPaid(current, userID, s.now())
	default:
		out, err = s.reconciler.Void(current, userID, s.now())
		changed = err == nil && out.Status != current.Status
	}
	if err != nil {
		return nil, err
	}
	if changed {
		return nil, apperror.New(apperror.KindStorageUnavailable, "invoice %s changed concurrently, retry", id)
	}
	return out, nil
}

func (s *invoiceServiceImpl) PreviewTotals(items []entity.LineItem, taxRate float64) (money.Totals, error) {
	return money.ComputeTotals(items, taxRate)
}
