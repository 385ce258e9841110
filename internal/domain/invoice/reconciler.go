// Package invoice owns the rules that keep an invoice's amount, line items and
// tax rate consistent across creation, partial updates and status changes.
package invoice

import (
	"strings"
	"time"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/money"
	"github.com/garyjia/invoice-service/internal/domain/workflow"
	"github.com/google/uuid"
)

// Reconciler validates invoice changes and derives the canonical amount.
// It never mutates the snapshot it is given.
type Reconciler struct {
	newID func() string
}

// NewReconciler creates a reconciler. A nil newID uses random UUIDs.
func NewReconciler(newID func() string) *Reconciler {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Reconciler{newID: newID}
}

// Create builds a new pending invoice for userID
func (r *Reconciler) Create(userID string, in CreateInput, now time.Time) (*entity.Invoice, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.New(apperror.KindValidationFailed, "user_id is required")
	}

	now = now.UTC()
	inv := &entity.Invoice{
		ID:             r.newID(),
		UserID:         userID,
		Currency:       strings.TrimSpace(in.Currency),
		Customer:       strings.TrimSpace(in.Customer),
		Status:         entity.StatusPending,
		Notes:          in.Notes,
		CompanyName:    in.CompanyName,
		CompanyAddress: in.CompanyAddress,
		ClientEmail:    strings.TrimSpace(in.ClientEmail),
		ClientAddress:  in.ClientAddress,
		IssueDate:      in.IssueDate,
		DueDate:        in.DueDate,
		TemplateKind:   in.TemplateKind,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if inv.TemplateKind == "" {
		inv.TemplateKind = entity.TemplateSimple
	}

	if err := validateSnapshot(inv); err != nil {
		return nil, err
	}

	if len(in.Items) > 0 {
		tax := 0.0
		if in.TaxRate != nil {
			tax = *in.TaxRate
		}
		totals, err := money.ComputeTotals(in.Items, tax)
		if err != nil {
			return nil, err
		}
		inv.Items = append([]entity.LineItem(nil), in.Items...)
		inv.TaxRate = &tax
		inv.Amount = totals.Total
	} else {
		if in.Amount == nil {
			return nil, apperror.New(apperror.KindInvalidAmount, "amount is required when no line items are given")
		}
		inv.Amount = *in.Amount
	}

	if err := money.ValidateAmount(inv.Amount); err != nil {
		return nil, err
	}
	return inv, nil
}

// Patch merges p into a copy of existing and recomputes the amount.
// Line items win over an explicit amount; replacing items with an empty list
// also clears the tax rate, whatever the patch says about it.
func (r *Reconciler) Patch(existing *entity.Invoice, p Patch, now time.Time) (*entity.Invoice, error) {
	out := existing.Clone()

	if p.Currency != nil {
		out.Currency = strings.TrimSpace(*p.Currency)
	}
	if p.Customer != nil {
		out.Customer = strings.TrimSpace(*p.Customer)
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.CompanyName != nil {
		out.CompanyName = *p.CompanyName
	}
	if p.CompanyAddress != nil {
		out.CompanyAddress = *p.CompanyAddress
	}
	if p.ClientEmail != nil {
		out.ClientEmail = strings.TrimSpace(*p.ClientEmail)
	}
	if p.ClientAddress != nil {
		out.ClientAddress = *p.ClientAddress
	}
	if p.IssueDate != nil {
		out.IssueDate = *p.IssueDate
	}
	if p.DueDate != nil {
		out.DueDate = *p.DueDate
	}
	if p.TemplateKind != nil {
		out.TemplateKind = *p.TemplateKind
	}

	if err := validateSnapshot(out); err != nil {
		return nil, err
	}

	switch {
	case p.Items != nil && len(*p.Items) > 0:
		if err := money.ValidateItems(*p.Items); err != nil {
			return nil, err
		}
		tax := 0.0
		if p.TaxRate != nil {
			tax = *p.TaxRate
		}
		out.Items = append([]entity.LineItem(nil), (*p.Items)...)
		out.TaxRate = &tax
	case p.Items != nil:
		out.Items = nil
		out.TaxRate = nil
	case p.TaxRate != nil:
		rate := *p.TaxRate
		out.TaxRate = &rate
	}

	if out.TaxRate != nil {
		if err := money.ValidateTaxRate(*out.TaxRate); err != nil {
			return nil, err
		}
	}

	if out.HasItems() {
		tax := 0.0
		if out.TaxRate != nil {
			tax = *out.TaxRate
		}
		totals, err := money.ComputeTotals(out.Items, tax)
		if err != nil {
			return nil, err
		}
		out.Amount = totals.Total
	} else if p.Amount != nil {
		out.Amount = *p.Amount
	}

	if err := money.ValidateAmount(out.Amount); err != nil {
		return nil, err
	}

	out.UpdatedAt = now.UTC()
	return out, nil
}

// MarkPaid moves a pending invoice to paid. Paying a paid invoice succeeds without change.
// changed is true only on the pending to paid transition.
func (r *Reconciler) MarkPaid(existing *entity.Invoice, userID string, now time.Time) (out *entity.Invoice, changed bool, err error) {
	return r.transition(existing, userID, workflow.TriggerPay, now)
}

// Void cancels a pending invoice
func (r *Reconciler) Void(existing *entity.Invoice, userID string, now time.Time) (*entity.Invoice, error) {
	out, _, err := r.transition(existing, userID, workflow.TriggerVoid, now)
	return out, err
}

func (r *Reconciler) transition(existing *entity.Invoice, userID string, trigger workflow.Trigger, now time.Time) (*entity.Invoice, bool, error) {
	if existing == nil || existing.UserID != userID {
		return nil, false, apperror.New(apperror.KindNotFound, "invoice not found")
	}

	machine, err := workflow.NewInvoiceMachine(existing.Status)
	if err != nil {
		return nil, false, apperror.Wrap(apperror.KindValidationFailed, err, "invoice has unknown status %q", existing.Status)
	}
	if err := machine.Fire(trigger); err != nil {
		return nil, false, apperror.Wrap(apperror.KindValidationFailed, err, "cannot %s an invoice that is %s", strings.ToLower(trigger.String()), existing.Status)
	}

	next := machine.State().String()
	if next == existing.Status {
		return existing.Clone(), false, nil
	}

	out := existing.Clone()
	out.Status = next
	out.UpdatedAt = now.UTC()
	return out, true, nil
}
