package invoice

import (
	"strings"
	"unicode/utf8"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/money"
)

const maxTemplateNameLen = 120

// ValidateTemplate checks a template before it is stored. Every default is optional.
func ValidateTemplate(tpl *entity.Template) error {
	n := utf8.RuneCountInString(strings.TrimSpace(tpl.Name))
	if n == 0 || n > maxTemplateNameLen {
		return apperror.New(apperror.KindValidationFailed, "name must be between 1 and %d characters", maxTemplateNameLen)
	}
	if err := validateTemplateKind(tpl.Kind); err != nil {
		return err
	}
	if tpl.Currency != "" {
		if err := validateCurrency(tpl.Currency); err != nil {
			return err
		}
	}
	if err := validateNotes(tpl.Notes); err != nil {
		return err
	}
	if len(tpl.Items) > 0 {
		if err := money.ValidateItems(tpl.Items); err != nil {
			return err
		}
	}
	if tpl.TaxRate != nil {
		if err := money.ValidateTaxRate(*tpl.TaxRate); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTemplate fills the fields in is left empty with the template's defaults.
// Template items are used only when the caller supplied neither items nor an amount.
func ApplyTemplate(in CreateInput, tpl *entity.Template) CreateInput {
	if tpl == nil {
		return in
	}

	if in.Currency == "" {
		in.Currency = tpl.Currency
	}
	if in.CompanyName == "" {
		in.CompanyName = tpl.CompanyName
	}
	if in.CompanyAddress == "" {
		in.CompanyAddress = tpl.CompanyAddress
	}
	if in.Notes == "" {
		in.Notes = tpl.Notes
	}
	if in.TemplateKind == "" {
		in.TemplateKind = tpl.Kind
	}
	if len(in.Items) == 0 && in.Amount == nil && len(tpl.Items) > 0 {
		in.Items = append([]entity.LineItem(nil), tpl.Items...)
	}
	if in.TaxRate == nil && tpl.TaxRate != nil {
		rate := *tpl.TaxRate
		in.TaxRate = &rate
	}
	return in
}
