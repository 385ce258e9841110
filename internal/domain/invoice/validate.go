package invoice

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/pkg/utils"
)

const (
	minCurrencyLen = 3
	maxCurrencyLen = 10
	maxCustomerLen = 120
	maxNotesLen    = 4000
	dateLayout     = "2006-01-02"
)

func validateCurrency(currency string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(currency))
	if n < minCurrencyLen || n > maxCurrencyLen {
		return apperror.New(apperror.KindValidationFailed, "currency must be between %d and %d characters", minCurrencyLen, maxCurrencyLen)
	}
	return nil
}

func validateCustomer(customer string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(customer))
	if n == 0 || n > maxCustomerLen {
		return apperror.New(apperror.KindValidationFailed, "customer must be between 1 and %d characters", maxCustomerLen)
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLen {
		return apperror.New(apperror.KindValidationFailed, "notes must be at most %d characters", maxNotesLen)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if err := utils.ValidateEmail(email); err != nil {
		return apperror.Wrap(apperror.KindValidationFailed, err, "client_email is not a valid address")
	}
	return nil
}

func validateDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return apperror.New(apperror.KindValidationFailed, "%s must be formatted as YYYY-MM-DD", field)
	}
	return nil
}

func validateTemplateKind(kind string) error {
	if !entity.ValidTemplateKinds[kind] {
		return apperror.New(apperror.KindValidationFailed, "template_kind must be one of simple, detailed, proforma")
	}
	return nil
}

// validateSnapshot checks every non-money field of an invoice
func validateSnapshot(inv *entity.Invoice) error {
	checks := []error{
		validateCurrency(inv.Currency),
		validateCustomer(inv.Customer),
		validateNotes(inv.Notes),
		validateEmail(inv.ClientEmail),
		validateDate("issue_date", inv.IssueDate),
		validateDate("due_date", inv.DueDate),
		validateTemplateKind(inv.TemplateKind),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}
