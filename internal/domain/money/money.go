// Package money computes invoice totals in integer minor units.
//
// Inputs arrive as float64 quantities, rates and percentages. They are lifted
// into exact decimals and the total is rounded exactly once, half away from zero,
// so 2 x 10.50 at 10% tax is always 2310 minor units.
package money

import (
	"math"
	"strings"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MinorPerMajor is the number of minor units in one major unit for every currency.
const MinorPerMajor = 100

// MaxTaxRate is the largest accepted tax percentage
const MaxTaxRate = 100.0

var hundred = decimal.NewFromInt(MinorPerMajor)

// Totals holds the three figures printed on an invoice.
// Total is authoritative; Subtotal and Tax are rounded for display only.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// ComputeTotals returns subtotal, tax and total in minor units.
// total = round((sum(qty*rate)) * (1 + taxRate/100) * 100).
func ComputeTotals(items []entity.LineItem, taxRate float64) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, apperror.New(apperror.KindInvalidAmount, "at least one line item is required to compute totals")
	}
	if err := ValidateItems(items); err != nil {
		return Totals{}, err
	}
	if err := ValidateTaxRate(taxRate); err != nil {
		return Totals{}, err
	}

	subtotal := Subtotal(items)
	rate := decimal.NewFromFloat(taxRate)

	// subtotal * (100 + t) == subtotal * (1 + t/100) * 100 without a division
	total := subtotal.Mul(hundred.Add(rate)).Round(0)

	return Totals{
		Subtotal: subtotal.Mul(hundred).Round(0).IntPart(),
		Tax:      subtotal.Mul(rate).Round(0).IntPart(),
		Total:    total.IntPart(),
	}, nil
}

// Subtotal sums quantity*rate over items in major units without rounding
func Subtotal(items []entity.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.Rate)))
	}
	return sum
}

// LineAmount returns quantity*rate of a single item in minor units, rounded for display
func LineAmount(item entity.LineItem) int64 {
	return decimal.NewFromFloat(item.Quantity).
		Mul(decimal.NewFromFloat(item.Rate)).
		Mul(hundred).
		Round(0).
		IntPart()
}

// ValidateItems checks every line item's description, quantity and rate
func ValidateItems(items []entity.LineItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return apperror.New(apperror.KindValidationFailed, "items[%d].description is required", i)
		}
		if !isFinite(item.Quantity) || item.Quantity <= 0 {
			return apperror.New(apperror.KindValidationFailed, "items[%d].quantity must be greater than zero", i)
		}
		if !isFinite(item.Rate) || item.Rate < 0 {
			return apperror.New(apperror.KindValidationFailed, "items[%d].rate must not be negative", i)
		}
	}
	return nil
}

// ValidateTaxRate checks that a tax percentage lies in [0, 100]
func ValidateTaxRate(rate float64) error {
	if !isFinite(rate) || rate < 0 || rate > MaxTaxRate {
		return apperror.New(apperror.KindValidationFailed, "tax_rate must be between 0 and 100")
	}
	return nil
}

// ValidateAmount checks that a stored amount is strictly positive
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return apperror.New(apperror.KindInvalidAmount, "amount must be greater than zero, got %d", amount)
	}
	return nil
}

// ToMinor converts a major-unit value to minor units with half-away-from-zero rounding
func ToMinor(major float64) int64 {
	return decimal.NewFromFloat(major).Mul(hundred).Round(0).IntPart()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
