package money

import (
	"errors"
	"math"
	"testing"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name    string
		items   []entity.LineItem
		taxRate float64
		want    Totals
	}{
		{
			name:    "single item with tax",
			items:   []entity.LineItem{{Description: "Consulting", Quantity: 2, Rate: 10.5}},
			taxRate: 10,
			want:    Totals{Subtotal: 2100, Tax: 210, Total: 2310},
		},
		{
			name:    "float-unfriendly rates stay exact",
			items:   []entity.LineItem{{Description: "Widget", Quantity: 3, Rate: 0.1}},
			taxRate: 0,
			want:    Totals{Subtotal: 30, Tax: 0, Total: 30},
		},
		{
			name:    "half cent rounds away from zero",
			items:   []entity.LineItem{{Description: "Fraction", Quantity: 1, Rate: 0.125}},
			taxRate: 0,
			want:    Totals{Subtotal: 13, Tax: 0, Total: 13},
		},
		{
			name:    "fractional tax rate rounds once on the total",
			items:   []entity.LineItem{{Description: "Book", Quantity: 1, Rate: 9.99}},
			taxRate: 8.25,
			want:    Totals{Subtotal: 999, Tax: 82, Total: 1081},
		},
		{
			name: "multiple items",
			items: []entity.LineItem{
				{Description: "Design", Quantity: 1, Rate: 19.99},
				{Description: "Hosting", Quantity: 3, Rate: 5},
			},
			taxRate: 0,
			want:    Totals{Subtotal: 3499, Tax: 0, Total: 3499},
		},
		{
			name:    "free item",
			items:   []entity.LineItem{{Description: "Gift", Quantity: 1, Rate: 0}},
			taxRate: 20,
			want:    Totals{Subtotal: 0, Tax: 0, Total: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(tt.items, tt.taxRate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeTotals_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		items    []entity.LineItem
		taxRate  float64
		wantKind apperror.Kind
	}{
		{"no items", nil, 0, apperror.KindInvalidAmount},
		{"empty description", []entity.LineItem{{Description: "  ", Quantity: 1, Rate: 1}}, 0, apperror.KindValidationFailed},
		{"zero quantity", []entity.LineItem{{Description: "x", Quantity: 0, Rate: 1}}, 0, apperror.KindValidationFailed},
		{"negative rate", []entity.LineItem{{Description: "x", Quantity: 1, Rate: -1}}, 0, apperror.KindValidationFailed},
		{"NaN rate", []entity.LineItem{{Description: "x", Quantity: 1, Rate: math.NaN()}}, 0, apperror.KindValidationFailed},
		{"tax above 100", []entity.LineItem{{Description: "x", Quantity: 1, Rate: 1}}, 100.5, apperror.KindValidationFailed},
		{"negative tax", []entity.LineItem{{Description: "x", Quantity: 1, Rate: 1}}, -1, apperror.KindValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeTotals(tt.items, tt.taxRate)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperror.KindOf(err))
		})
	}
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(1))
	assert.True(t, errors.Is(ValidateAmount(0), apperror.ErrInvalidAmount))
	assert.True(t, errors.Is(ValidateAmount(-100), apperror.ErrInvalidAmount))
}

func TestLineAmountAndToMinor(t *testing.T) {
	assert.Equal(t, int64(2100), LineAmount(entity.LineItem{Description: "a", Quantity: 2, Rate: 10.5}))
	assert.Equal(t, int64(1999), ToMinor(19.99))
	assert.Equal(t, int64(-125), ToMinor(-1.245))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{123456, "usd", "$1,234.56"},
		{123456, "USD", "$1,234.56"},
		{5, "eur", "€0.05"},
		{100000000, "gbp", "£1,000,000.00"},
		{-250, "usd", "-$2.50"},
		{1000, "xyz", "XYZ 10.00"},
		{99999, "chf", "CHF 999.99"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.minor, tt.currency))
		})
	}
}
