package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	EUR Currency = "EUR" // Euro (default)
	USD Currency = "USD" // US Dollar
	GBP Currency = "GBP" // British Pound
	CHF Currency = "CHF" // Swiss Franc
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = EUR

// CurrencyScale is the number of decimal places carried by all monetary
// amounts. Rounding is applied at this scale whenever a derived amount is
// produced, never deferred to output formatting.
const CurrencyScale = 2

// Money is a value object representing monetary amounts.
// It is immutable - all operations return new Money instances.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// NewMoneyEUR creates Money in EUR
func NewMoneyEUR(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: EUR}
}

// NewMoneyEURFromFloat creates Money in EUR from float64
func NewMoneyEURFromFloat(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: EUR}
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// ZeroEUR returns a zero-value Money in EUR
func ZeroEUR() Money {
	return Zero(EUR)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns a new Money with the sum of both amounts.
// Returns error if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// MustAdd adds two Money values, panics if currencies don't match
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns a new Money with the difference.
// Returns error if currencies don't match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// MustSubtract subtracts two Money values, panics if currencies don't match
func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Multiply returns a new Money multiplied by the given factor.
// The result is not rounded; callers producing a derived field round it
// explicitly via RoundHalfUp.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// RoundHalfUp returns the amount rounded half-up at the currency scale.
func (m Money) RoundHalfUp() Money {
	return Money{amount: m.amount.Round(CurrencyScale), currency: m.currency}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThan returns true if this Money is greater than the other.
// Both values must share a currency; mismatches report false.
func (m Money) GreaterThan(other Money) bool {
	return m.currency == other.currency && m.amount.GreaterThan(other.amount)
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(CurrencyScale), m.currency)
}

// StringFixed returns the amount as a string at the currency scale
func (m Money) StringFixed() string {
	return m.amount.StringFixed(CurrencyScale)
}

// ApplyPercentage returns pct percent of the amount, rounded half-up at the
// currency scale. pct is an exact percentage value (19 means 19%).
func (m Money) ApplyPercentage(pct decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(CurrencyScale),
		currency: m.currency,
	}
}

// NetPlusTax computes the tax amount for the given rate and the resulting
// gross amount. The tax is rounded half-up before the gross is derived, so
// net + tax == gross holds exactly post-rounding.
func (m Money) NetPlusTax(taxRatePct decimal.Decimal) (tax, gross Money) {
	tax = m.ApplyPercentage(taxRatePct)
	gross = m.MustAdd(tax)
	return tax, gross
}

// ApplyDiscount applies a discount to the amount and returns the effective
// discount and the remainder. When both an absolute amount and a percentage
// are supplied the absolute amount wins and the percentage is ignored. A
// remainder that would be negative is clamped to zero.
func (m Money) ApplyDiscount(discountPct *decimal.Decimal, discountAmount *Money) (discount, remainder Money) {
	switch {
	case discountAmount != nil && discountAmount.amount.IsPositive():
		discount = Money{amount: discountAmount.amount.Round(CurrencyScale), currency: m.currency}
	case discountPct != nil && discountPct.IsPositive():
		discount = m.ApplyPercentage(*discountPct)
	default:
		return Zero(m.currency), m
	}

	remainder = m.MustSubtract(discount)
	if remainder.IsNegative() {
		remainder = Zero(m.currency)
	}
	return discount, remainder
}
