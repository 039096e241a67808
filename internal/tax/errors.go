package tax

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/platform/httpx"
)

// ErrorKind separates bad caller input from a broken rate table.
type ErrorKind string

const (
	// KindValidation marks bad or missing caller input.
	KindValidation ErrorKind = "validation"
	// KindConfiguration marks a missing or malformed rate table.
	KindConfiguration ErrorKind = "configuration"
)

var (
	// ErrUnsupportedTaxYear occurs for years outside the statute or without a published table.
	ErrUnsupportedTaxYear = errors.New("unsupported tax year")
	// ErrUnknownServiceCategory occurs for categories outside the closed WHT set.
	ErrUnknownServiceCategory = errors.New("unknown service category")
	// ErrUnknownTaxpayerClass occurs for classes outside individual/sole_proprietor/company.
	ErrUnknownTaxpayerClass = errors.New("unknown taxpayer class")
	// ErrUnknownTransactionKind occurs for kinds outside invoice/expense/salary.
	ErrUnknownTransactionKind = errors.New("unknown transaction kind")
	// ErrNegativeAmount occurs when a monetary input is below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrAmountPrecision occurs when a monetary input carries more than two decimal places.
	ErrAmountPrecision = errors.New("amount must have at most two decimal places")
	// ErrInvalidIncome occurs when taxable income is negative.
	ErrInvalidIncome = errors.New("invalid income")
	// ErrInvalidMonth occurs for months outside 1-12.
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	// ErrRequired occurs when a required statutory input is missing.
	ErrRequired = errors.New("required")
	// ErrConfiguration occurs when a rate table is absent or malformed.
	ErrConfiguration = errors.New("rate table misconfigured")
)

// Error identifies the offending field of a failed computation.
type Error struct {
	Kind   ErrorKind
	Field  string
	Err    error
	Detail string
}

func (e *Error) Error() string {
	msg := "tax: "
	if e.Field != "" {
		msg += e.Field + ": "
	}
	msg += e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// FieldName reports the offending input for problem responses.
func (e *Error) FieldName() string {
	return e.Field
}

// Unwrap exposes the sentinel.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets transport layers classify the error without importing this package's sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case httpx.ErrValidation:
		return e.Kind == KindValidation
	case httpx.ErrConfiguration:
		return e.Kind == KindConfiguration
	}
	return false
}

func invalid(field string, err error, detail string) error {
	return &Error{Kind: KindValidation, Field: field, Err: err, Detail: detail}
}

func invalidf(field string, err error, format string, args ...any) error {
	return invalid(field, err, fmt.Sprintf(format, args...))
}

func misconfigured(field, detail string) error {
	return &Error{Kind: KindConfiguration, Field: field, Err: ErrConfiguration, Detail: detail}
}

// Invalid builds a validation error for boundary layers that check fields
// before calling into the engine.
func Invalid(field string, err error, detail string) error {
	return invalid(field, err, detail)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, httpx.ErrValidation)
}

// IsConfiguration reports whether err is a rate table failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, httpx.ErrConfiguration)
}

// ValidateAmount rejects a negative or sub-kobo monetary input on field.
func ValidateAmount(field string, amount decimal.Decimal) error {
	return checkAmount(field, amount, ErrNegativeAmount)
}

// checkAmount rejects negative amounts and amounts finer than one kobo.
func checkAmount(field string, amount decimal.Decimal, negative error) error {
	if amount.IsNegative() {
		return invalid(field, negative, amount.String())
	}
	if !amount.Equal(amount.Round(2)) {
		return invalid(field, ErrAmountPrecision, amount.String())
	}
	return nil
}
