package tax

import (
	"log/slog"
	"strings"

	"github.com/agnivade/levenshtein"
)

const suggestionDistance = 3

// ParseTaxYear validates a caller-supplied year.
func ParseTaxYear(year int) (TaxYear, error) {
	y := TaxYear(year)
	if err := y.Validate(); err != nil {
		return 0, err
	}
	return y, nil
}

// CoerceLegacyYear maps a pre-2026 year onto the first statutory year. It is
// only used by callers that explicitly opt into legacy coercion.
func CoerceLegacyYear(year int, logger *slog.Logger) (TaxYear, error) {
	if year > 0 && TaxYear(year) < MinTaxYear {
		if logger != nil {
			logger.Warn("legacy tax year coerced", slog.Int("requested", year), slog.Int("tax_year", int(MinTaxYear)))
		}
		return MinTaxYear, nil
	}
	return ParseTaxYear(year)
}

// ParseTaxpayerClass normalises and validates a class name.
func ParseTaxpayerClass(raw string) (TaxpayerClass, error) {
	class := TaxpayerClass(normalise(raw))
	if !class.Valid() {
		return "", invalid("taxpayer_class", ErrUnknownTaxpayerClass, raw)
	}
	return class, nil
}

// ParseServiceCategory normalises and validates a category name. Unknown
// names carry the closest known category in the error detail.
func ParseServiceCategory(raw string) (ServiceCategory, error) {
	category := ServiceCategory(normalise(raw))
	if category.Valid() {
		return category, nil
	}
	detail := raw
	if suggestion := suggestCategory(string(category)); suggestion != "" {
		detail += `, did you mean "` + string(suggestion) + `"?`
	}
	return "", invalid("service_category", ErrUnknownServiceCategory, detail)
}

// ParseTransactionKind validates a transaction kind.
func ParseTransactionKind(raw string) (TransactionKind, error) {
	kind := TransactionKind(normalise(raw))
	if !kind.Valid() {
		return "", invalid("kind", ErrUnknownTransactionKind, raw)
	}
	return kind, nil
}

func suggestCategory(input string) ServiceCategory {
	if input == "" {
		return ""
	}
	var best ServiceCategory
	bestDistance := suggestionDistance + 1
	for _, category := range ServiceCategories {
		if d := levenshtein.ComputeDistance(input, string(category)); d < bestDistance {
			best, bestDistance = category, d
		}
	}
	return best
}

func normalise(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
