package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
)

// ComputeVAT derives output VAT on a VAT-exclusive subtotal.
func ComputeVAT(subtotal decimal.Decimal, exempt bool, tables RateTables) (VATResult, error) {
	if err := checkAmount("subtotal", subtotal, ErrNegativeAmount); err != nil {
		return VATResult{}, err
	}
	if exempt {
		return SettleVAT(decimal.Zero, decimal.Zero), nil
	}
	if !validRate(tables.VATRate) || tables.VATRate.IsZero() {
		return VATResult{}, misconfigured("vat_rate", "missing or out of range")
	}
	return SettleVAT(money.Percent(subtotal, tables.VATRate), decimal.Zero), nil
}

// SettleVAT nets input VAT against output VAT.
func SettleVAT(output, input decimal.Decimal) VATResult {
	output = money.Round2(output)
	input = money.Round2(input)
	net := output.Sub(input)
	status := VATNone
	switch net.Sign() {
	case 1:
		status = VATPayable
	case -1:
		status = VATRefundable
	}
	return VATResult{OutputVAT: output, InputVAT: input, NetVAT: net, Status: status}
}
