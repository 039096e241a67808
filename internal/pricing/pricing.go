// Package pricing prices subscription plans and referral commissions.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
	"github.com/ngtax/ngtax/internal/tax"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)

// Plans lists the tiers in ascending price.
var Plans = []Plan{PlanFree, PlanStarter, PlanBusiness, PlanEnterprise}

var monthlyPrice = map[Plan]decimal.Decimal{
	PlanFree:       decimal.Zero,
	PlanStarter:    decimal.NewFromInt(5_000),
	PlanBusiness:   decimal.NewFromInt(15_000),
	PlanEnterprise: decimal.NewFromInt(50_000),
}

// ParsePlan validates a plan name.
func ParsePlan(raw string) (Plan, error) {
	plan := Plan(raw)
	if _, ok := monthlyPrice[plan]; !ok {
		return "", tax.Invalid("plan", tax.ErrRequired, "unknown plan "+raw)
	}
	return plan, nil
}

// Price returns the monthly price of plan in naira.
func Price(plan Plan) (decimal.Decimal, error) {
	price, ok := monthlyPrice[plan]
	if !ok {
		return decimal.Zero, tax.Invalid("plan", tax.ErrRequired, "unknown plan "+string(plan))
	}
	return price, nil
}

// Commission is the referral commission on one month of plan, using the same
// rounding as every tax derivation.
func Commission(plan Plan, pct decimal.Decimal) (decimal.Decimal, error) {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, tax.Invalid("commission_rate", tax.ErrNegativeAmount, pct.String())
	}
	price, err := Price(plan)
	if err != nil {
		return decimal.Zero, err
	}
	return money.Percent(price, pct), nil
}
