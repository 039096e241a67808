package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// StatutorySource serves the rate tables compiled into the binary.
type StatutorySource struct{}

// Fetch returns a fresh copy of the published table for year.
func (StatutorySource) Fetch(_ context.Context, year TaxYear) (RateTables, error) {
	build, ok := statutory[year]
	if !ok {
		return RateTables{}, invalidf("tax_year", ErrUnsupportedTaxYear, "no rate table published for %d", int(year))
	}
	return build(), nil
}

var statutory = map[TaxYear]func() RateTables{
	2026: nta2025,
}

func nta2025() RateTables {
	individualRow := func(individual, company int64) map[TaxpayerClass]decimal.Decimal {
		return map[TaxpayerClass]decimal.Decimal{
			ClassIndividual:     pct(individual),
			ClassSoleProprietor: pct(individual),
			ClassCompany:        pct(company),
		}
	}
	return RateTables{
		TaxYear: 2026,
		Statute: "Nigeria Tax Act 2025",
		PITBrackets: []Bracket{
			{UpperBound: bound(800_000), Rate: pct(0)},
			{UpperBound: bound(3_000_000), Rate: pct(15)},
			{UpperBound: bound(12_000_000), Rate: pct(18)},
			{UpperBound: bound(25_000_000), Rate: pct(21)},
			{UpperBound: bound(50_000_000), Rate: pct(23)},
			{Rate: pct(25)},
		},
		CITSmallCompanyTurnoverCeiling: decimal.NewFromInt(50_000_000),
		CITRates:                       CITRates{Small: pct(0), Large: pct(30)},
		VATRate:                        decimal.RequireFromString("7.5"),
		VATRegistrationThreshold:       decimal.NewFromInt(25_000_000),
		WHT: WHTMatrix{
			Rates: map[ServiceCategory]map[TaxpayerClass]decimal.Decimal{
				CategoryProfessionalServices: individualRow(5, 10),
				CategoryManagementServices:   individualRow(5, 10),
				CategoryTechnicalServices:    individualRow(5, 10),
				CategoryConsultancy:          individualRow(5, 10),
				CategoryCommission:           individualRow(5, 10),
				CategoryConstruction:         individualRow(2, 2),
				CategorySupplyOfGoods:        individualRow(2, 2),
				CategoryTransport:            individualRow(2, 2),
				CategoryRent:                 individualRow(10, 10),
				CategoryDividends:            individualRow(10, 10),
				CategoryInterest:             individualRow(10, 10),
				CategoryRoyalties:            individualRow(10, 10),
				CategoryDirectorFees: {
					ClassIndividual: pct(15),
				},
			},
			Default: map[TaxpayerClass]decimal.Decimal{
				ClassIndividual:     pct(5),
				ClassSoleProprietor: pct(5),
				ClassCompany:        pct(10),
			},
		},
		RentRelief: RentRelief{Rate: pct(20), Cap: decimal.NewFromInt(500_000)},
	}
}

func pct(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func bound(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}
