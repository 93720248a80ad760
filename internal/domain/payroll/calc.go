package payroll

import "github.com/shopspring/decimal"

var (
	minimumRelief = decimal.NewFromInt(200000)
	reliefRate    = decimal.NewFromFloat(0.20)
)

type taxBand struct {
	upTo decimal.Decimal
	base decimal.Decimal
	rate decimal.Decimal
	from decimal.Decimal
}

// Annual PAYE bands. base is the tax due on everything below from.
var payeBands = []taxBand{
	{upTo: decimal.NewFromInt(300000), base: decimal.Zero, rate: decimal.NewFromFloat(0.07), from: decimal.Zero},
	{upTo: decimal.NewFromInt(600000), base: decimal.NewFromInt(21000), rate: decimal.NewFromFloat(0.11), from: decimal.NewFromInt(300000)},
	{upTo: decimal.NewFromInt(1100000), base: decimal.NewFromInt(54000), rate: decimal.NewFromFloat(0.15), from: decimal.NewFromInt(600000)},
	{upTo: decimal.NewFromInt(1600000), base: decimal.NewFromInt(129000), rate: decimal.NewFromFloat(0.19), from: decimal.NewFromInt(1100000)},
	{upTo: decimal.NewFromInt(3200000), base: decimal.NewFromInt(224000), rate: decimal.NewFromFloat(0.21), from: decimal.NewFromInt(1600000)},
}

var topBand = taxBand{base: decimal.NewFromInt(560000), rate: decimal.NewFromFloat(0.24), from: decimal.NewFromInt(3200000)}

// ConsolidatedRelief is the larger of 20% of annual gross and 200,000.
func ConsolidatedRelief(annualGross decimal.Decimal) decimal.Decimal {
	return decimal.Max(annualGross.Mul(reliefRate), minimumRelief)
}

// TaxableIncome is annual gross less relief and pension, never below zero.
func TaxableIncome(annualGross, annualPension decimal.Decimal) decimal.Decimal {
	taxable := annualGross.Sub(ConsolidatedRelief(annualGross)).Sub(annualPension)
	if taxable.IsNegative() {
		return decimal.Zero
	}
	return taxable
}

// PAYE is the annual income tax on the given gross and pension.
func PAYE(annualGross, annualPension decimal.Decimal) decimal.Decimal {
	taxable := TaxableIncome(annualGross, annualPension)
	band := topBand
	for _, b := range payeBands {
		if taxable.LessThanOrEqual(b.upTo) {
			band = b
			break
		}
	}
	return band.base.Add(taxable.Sub(band.from).Mul(band.rate)).Round(2)
}

type Components struct {
	Basic         decimal.Decimal `json:"basic"`
	Housing       decimal.Decimal `json:"housing"`
	Transport     decimal.Decimal `json:"transport"`
	Dressing      decimal.Decimal `json:"dressing"`
	Leave         decimal.Decimal `json:"leave"`
	Entertainment decimal.Decimal `json:"entertainment"`
	Utility       decimal.Decimal `json:"utility"`
}

// SalaryComponents splits gross pay with the template percentages.
func SalaryComponents(gross decimal.Decimal) Components {
	share := func(pct int64) decimal.Decimal {
		return gross.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)).Round(2)
	}
	return Components{
		Basic:         share(15),
		Housing:       share(10),
		Transport:     share(10),
		Dressing:      share(15),
		Leave:         share(15),
		Entertainment: share(20),
		Utility:       share(20),
	}
}
