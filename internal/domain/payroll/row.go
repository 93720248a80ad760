package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrms/internal/platform/spreadsheet"
)

// Row is a validated payroll line. Amounts are taken from the sheet as-is.
type Row struct {
	Number int
	Name   string
	Email  string
	Period PeriodKey

	GrossPay            decimal.Decimal
	ProratedGrossPay    decimal.Decimal
	Basic               decimal.Decimal
	Housing             decimal.Decimal
	Transport           decimal.Decimal
	Dressing            decimal.Decimal
	LeaveAllowance      decimal.Decimal
	Entertainment       decimal.Decimal
	Utility             decimal.Decimal
	Payee               decimal.Decimal
	Pension             decimal.Decimal
	Deduction           decimal.Decimal
	BonusKPI            decimal.Decimal
	NetSalary           decimal.Decimal
	FinalGross          decimal.Decimal
	MedicalContribution decimal.Decimal
	DaysInMonth         decimal.Decimal
	DaysWorked          decimal.Decimal
}

// OtherAllowances is leave, entertainment and utility together.
func (r Row) OtherAllowances() decimal.Decimal {
	return r.LeaveAllowance.Add(r.Entertainment).Add(r.Utility)
}

func (r Row) TotalDeductions() decimal.Decimal {
	return r.Payee.Add(r.Pension)
}

// Identity is the name or email used to find the staff record, for messages.
func (r Row) Identity() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Email
}

type ParseOptions struct {
	Now           time.Time
	PeriodKeyMode string
}

// RowNumber is the spreadsheet line a data row is reported under.
func RowNumber(index int) int {
	return index + rowNumberOffset
}

// ParseRow validates one sheet row and converts it into a Row. Checks run in
// order: identity, required columns, numbers, pay period, net salary.
func ParseRow(src spreadsheet.Row, opts ParseOptions) (*Row, *RowError) {
	number := RowNumber(src.Index)
	row := &Row{
		Number: number,
		Name:   strings.Join(strings.Fields(src.Get(ColName)), " "),
		Email:  strings.ToLower(src.Get(ColEmail)),
	}
	if row.Name == "" && row.Email == "" {
		return nil, rowErrorf(number, "Missing Name/EMAIL for staff identification")
	}

	var missing []RequiredColumn
	for _, col := range RequiredColumns {
		if !src.Has(string(col)) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, missingColumnsError(number, missing)
	}

	targets := []struct {
		col string
		dst *decimal.Decimal
	}{
		{ColGrossPay, &row.GrossPay},
		{ColBasic, &row.Basic},
		{ColHousing, &row.Housing},
		{ColTransport, &row.Transport},
		{ColDressing, &row.Dressing},
		{ColLeaveAllowance, &row.LeaveAllowance},
		{ColEntertainment, &row.Entertainment},
		{ColUtility, &row.Utility},
		{ColPayee, &row.Payee},
		{ColPension, &row.Pension},
		{ColDeduction, &row.Deduction},
		{ColBonusKPI, &row.BonusKPI},
		{ColNetSalary, &row.NetSalary},
		{ColFinalGross, &row.FinalGross},
		{ColMedicalContribution, &row.MedicalContribution},
		{ColWorkingDaysInMonth, &row.DaysInMonth},
		{ColDaysWorked, &row.DaysWorked},
		{ColProratedGrossPay, &row.ProratedGrossPay},
	}
	var invalid []string
	for _, t := range targets {
		value, err := ParseAmount(src.Get(t.col))
		if err != nil {
			invalid = append(invalid, t.col)
			continue
		}
		*t.dst = value
	}
	if len(invalid) > 0 {
		return nil, rowErrorf(number, "Invalid numeric value for columns: %s", strings.Join(invalid, ", "))
	}

	period, perr := ResolvePeriod(src.Get(ColMonth), src.Get(ColYear), opts.Now, opts.PeriodKeyMode, number)
	if perr != nil {
		return nil, perr
	}
	row.Period = period

	if row.NetSalary.IsNegative() {
		return nil, rowErrorf(number, "Net Salary cannot be negative. Check payroll values.")
	}
	return row, nil
}
