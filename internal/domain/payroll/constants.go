package payroll

import "hrms/internal/platform/spreadsheet"

// Column headings of the payroll upload template, in template order.
const (
	ColName                      = "Name"
	ColResumptionDate            = "Resumption Date"
	ColWorkingDaysInMonth        = "No of Working Days in the Month"
	ColDaysWorked                = "No of days Worked"
	ColGrossPay                  = "Gross Pay"
	ColProratedGrossPay          = "Prorated Gross Pay"
	ColBasic                     = "Basic"
	ColHousing                   = "Housing"
	ColTransport                 = "Transport"
	ColDressing                  = "Dressing"
	ColLeaveAllowance            = "Leave Allowance"
	ColEntertainment             = "Entertainment"
	ColUtility                   = "Utility"
	ColSalaryOfAttendance        = "出勤薪资 Salary Of Attendance"
	ColProratedGrossExtraAllowce = "PRORATED GROSS PAY WITH EXTRA ALL'WCE"
	ColTaxableIncome             = "TAXABLE INCOME"
	ColPayee                     = "Payee"
	ColPension                   = "Pension"
	ColDeduction                 = "Deduction"
	ColBonusKPI                  = "Bonus KPI"
	ColNetSalary                 = "Net Salary"
	ColFinalGross                = "FINAL GROSS"
	ColMedicalContribution       = "Medical Contribution"
	ColEmployerPension           = "Employer Pension"
	ColNSITF                     = "NSITF"
	ColProratedSubTotalInvoice   = "Prorated Sub Total Invoice"
	ColMgtFee                    = "Mgt Fee"
	ColVatOnMgtFee               = "Vat on Management Fee @7.5%"
	ColTotalInvoiceValue         = "Total Invoice Value"
	ColEmail                     = "EMAIL"

	ColMonth = "Month"
	ColYear  = "Year"
)

var TemplateColumns = []string{
	ColName, ColResumptionDate, ColWorkingDaysInMonth, ColDaysWorked, ColGrossPay,
	ColProratedGrossPay, ColBasic, ColHousing, ColTransport, ColDressing,
	ColLeaveAllowance, ColEntertainment, ColUtility, ColSalaryOfAttendance, ColProratedGrossExtraAllowce,
	ColTaxableIncome, ColPayee, ColPension, ColDeduction, ColBonusKPI,
	ColNetSalary, ColFinalGross, ColMedicalContribution, ColEmployerPension, ColNSITF,
	ColProratedSubTotalInvoice, ColMgtFee, ColVatOnMgtFee, ColTotalInvoiceValue, ColEmail,
}

// PercentageColumns carry "15%"-style values on the template's metadata row.
var PercentageColumns = []string{
	ColBasic, ColHousing, ColTransport, ColDressing,
	ColLeaveAllowance, ColEntertainment, ColUtility, ColMedicalContribution,
}

// RequiredColumn is a column every payroll row must fill.
type RequiredColumn string

const (
	ReqGrossPay            RequiredColumn = ColGrossPay
	ReqBasic               RequiredColumn = ColBasic
	ReqHousing             RequiredColumn = ColHousing
	ReqTransport           RequiredColumn = ColTransport
	ReqDressing            RequiredColumn = ColDressing
	ReqLeaveAllowance      RequiredColumn = ColLeaveAllowance
	ReqEntertainment       RequiredColumn = ColEntertainment
	ReqUtility             RequiredColumn = ColUtility
	ReqPayee               RequiredColumn = ColPayee
	ReqPension             RequiredColumn = ColPension
	ReqDeduction           RequiredColumn = ColDeduction
	ReqBonusKPI            RequiredColumn = ColBonusKPI
	ReqNetSalary           RequiredColumn = ColNetSalary
	ReqFinalGross          RequiredColumn = ColFinalGross
	ReqMedicalContribution RequiredColumn = ColMedicalContribution
	ReqWorkingDaysInMonth  RequiredColumn = ColWorkingDaysInMonth
	ReqDaysWorked          RequiredColumn = ColDaysWorked
)

// RequiredColumns is in reporting order.
var RequiredColumns = []RequiredColumn{
	ReqGrossPay, ReqBasic, ReqHousing, ReqTransport, ReqDressing,
	ReqLeaveAllowance, ReqEntertainment, ReqUtility, ReqPayee, ReqPension,
	ReqDeduction, ReqBonusKPI, ReqNetSalary, ReqFinalGross, ReqMedicalContribution,
	ReqWorkingDaysInMonth, ReqDaysWorked,
}

const (
	StatusProcessed = "PROCESSED"

	FailedRecordsSheet = "Failed Records"
	ErrorColumn        = "error"

	// data index + 3: header row, then percentage row, then data
	rowNumberOffset = 3
)

// Headers canonicalizes upload headings. "MONTH" and "YEAR" fold onto Month
// and Year.
var Headers = spreadsheet.NewHeaderMap(append(TemplateColumns, ColMonth, ColYear)...)
