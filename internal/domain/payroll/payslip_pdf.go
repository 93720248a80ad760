package payroll

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const defaultCompanyName = "COMPANY NAME LTD"

// PayslipDocument is everything printed on a payslip.
type PayslipDocument struct {
	CompanyName string
	StaffName   string
	StaffID     string
	Email       string
	Department  string
	Designation string
	Row         *Row
	GeneratedAt time.Time
}

// PayslipFileName is payslip-<staffId>-<MM>-<YYYY>.pdf.
func PayslipFileName(staffID string, p Period) string {
	return fmt.Sprintf("payslip-%s-%02d-%d.pdf", staffID, int(p.Month), p.Year)
}

// RenderPayslip lays out a one-page A4 payslip. The core PDF fonts have no
// naira glyph, so amounts are printed with the NGN code.
func RenderPayslip(doc PayslipDocument) ([]byte, error) {
	if doc.Row == nil {
		return nil, fmt.Errorf("payslip has no payroll row")
	}
	row := doc.Row
	company := doc.CompanyName
	if company == "" {
		company = defaultCompanyName
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 28

	// header band
	pdf.SetFillColor(0x1e, 0x3a, 0x5f)
	pdf.Rect(0, 0, pageW, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(14, 8)
	pdf.CellFormat(110, 8, tr(company), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(14, 17)
	pdf.CellFormat(110, 6, "Salary Payslip", "", 0, "L", false, 0, "")
	pdf.SetXY(pageW-84, 9)
	pdf.CellFormat(70, 6, fmt.Sprintf("Pay Period: %02d/%d", int(row.Period.Period.Month), row.Period.Period.Year), "", 0, "R", false, 0, "")
	pdf.SetXY(pageW-84, 15)
	pdf.CellFormat(70, 6, "Generated: "+doc.GeneratedAt.Format("02 Jan 2006"), "", 0, "R", false, 0, "")

	// staff block
	top := 36.0
	pdf.SetFillColor(0xf3, 0xf6, 0xfb)
	pdf.Rect(14, top, contentW, 30, "F")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	left := [][2]string{{"Staff Name", doc.StaffName}, {"Staff ID", doc.StaffID}, {"Email", doc.Email}}
	right := [][2]string{{"Department", orNA(doc.Department)}, {"Designation", orNA(doc.Designation)}}
	for i, kv := range left {
		pdf.SetXY(19, top+4+float64(i)*7)
		pdf.CellFormat(contentW/2-10, 6, tr(kv[0]+": "+kv[1]), "", 0, "L", false, 0, "")
	}
	for i, kv := range right {
		pdf.SetXY(pageW/2+4, top+4+float64(i)*7)
		pdf.CellFormat(contentW/2-10, 6, tr(kv[0]+": "+kv[1]), "", 0, "L", false, 0, "")
	}

	y := top + 40
	y = section(pdf, y, "EARNINGS", [3]int{0x1e, 0x3a, 0x5f}, []line{
		{"Basic Salary", row.Basic},
		{"Housing Allowance", row.Housing},
		{"Transport Allowance", row.Transport},
		{"Dressing Allowance", row.Dressing},
		{"Other Allowances", row.OtherAllowances()},
	}, line{"Total Gross Pay", row.GrossPay}, [3]int{0x0f, 0x51, 0x32})

	y = section(pdf, y+8, "DEDUCTIONS", [3]int{0x8b, 0, 0}, []line{
		{"PAYE", row.Payee},
		{"Pension", row.Pension},
	}, line{"Total Deductions", row.TotalDeductions()}, [3]int{0x8b, 0, 0})

	// net salary band
	y += 10
	pdf.SetFillColor(0xe8, 0xf0, 0xff)
	pdf.Rect(14, y, contentW, 15, "F")
	pdf.SetTextColor(0x0b, 0x1f, 0x44)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(19, y+4)
	pdf.CellFormat(80, 7, "NET SALARY", "", 0, "L", false, 0, "")
	pdf.SetXY(pageW-84, y+4)
	pdf.CellFormat(65, 7, FormatNGN(row.NetSalary), "", 0, "R", false, 0, "")

	y += 24
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(19, y)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Days in Month: %s | Days Worked: %s", row.DaysInMonth.String(), row.DaysWorked.String()), "", 0, "L", false, 0, "")

	pdf.SetTextColor(0x66, 0x66, 0x66)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetXY(14, pageH-18)
	pdf.CellFormat(contentW, 5, "Generated on "+doc.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.SetX(14)
	pdf.CellFormat(contentW, 5, "This is a system-generated payslip. No signature required.", "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type line struct {
	label  string
	amount decimal.Decimal
}

func section(pdf *gofpdf.Fpdf, y float64, title string, color [3]int, lines []line, total line, totalColor [3]int) float64 {
	pageW, _ := pdf.GetPageSize()
	pdf.SetTextColor(color[0], color[1], color[2])
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(14, y)
	pdf.CellFormat(60, 7, title, "", 0, "L", false, 0, "")
	y += 8
	pdf.SetDrawColor(color[0], color[1], color[2])
	pdf.Line(14, y, pageW-14, y)
	y += 3

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		pdf.SetXY(18, y)
		pdf.CellFormat(90, 6, l.label, "", 0, "L", false, 0, "")
		pdf.SetXY(pageW-84, y)
		pdf.CellFormat(65, 6, FormatNGN(l.amount), "", 0, "R", false, 0, "")
		y += 6.5
	}

	pdf.SetTextColor(totalColor[0], totalColor[1], totalColor[2])
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(18, y+1)
	pdf.CellFormat(90, 7, total.label, "", 0, "L", false, 0, "")
	pdf.SetXY(pageW-84, y+1)
	pdf.CellFormat(65, 7, FormatNGN(total.amount), "", 0, "R", false, 0, "")
	return y + 9
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
