package payroll

import (
	"strconv"
	"strings"
	"time"

	"hrms/internal/platform/config"
)

// Period is a pay month.
type Period struct {
	Year  int
	Month time.Month
}

func (p Period) MonthName() string {
	if p.Month < time.January || p.Month > time.December {
		return ""
	}
	return p.Month.String()
}

// PeriodKey is the period as persisted: Label goes into the month column of
// the payroll and payslip unique keys.
type PeriodKey struct {
	Label  string
	Period Period
}

// ParseMonth accepts an English month name, its three-letter abbreviation,
// or a number from 1 to 12.
func ParseMonth(raw string) (time.Month, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || s == name[:3] {
			return m, true
		}
	}
	return 0, false
}

// legacyMonthNumber only knows full month names and numbers; anything else
// is stored as month 0.
func legacyMonthNumber(label string) time.Month {
	s := strings.ToLower(strings.TrimSpace(label))
	for m := time.January; m <= time.December; m++ {
		if s == strings.ToLower(m.String()) {
			return m
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return time.Month(n)
	}
	return 0
}

// ResolvePeriod turns the Month and Year cells of a row into the key the row
// is stored under. Blank cells default to the month and year of now.
func ResolvePeriod(monthRaw, yearRaw string, now time.Time, mode string, row int) (PeriodKey, *RowError) {
	monthRaw = strings.TrimSpace(monthRaw)
	yearRaw = strings.TrimSpace(yearRaw)
	if monthRaw == "" {
		monthRaw = now.Month().String()
	}

	year := now.Year()
	if yearRaw != "" {
		parsed, err := strconv.Atoi(strings.TrimSuffix(yearRaw, ".0"))
		if err != nil || parsed < 1900 || parsed > 9999 {
			return PeriodKey{}, rowErrorf(row, "Invalid pay period year: %s", yearRaw)
		}
		year = parsed
	}

	if mode == config.PeriodKeyNormalized {
		month, ok := ParseMonth(monthRaw)
		if !ok {
			return PeriodKey{}, rowErrorf(row, "Invalid pay period month: %s", monthRaw)
		}
		return PeriodKey{Label: month.String(), Period: Period{Year: year, Month: month}}, nil
	}
	return PeriodKey{Label: monthRaw, Period: Period{Year: year, Month: legacyMonthNumber(monthRaw)}}, nil
}
