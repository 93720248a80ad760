package recruitment

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var expirationLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	// excelize renders built-in date cells as mm-dd-yy
	"01-02-06",
}

// ParseExpirationDate accepts ISO dates, RFC 3339 timestamps, DD/MM/YYYY and
// spreadsheet serial numbers. The second result is false for anything else.
func ParseExpirationDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial <= 0 || math.IsInf(serial, 0) || math.IsNaN(serial) {
		return time.Time{}, false
	}
	days := math.Floor(serial)
	frac := serial - days
	t := excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(frac * float64(24*time.Hour)))
	return t, true
}
