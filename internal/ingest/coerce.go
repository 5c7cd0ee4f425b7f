package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dmyDateRe = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{2,4})$`)
)

// Layouts tried as a last resort, after the serial and digit-group strategies.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// parseNumber coerces a raw cell into a finite float. A blank cell is an
// unreported measurement and coerces to zero by domain rule. Unparseable or
// non-finite input returns (NaN, false) so validation can report it.
func parseNumber(v string) (float64, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return math.NaN(), false
	}
	return n, true
}

// parseDate coerces a raw cell into a UTC-midnight calendar date. Strategies
// are tried in fixed priority order, first success wins:
//
//  1. a finite number is an Excel date serial (1900 epoch);
//  2. YYYY-M-D, round-trip validated;
//  3. D/M/Y then M/D/Y (separators / - .), round-trip validated, two-digit
//     years read as 2000+YY;
//  4. a short list of general layouts.
func parseDate(v string) (time.Time, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return utcMidnight(t.Year(), t.Month(), t.Day()), true
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return roundTrip(year, month, day)
	}

	if m := dmyDateRe.FindStringSubmatch(s); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		// Day/month ordering is the common case in these exports; fall back
		// to US-style month/day when the first reading does not round-trip.
		if d, ok := roundTrip(year, second, first); ok {
			return d, true
		}
		if d, ok := roundTrip(year, first, second); ok {
			return d, true
		}
		return time.Time{}, false
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return utcMidnight(t.Year(), t.Month(), t.Day()), true
		}
	}
	return time.Time{}, false
}

// roundTrip builds the date and accepts it only if the components survive
// unchanged. time.Date normalizes overflow (month 13, Feb 31), so comparing
// the result against the inputs is what rejects impossible combinations.
func roundTrip(year, month, day int) (time.Time, bool) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func utcMidnight(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
