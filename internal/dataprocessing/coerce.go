package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"opspulse/pkg/contracts/domain"
)

// excelEpochOffset is the serial number of 1970-01-01 in the 1900 date system.
const excelEpochOffset = 25569

// dateLayouts is tried in order for free-form date cells. Layouts without a
// zone parse as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06 15:04:05",
	"1/2/06 15:04",
	"1/2/06 3:04 PM",
	"1/2/06",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"02-Jan-06",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// CoerceDate turns a spreadsheet date cell into an ISO-8601 timestamp.
// Numbers and purely numeric strings are spreadsheet serials, except a bare
// four-digit string, which is a year. Other strings are parsed against
// dateLayouts. Anything else, and empty input, yields "".
func CoerceDate(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return domain.FormatTimestamp(x)
	case float64:
		return serialToISO(x)
	case float32:
		return serialToISO(float64(x))
	case int:
		return serialToISO(float64(x))
	case int64:
		return serialToISO(float64(x))
	case string:
		return parseDateString(x)
	default:
		return ""
	}
}

func parseDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) == 4 && !strings.Contains(s, ".") && isNumeric(s) {
		if t, err := time.Parse("2006", s); err == nil {
			return domain.FormatTimestamp(t)
		}
	}
	if isNumeric(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		return serialToISO(serial)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.FormatTimestamp(t)
		}
	}
	return ""
}

func serialToISO(serial float64) string {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return ""
	}
	ms := math.Round((serial - excelEpochOffset) * 86400 * 1000)
	return domain.FormatTimestamp(time.UnixMilli(int64(ms)))
}

// isNumeric reports whether s is digits with at most one decimal point.
func isNumeric(s string) bool {
	seenDigit, seenDot := false, false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && !seenDot:
			seenDot = true
		default:
			return false
		}
	}
	return seenDigit
}

// CoerceNumber extracts a number from noisy text such as "1,200 L" or
// "approx. 45.5". Every rune other than a digit or '.' is dropped and the
// longest valid decimal prefix of the remainder is parsed. It never fails;
// unusable input yields 0. Signs are discarded along with other symbols.
func CoerceNumber(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	end, seenDot, seenDigit := 0, false, false
	for i, r := range cleaned {
		if r == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else {
			seenDigit = true
		}
		end = i + 1
	}
	if !seenDigit {
		return 0
	}

	f, err := strconv.ParseFloat(strings.TrimSuffix(cleaned[:end], "."), 64)
	if err != nil {
		return 0
	}
	return f
}
