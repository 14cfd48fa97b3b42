package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"opspulse/pkg/contracts/domain"
)

// Resolve returns the cell for the first matching candidate header as text.
//
// Matching runs in two passes. The exact pass looks each candidate up by key in
// candidate order. The fuzzy pass then visits candidates in order and scans the
// row's headers in column order for one that contains the candidate, ignoring
// case. The first hit of either pass wins, even when its cell is blank; no hit
// yields "".
func Resolve(row domain.RawRow, candidates []string) string {
	v, ok := ResolveValue(row, candidates)
	if !ok {
		return ""
	}
	return CellString(v)
}

// ResolveValue is Resolve without stringification, for coercers that need the
// native cell type (e.g. a numeric date serial).
func ResolveValue(row domain.RawRow, candidates []string) (any, bool) {
	for _, c := range candidates {
		if v, ok := row.Get(c); ok {
			return v, true
		}
	}

	keys := row.Keys()
	for _, c := range candidates {
		needle := strings.ToLower(c)
		if needle == "" {
			continue
		}
		for _, k := range keys {
			if strings.Contains(strings.ToLower(k), needle) {
				v, _ := row.Get(k)
				return v, true
			}
		}
	}
	return nil, false
}

// CellString renders a scalar cell the way it reads in the sheet.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return domain.FormatTimestamp(x)
	default:
		return fmt.Sprint(x)
	}
}
