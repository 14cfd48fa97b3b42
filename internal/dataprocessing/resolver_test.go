package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"opspulse/pkg/contracts/domain"
)

func orderedRow(kv ...any) domain.RawRow {
	var row domain.RawRow
	for i := 0; i+1 < len(kv); i += 2 {
		row.Set(kv[i].(string), kv[i+1])
	}
	return row
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		row        domain.RawRow
		candidates []string
		want       string
	}{
		{
			name:       "exact match on first candidate",
			row:        orderedRow("Company Name", "Acme Co", "Customer/Partner", "Other"),
			candidates: []string{"Company Name", "Customer/Partner"},
			want:       "Acme Co",
		},
		{
			name:       "exact match on later candidate beats fuzzy on earlier",
			row:        orderedRow("Company Name (legal)", "Legal Co", "Customer/Partner", "Acme Co"),
			candidates: []string{"Company Name", "Customer/Partner"},
			want:       "Acme Co",
		},
		{
			name:       "fuzzy match ignores case",
			row:        orderedRow("CUSTOMER/PARTNER NAME", "Acme Co"),
			candidates: []string{"Company Name", "Customer/Partner"},
			want:       "Acme Co",
		},
		{
			name:       "fuzzy match takes first header in column order",
			row:        orderedRow("Issue List (old)", "A", "Issue List (new)", "B"),
			candidates: []string{"Issue(s) List", "Issue List"},
			want:       "A",
		},
		{
			name:       "fuzzy candidates are tried in candidate order",
			row:        orderedRow("Firmware Version (old)", "1.0", "FCC Firmware Version 2", "2.0"),
			candidates: []string{"FCC Firmware Version", "Firmware Version"},
			want:       "2.0",
		},
		{
			name:       "blank exact cell still wins",
			row:        orderedRow("Id", "", "Order ID", "ORD-9"),
			candidates: []string{"Id"},
			want:       "",
		},
		{
			name:       "blank fuzzy cell still wins",
			row:        orderedRow("Remarks (old)", "", "Remarks by SPOC", "call back"),
			candidates: []string{"Remarks"},
			want:       "",
		},
		{
			name:       "no match",
			row:        orderedRow("Something", "else"),
			candidates: []string{"Remarks"},
			want:       "",
		},
		{
			name:       "empty row",
			row:        domain.RawRow{},
			candidates: []string{"Id"},
			want:       "",
		},
		{
			name:       "numeric cell",
			row:        orderedRow("Manual Dip", 94.5),
			candidates: []string{"Manual Dip"},
			want:       "94.5",
		},
		{
			name:       "integer cell",
			row:        orderedRow("Id", 17),
			candidates: []string{"Id"},
			want:       "17",
		},
		{
			name:       "bool cell",
			row:        orderedRow("Escalated", true),
			candidates: []string{"Escalated"},
			want:       "true",
		},
		{
			name:       "time cell",
			row:        orderedRow("Start time", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)),
			candidates: []string{"Start time"},
			want:       "2024-01-15T10:00:00.000Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.row, tt.candidates))
		})
	}
}

func TestResolve_UnorderedRowScansSortedKeys(t *testing.T) {
	row := domain.NewRawRow(map[string]any{
		"b remarks": "second",
		"a remarks": "first",
	})

	assert.Equal(t, "first", Resolve(row, []string{"Remarks"}))
}

func TestResolveValue_KeepsNativeType(t *testing.T) {
	row := orderedRow("Start time", 45306.0)

	v, ok := ResolveValue(row, []string{"Start time"})

	assert.True(t, ok)
	assert.Equal(t, 45306.0, v)
}
