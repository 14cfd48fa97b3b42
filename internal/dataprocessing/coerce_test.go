package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerceDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"serial epoch", 25569.0, "1970-01-01T00:00:00.000Z"},
		{"serial int", 45306, "2024-01-15T00:00:00.000Z"},
		{"serial with time fraction", 45306.5, "2024-01-15T12:00:00.000Z"},
		{"numeric string serial", "45306", "2024-01-15T00:00:00.000Z"},
		{"bare year string", "2024", "2024-01-01T00:00:00.000Z"},
		{"short serial string", "367", "1901-01-01T00:00:00.000Z"},
		{"iso with offset", "2024-01-15T10:30:00+05:30", "2024-01-15T05:00:00.000Z"},
		{"iso millis", "2024-01-15T10:30:00.250Z", "2024-01-15T10:30:00.250Z"},
		{"date and minutes", "2024-01-15 10:30", "2024-01-15T10:30:00.000Z"},
		{"date only", "2024-01-15", "2024-01-15T00:00:00.000Z"},
		{"us date time", "1/15/2024 10:30:00", "2024-01-15T10:30:00.000Z"},
		{"us date twelve hour", "1/15/2024 9:05 PM", "2024-01-15T21:05:00.000Z"},
		{"us short year", "1/15/24", "2024-01-15T00:00:00.000Z"},
		{"month name", "Jan 15, 2024", "2024-01-15T00:00:00.000Z"},
		{"day month name", "15 Jan 2024", "2024-01-15T00:00:00.000Z"},
		{"dashed month name", "15-Jan-2024", "2024-01-15T00:00:00.000Z"},
		{"slashed iso", "2024/01/15", "2024-01-15T00:00:00.000Z"},
		{"surrounding spaces", "  2024-01-15  ", "2024-01-15T00:00:00.000Z"},
		{"time value", time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), "2024-01-15T08:00:00.000Z"},
		{"garbage", "next tuesday", ""},
		{"empty", "", ""},
		{"nil", nil, ""},
		{"bool", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceDate(tt.input))
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"empty", "", 0},
		{"letters only", "abc", 0},
		{"plain", "100", 100},
		{"decimal", "94.5", 94.5},
		{"thousands separator and unit", "1,200 L", 1200},
		{"percent", "45.5%", 45.5},
		{"second dot ends the number", "1.2.3", 1.2},
		{"sign is discarded", "-5", 5},
		{"leading dot", ".5", 0.5},
		{"trailing dot", "7.", 7},
		{"lone dot", ".", 0},
		{"words around", "approx 12 litres", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceNumber(tt.input))
		})
	}
}
