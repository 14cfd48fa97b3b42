package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opspulse/internal/shared/testutil"
	"opspulse/pkg/contracts/domain"
)

func TestRepeatFailures(t *testing.T) {
	records := testutil.SupportRecords(
		testutil.Support("S-1", "Acme Co", "", "Sensor Fail", 0, 0),
		testutil.Support("S-2", "Acme Co", "", "OTP; Sensor Fail", 0, 0),
		testutil.Support("S-3", "Acme Co", "", "Sensor Fail", 0, 0),
		testutil.Support("S-4", "Beta Ltd", "", "Sensor Fail", 0, 0),
	)

	got := RepeatFailures(records, 0)

	require.Len(t, got, 1)
	assert.Equal(t, domain.RepeatFailure{
		Company: "Acme Co",
		Issue:   "Sensor Fail",
		Count:   3,
		IDs:     []string{"S-1", "S-2", "S-3"},
	}, got[0])
}

func TestRepeatFailures_DuplicateTokensInOneRecord(t *testing.T) {
	records := testutil.FuelRecords(
		testutil.Fuel("F-1", "Acme Co", "", "OTP; OTP"),
	)

	got := RepeatFailures(records, 5)

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, []string{"F-1", "F-1"}, got[0].IDs)
}

func TestRepeatFailures_SkipsUnspecifiedAndUsesUnknown(t *testing.T) {
	records := testutil.FuelRecords(
		testutil.Fuel("1", "Acme Co", "", ""),
		testutil.Fuel("2", "Acme Co", "", "null"),
		testutil.Fuel("3", "", "", "Battery"),
		testutil.Fuel("4", "", "", "Battery"),
	)

	got := RepeatFailures(records, 5)

	require.Len(t, got, 1)
	assert.Equal(t, UnknownLabel, got[0].Company)
	assert.Equal(t, "Battery", got[0].Issue)
}

func TestRepeatFailures_OrderAndLimit(t *testing.T) {
	var tickets []domain.FuelTicket
	for i := 0; i < 7; i++ {
		issue := fmt.Sprintf("Issue %d", i)
		for j := 0; j <= i%3+1; j++ {
			tickets = append(tickets, testutil.Fuel(fmt.Sprintf("%d-%d", i, j), "Acme Co", "", issue))
		}
	}

	got := RepeatFailures(testutil.FuelRecords(tickets...), 3)

	require.Len(t, got, 3)
	assert.Equal(t, "Issue 2", got[0].Issue)
	assert.Equal(t, "Issue 5", got[1].Issue)
	assert.Equal(t, "Issue 1", got[2].Issue)
	assert.Equal(t, 4, got[0].Count)
}
