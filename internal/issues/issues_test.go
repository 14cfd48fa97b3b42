package issues

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"opspulse/internal/shared/testutil"
	"opspulse/pkg/contracts/domain"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"mixed separators and junk", " Sensor Fail ;; OTP;null; undefined ;", []string{"Sensor Fail", "OTP"}},
		{"single token", "Order stuck", []string{"Order stuck"}},
		{"keeps duplicates", "OTP; OTP", []string{"OTP", "OTP"}},
		{"null literal any case", "NULL;Undefined", []string{Unspecified}},
		{"only separators", " ; ;; ", []string{Unspecified}},
		{"empty", "", []string{Unspecified}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		token string
		want  domain.TechLayer
	}{
		{"OTP not received", domain.LayerApp},
		{"Finish button greyed", domain.LayerApp},
		{"Order Stuck at dispatch", domain.LayerApp},
		{"ATG probe", domain.LayerHardware},
		{"Battery drain", domain.LayerHardware},
		{"Bluetooth pairing", domain.LayerConnectivity},
		{"Device offline", domain.LayerConnectivity},
		{"Sync delayed", domain.LayerDataSync},
		{"Quantity mismatch", domain.LayerDataSync},
		{"Backend correction", domain.LayerDataSync},
		{"Nozzle leak", domain.LayerOther},
		{Unspecified, domain.LayerOther},
		// earlier groups win when a token matches several
		{"App sensor reading", domain.LayerApp},
		{"Pump data mismatch", domain.LayerHardware},
		{"Network sync", domain.LayerConnectivity},
		// containment, not word match
		{"Whatsapp group", domain.LayerApp},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.token))
		})
	}
}

func TestLayerBreakdown(t *testing.T) {
	records := testutil.FuelRecords(
		testutil.Fuel("1", "Acme Co", "", "OTP; Sensor Fail"),
		testutil.Fuel("2", "Acme Co", "", "Sensor Fail; Offline"),
		testutil.Fuel("3", "Beta Ltd", "", ""),
	)

	got := LayerBreakdown(records)

	assert.Equal(t, []domain.LayerCount{
		{Layer: domain.LayerApp, Count: 1},
		{Layer: domain.LayerHardware, Count: 2},
		{Layer: domain.LayerConnectivity, Count: 1},
		{Layer: domain.LayerDataSync, Count: 0},
		{Layer: domain.LayerOther, Count: 1},
	}, got)
}

func TestLayerBreakdown_Empty(t *testing.T) {
	got := LayerBreakdown(nil)

	assert.Len(t, got, 5)
	for _, lc := range got {
		assert.Zero(t, lc.Count)
	}
}
