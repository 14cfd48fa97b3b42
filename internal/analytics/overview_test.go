package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"opspulse/internal/shared/testutil"
	"opspulse/pkg/contracts/domain"
)

func TestFuelOverview(t *testing.T) {
	resolved := testutil.Fuel("F-1", "Acme Co", "2024-01-15T00:00:00.000Z", "Sensor Fail; OTP")
	resolved.Status = domain.StatusResolved
	resolved.Product = "FDS"
	resolved.AppType = "Driver App"

	second := testutil.Fuel("F-2", "Acme Co", "2024-01-16T00:00:00.000Z", "Sensor Fail")
	second.Product = "FDS"

	third := testutil.Fuel("F-3", "Beta Ltd", "", "Offline")

	ov := FuelOverview([]domain.FuelTicket{resolved, second, third})

	assert.Equal(t, 3, ov.Total)
	assert.Equal(t, 1, ov.Resolved)
	assert.Equal(t, 2, ov.Pending)
	assert.Equal(t, 33, ov.ResolvedRate)
	assert.Equal(t, domain.NameValue{Name: "Sensor Fail", Value: 2}, ov.TopIssue)
	assert.Len(t, ov.TopIssues, 3)
	assert.Equal(t, domain.NameValue{Name: "Acme Co", Value: 2}, ov.TopCustomer)
	assert.Equal(t, []domain.NameValue{{Name: "FDS", Value: 2}, {Name: UnknownLabel, Value: 1}}, ov.ByProduct)
	assert.Equal(t, []domain.NameValue{{Name: UnknownLabel, Value: 2}, {Name: "Driver App", Value: 1}}, ov.ByAppType)
	assert.Len(t, ov.ByLayer, 5)
	assert.Len(t, ov.Trend, 1)
	assert.Len(t, ov.Repeats, 1)
	assert.InDelta(t, 1.5, ov.AvgDaily, 1e-9)
}

func TestFuelOverview_Empty(t *testing.T) {
	ov := FuelOverview(nil)

	assert.Zero(t, ov.Total)
	assert.Zero(t, ov.ResolvedRate)
	assert.Equal(t, NoneLabel, ov.TopIssue.Name)
	assert.Equal(t, NoneLabel, ov.TopCustomer.Name)
	assert.Empty(t, ov.TopIssues)
}

func TestSupportOverview(t *testing.T) {
	a := testutil.Support("S-1", "Acme Co", "2024-01-15T00:00:00.000Z", "Sensor Fail", 100, 94)
	a.WarrantyStatus = domain.WarrantyInWarranty
	a.IssueBuckets = CriticalBucket
	a.HardwareVersion = "v2"
	a.DUVendor = "Tokheim"
	a.ReasonFCCNotWorking = "Power"

	b := testutil.Support("S-2", "Acme Co", "2024-01-20T00:00:00.000Z", "Sensor Fail", 100, 97)
	b.WarrantyStatus = domain.WarrantyAMC
	b.HardwareVersion = "v2"

	c := testutil.Support("S-3", "Beta Ltd", "", "OTP", 0, 0)

	ov := SupportOverview([]domain.SupportTicket{a, b, c})

	assert.Equal(t, 3, ov.Total)
	assert.Equal(t, 1, ov.InWarranty)
	assert.Equal(t, 1, ov.AMC)
	assert.Equal(t, 1, ov.Critical)
	assert.Equal(t, 1, ov.CalibrationAlerts)
	assert.Equal(t, CalibrationStable, ov.CalibrationStatus)
	assert.Equal(t, []domain.NameValue{{Name: UnspecifiedLabel, Value: 2}, {Name: CriticalBucket, Value: 1}}, ov.BySeverity)
	assert.Equal(t, []domain.NameValue{{Name: "v2", Value: 2}, {Name: UnknownLabel, Value: 1}}, ov.ByHardwareVersion)
	assert.Equal(t, []domain.NameValue{{Name: UnknownLabel, Value: 2}, {Name: "Tokheim", Value: 1}}, ov.ByVendor)
	assert.Equal(t, []domain.NameValue{{Name: "Power", Value: 1}}, ov.ByFCCReason)
	assert.Equal(t, "Sensor Fail", ov.TopIssues[0].Name)
	assert.Len(t, ov.Repeats, 1)
	assert.Len(t, ov.Trend, 1)
}
