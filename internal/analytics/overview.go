package analytics

import (
	"math"

	"opspulse/internal/issues"
	"opspulse/pkg/contracts/domain"
)

// Ranking sizes used by the overviews.
const (
	HeadlineTop = 3
	DetailTop   = 5
)

// CriticalBucket is the severity bucket counted as critical hardware issues.
const CriticalBucket = "Critical"

// FuelOverview builds the fuel dashboard view.
func FuelOverview(tickets []domain.FuelTicket) domain.FuelOverview {
	records := make([]domain.Record, len(tickets))
	products := make([]string, len(tickets))
	appTypes := make([]string, len(tickets))
	resolved := 0
	for i, t := range tickets {
		records[i] = t
		products[i] = t.Product
		appTypes[i] = t.AppType
		if t.Status == domain.StatusResolved {
			resolved++
		}
	}

	issueCounts := IssueCounts(records)
	customerCounts := CustomerCounts(records)

	ov := domain.FuelOverview{
		Total:        len(tickets),
		Resolved:     resolved,
		Pending:      len(tickets) - resolved,
		TopIssue:     headline(issueCounts),
		TopIssues:    TopN(issueCounts, HeadlineTop),
		TopCustomer:  headline(customerCounts),
		TopCustomers: TopN(customerCounts, HeadlineTop),
		ByProduct:    Tally(products, UnknownLabel),
		ByAppType:    Tally(appTypes, UnknownLabel),
		ByLayer:      issues.LayerBreakdown(records),
		Trend:        MonthlyTrend(records),
		Repeats:      RepeatFailures(records, DefaultRepeatLimit),
		AvgDaily:     AverageDaily(records),
	}
	if ov.Total > 0 {
		ov.ResolvedRate = int(math.Round(float64(resolved) / float64(ov.Total) * 100))
	}
	return ov
}

// SupportOverview builds the after-sales dashboard view.
func SupportOverview(tickets []domain.SupportTicket) domain.SupportOverview {
	records := make([]domain.Record, len(tickets))
	severity := make([]string, len(tickets))
	hardware := make([]string, len(tickets))
	vendors := make([]string, len(tickets))
	fccReasons := make([]string, len(tickets))

	var ov domain.SupportOverview
	for i, t := range tickets {
		records[i] = t
		severity[i] = t.IssueBuckets
		hardware[i] = t.HardwareVersion
		vendors[i] = t.DUVendor
		fccReasons[i] = t.ReasonFCCNotWorking

		switch t.WarrantyStatus {
		case domain.WarrantyInWarranty:
			ov.InWarranty++
		case domain.WarrantyAMC:
			ov.AMC++
		}
		if t.IssueBuckets == CriticalBucket {
			ov.Critical++
		}
	}

	ov.Total = len(tickets)
	ov.CalibrationAlerts = CountCalibrationAlerts(tickets)
	ov.CalibrationStatus = CalibrationStatus(ov.CalibrationAlerts)
	ov.TopIssues = TopN(IssueCounts(records), DetailTop)
	ov.TopCustomers = TopN(CustomerCounts(records), DetailTop)
	ov.BySeverity = Tally(severity, UnspecifiedLabel)
	ov.ByHardwareVersion = Tally(hardware, UnknownLabel)
	ov.ByVendor = Tally(vendors, UnknownLabel)
	ov.ByFCCReason = Tally(fccReasons, "")
	ov.ByLayer = issues.LayerBreakdown(records)
	ov.Trend = MonthlyTrend(records)
	ov.Repeats = RepeatFailures(records, DefaultRepeatLimit)
	ov.AvgDaily = AverageDaily(records)
	return ov
}
