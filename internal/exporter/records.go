package exporter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"opspulse/pkg/contracts/domain"
)

// FuelColumns are the form headers of a fuel export. They match the headers
// the ingestor recognizes, so an export can be uploaded again.
var FuelColumns = []string{
	"Id", "Start time", "Completion time", "Name", "Company Name", "State",
	"Fuel Team SPOC", "Product", "Customer/Partner Reported Issue",
	"Internal Team Reported Issue", "Describe the issue in detail",
	"Issue(s) List", "Status", "Remarks", "Facing Issue with which app",
	"Issue faced by",
}

// SupportColumns are the form headers of an after-sales export.
var SupportColumns = []string{
	"Id", "Start time", "Completion time", "Name", "Company Name", "Email",
	"After Sales SPOC", "Tech Support Team SPOC", "In Warranty or AMC", "State",
	"Product", "Issue Buckets", "RATG Hardware Version", "Operator App Version",
	"Issue(s) List", "FCC Firmware Version", "RATG Controller", "Manual Dip",
	"App Fuel Level", "Dispense Order Quantity", "Dispensed Quantity",
	"JOB Number", "Remarks", "DU Vendor", "FCC Hardware Version", "Order ID",
	"Reasons for FCC Not Working",
}

func fuelRow(t domain.FuelTicket) []string {
	return []string{
		t.ID, t.StartTime, t.CompletionTime, t.Name, t.CompanyName, t.State,
		t.FuelTeamSPOC, t.Product, t.ReportedIssue,
		t.InternalTeamReportedIssue, t.DetailedDescription,
		t.IssueList, string(t.Status), t.Remarks, t.AppType,
		t.IssueFacedBy,
	}
}

func supportRow(t domain.SupportTicket) []string {
	return []string{
		t.ID, t.StartTime, t.CompletionTime, t.Name, t.CompanyName, t.Email,
		t.AfterSalesSPOC, t.TechSupportSPOC, string(t.WarrantyStatus), t.State,
		t.Product, t.IssueBuckets, t.HardwareVersion, t.OperatorAppVersion,
		t.IssueList, t.FirmwareVersion, t.RATGController, number(t.ManualDipLevel),
		number(t.AppFuelLevel), number(t.DispenseOrderQty), number(t.DispensedQty),
		t.JobNumber, t.Remarks, t.DUVendor, t.FCCHardwareVersion, t.OrderID,
		t.ReasonFCCNotWorking,
	}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Table flattens records into a header row and string rows.
func Table[R domain.Record](kind domain.SheetKind, records []R) ([]string, [][]string, error) {
	var headers []string
	switch kind {
	case domain.SheetFuel:
		headers = FuelColumns
	case domain.SheetAfterSales:
		headers = SupportColumns
	default:
		return nil, nil, fmt.Errorf("unknown sheet kind %q", kind)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		switch t := any(r).(type) {
		case domain.FuelTicket:
			rows = append(rows, fuelRow(t))
		case domain.SupportTicket:
			rows = append(rows, supportRow(t))
		}
		if r.Kind() != kind {
			return nil, nil, fmt.Errorf("record %s is %s, not %s", r.RecordID(), r.Kind(), kind)
		}
	}
	return headers, rows, nil
}

// WriteRecords streams records as a BOM-prefixed CSV.
func WriteRecords[R domain.Record](w io.Writer, kind domain.SheetKind, records []R) error {
	headers, rows, err := Table(kind, records)
	if err != nil {
		return err
	}
	return Encode(w, WriteOptions{Headers: headers, Records: rows, BOMPrefix: true})
}

// FileName builds a timestamped export name such as
// "fuel-tickets-20240115-103000.csv".
func FileName(kind domain.SheetKind, now time.Time) string {
	return fmt.Sprintf("%s-tickets-%s.csv", kind.Slug(), now.UTC().Format("20060102-150405"))
}
