package testutil

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"opspulse/pkg/contracts/domain"
)

// FuelHeaders is the header row of a typical "Fuel - Issue" form export.
var FuelHeaders = []string{
	"Id", "Start time", "Completion time", "Name", "Company Name", "State",
	"Fuel Team SPOC", "Product", "Customer/Partner Reported Issue",
	"Issue(s) List", "Facing Issue with which app",
}

// SupportHeaders is the header row of a typical "After Sales" form export.
var SupportHeaders = []string{
	"Id", "Start time", "Completion time", "Company Name", "In Warranty or AMC",
	"Issue Buckets", "RATG Hardware Version", "Issue(s) List", "Manual Dip",
	"App Fuel Level", "DU Vendor", "Reasons for FCC Not Working",
}

// WorkbookBytes builds an xlsx file whose first sheet holds headers followed by
// rows. A nil cell is left blank.
func WorkbookBytes(t *testing.T, headers []string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("failed to write header row: %v", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("failed to compute cell name: %v", err)
		}
		values := append([]any(nil), row...)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("failed to write row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}

// Fuel builds a fuel ticket with the fields the analytics views read.
func Fuel(id, company, start, issues string) domain.FuelTicket {
	return domain.FuelTicket{
		ID:          id,
		CompanyName: company,
		StartTime:   start,
		IssueList:   issues,
		Status:      domain.StatusPending,
	}
}

// Support builds an after-sales ticket with the fields the analytics views read.
func Support(id, company, start, issues string, manual, app float64) domain.SupportTicket {
	return domain.SupportTicket{
		ID:             id,
		CompanyName:    company,
		StartTime:      start,
		IssueList:      issues,
		ManualDipLevel: manual,
		AppFuelLevel:   app,
		WarrantyStatus: domain.WarrantyOutOfWarranty,
	}
}

// FuelRecords wraps fuel tickets as Records.
func FuelRecords(tickets ...domain.FuelTicket) []domain.Record {
	out := make([]domain.Record, len(tickets))
	for i := range tickets {
		out[i] = tickets[i]
	}
	return out
}

// SupportRecords wraps after-sales tickets as Records.
func SupportRecords(tickets ...domain.SupportTicket) []domain.Record {
	out := make([]domain.Record, len(tickets))
	for i := range tickets {
		out[i] = tickets[i]
	}
	return out
}
