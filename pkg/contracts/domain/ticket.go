package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 form every normalized timestamp is written in.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// SheetKind selects which ticket schema a sheet is normalized into.
type SheetKind string

const (
	SheetFuel       SheetKind = "FUEL"
	SheetAfterSales SheetKind = "AFTER_SALES"
)

// SheetKinds returns every sheet kind in display order.
func SheetKinds() []SheetKind {
	return []SheetKind{SheetFuel, SheetAfterSales}
}

// Slug returns the URL form of the kind.
func (k SheetKind) Slug() string {
	switch k {
	case SheetFuel:
		return "fuel"
	case SheetAfterSales:
		return "after-sales"
	default:
		return strings.ToLower(string(k))
	}
}

// ParseSheetKind accepts the enum value or its URL slug in any case.
func ParseSheetKind(s string) (SheetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fuel":
		return SheetFuel, nil
	case "after_sales", "after-sales", "aftersales", "support":
		return SheetAfterSales, nil
	}
	return "", fmt.Errorf("unknown sheet kind %q", s)
}

// RawRow is one spreadsheet row keyed by header text. Empty cells are absent.
// Order holds the source column order and drives fuzzy header matching; when it
// is empty keys are visited in sorted order.
type RawRow struct {
	Cells map[string]any `json:"cells"`
	Order []string       `json:"order,omitempty"`
}

// NewRawRow builds a row from a plain map. Column order is unknown.
func NewRawRow(cells map[string]any) RawRow {
	if cells == nil {
		cells = map[string]any{}
	}
	return RawRow{Cells: cells}
}

// Set stores a cell, remembering first-seen column order.
func (r *RawRow) Set(key string, value any) {
	if r.Cells == nil {
		r.Cells = make(map[string]any)
	}
	if _, exists := r.Cells[key]; !exists {
		r.Order = append(r.Order, key)
	}
	r.Cells[key] = value
}

// Get returns the cell stored under the exact key.
func (r RawRow) Get(key string) (any, bool) {
	v, ok := r.Cells[key]
	return v, ok
}

// Keys returns the row's headers in column order.
func (r RawRow) Keys() []string {
	if len(r.Order) > 0 {
		return r.Order
	}
	keys := make([]string, 0, len(r.Cells))
	for k := range r.Cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the number of non-empty cells.
func (r RawRow) Len() int {
	return len(r.Cells)
}

// Record is the closed set of normalized ticket types. Only FuelTicket and
// SupportTicket implement it.
type Record interface {
	RecordID() string
	Company() string
	// IssueText is the raw semicolon-delimited issue list.
	IssueText() string
	StartedAt() (time.Time, bool)
	// SearchFields lists the values free-text search is matched against.
	SearchFields() []string
	Kind() SheetKind

	sealed()
}

// TicketStatus is the derived lifecycle state of a fuel ticket.
type TicketStatus string

const (
	StatusPending    TicketStatus = "Pending"
	StatusResolved   TicketStatus = "Resolved"
	StatusInProgress TicketStatus = "In Progress"
)

// WarrantyStatus is the coverage of an after-sales ticket.
type WarrantyStatus string

const (
	WarrantyInWarranty    WarrantyStatus = "In Warranty"
	WarrantyAMC           WarrantyStatus = "AMC"
	WarrantyOutOfWarranty WarrantyStatus = "Out of Warranty"
)

// FuelTicket is one row of the "Fuel - Issue" sheet.
type FuelTicket struct {
	ID                        string       `json:"id"`
	StartTime                 string       `json:"startTime"`
	CompletionTime            string       `json:"completionTime"`
	Name                      string       `json:"name"`
	CompanyName               string       `json:"companyName"`
	State                     string       `json:"state"`
	FuelTeamSPOC              string       `json:"fuelTeamSpoc"`
	Product                   string       `json:"product"`
	ReportedIssue             string       `json:"reportedIssue"`
	InternalTeamReportedIssue string       `json:"internalTeamReportedIssue"`
	DetailedDescription       string       `json:"detailedDescription"`
	IssueList                 string       `json:"issueList"`
	Status                    TicketStatus `json:"status"`
	Remarks                   string       `json:"remarks"`
	AppType                   string       `json:"appType"`
	IssueFacedBy              string       `json:"issueFacedBy"`
}

func (t FuelTicket) RecordID() string  { return t.ID }
func (t FuelTicket) Company() string   { return t.CompanyName }
func (t FuelTicket) IssueText() string { return t.IssueList }
func (t FuelTicket) Kind() SheetKind   { return SheetFuel }
func (FuelTicket) sealed()             {}

func (t FuelTicket) StartedAt() (time.Time, bool) { return ParseTimestamp(t.StartTime) }

func (t FuelTicket) SearchFields() []string {
	return []string{
		t.ID,
		t.CompanyName,
		t.Name,
		t.State,
		t.Product,
		t.ReportedIssue,
		t.InternalTeamReportedIssue,
		t.DetailedDescription,
		t.IssueList,
		t.FuelTeamSPOC,
	}
}

// SupportTicket is one row of the "After Sales" sheet.
type SupportTicket struct {
	ID                  string         `json:"id"`
	StartTime           string         `json:"startTime"`
	CompletionTime      string         `json:"completionTime"`
	Name                string         `json:"name"`
	CompanyName         string         `json:"companyName"`
	Email               string         `json:"email"`
	AfterSalesSPOC      string         `json:"afterSalesSpoc"`
	TechSupportSPOC     string         `json:"techSupportSpoc"`
	WarrantyStatus      WarrantyStatus `json:"warrantyStatus"`
	State               string         `json:"state"`
	Product             string         `json:"product"`
	IssueBuckets        string         `json:"issueBuckets"`
	HardwareVersion     string         `json:"hardwareVersion"`
	OperatorAppVersion  string         `json:"operatorAppVersion"`
	IssueList           string         `json:"issueList"`
	FirmwareVersion     string         `json:"firmwareVersion"`
	RATGController      string         `json:"ratgController"`
	ManualDipLevel      float64        `json:"manualDipLevel"`
	AppFuelLevel        float64        `json:"appFuelLevel"`
	DispenseOrderQty    float64        `json:"dispenseOrderQty"`
	DispensedQty        float64        `json:"dispensedQty"`
	JobNumber           string         `json:"jobNumber"`
	Remarks             string         `json:"remarks"`
	DUVendor            string         `json:"duVendor"`
	FCCHardwareVersion  string         `json:"fccHardwareVersion"`
	OrderID             string         `json:"orderId"`
	ReasonFCCNotWorking string         `json:"reasonFccNotWorking"`
}

func (t SupportTicket) RecordID() string  { return t.ID }
func (t SupportTicket) Company() string   { return t.CompanyName }
func (t SupportTicket) IssueText() string { return t.IssueList }
func (t SupportTicket) Kind() SheetKind   { return SheetAfterSales }
func (SupportTicket) sealed()             {}

func (t SupportTicket) StartedAt() (time.Time, bool) { return ParseTimestamp(t.StartTime) }

func (t SupportTicket) SearchFields() []string {
	return []string{
		t.ID,
		t.CompanyName,
		t.Name,
		t.State,
		t.Product,
		t.IssueList,
		t.IssueBuckets,
		t.AfterSalesSPOC,
		t.TechSupportSPOC,
	}
}

// ParseTimestamp reads a normalized ISO-8601 timestamp. Empty or malformed
// input reports false.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// FormatTimestamp writes t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
