package dataprocessing

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// Logical field names shared by both sheet schemas.
const (
	FieldID             = "id"
	FieldStartTime      = "start_time"
	FieldCompletionTime = "completion_time"
	FieldName           = "name"
	FieldCompanyName    = "company_name"
	FieldState          = "state"
	FieldProduct        = "product"
	FieldIssueList      = "issue_list"
	FieldRemarks        = "remarks"
)

// Fuel-only logical fields.
const (
	FieldFuelTeamSPOC        = "fuel_team_spoc"
	FieldReportedIssue       = "reported_issue"
	FieldInternalIssue       = "internal_team_reported_issue"
	FieldDetailedDescription = "detailed_description"
	FieldAppType             = "app_type"
	FieldIssueFacedBy        = "issue_faced_by"
)

// After-sales-only logical fields.
const (
	FieldEmail               = "email"
	FieldAfterSalesSPOC      = "after_sales_spoc"
	FieldTechSupportSPOC     = "tech_support_spoc"
	FieldWarrantyStatus      = "warranty_status"
	FieldIssueBuckets        = "issue_buckets"
	FieldHardwareVersion     = "hardware_version"
	FieldOperatorAppVersion  = "operator_app_version"
	FieldFirmwareVersion     = "firmware_version"
	FieldRATGController      = "ratg_controller"
	FieldManualDipLevel      = "manual_dip_level"
	FieldAppFuelLevel        = "app_fuel_level"
	FieldDispenseOrderQty    = "dispense_order_qty"
	FieldDispensedQty        = "dispensed_qty"
	FieldJobNumber           = "job_number"
	FieldDUVendor            = "du_vendor"
	FieldFCCHardwareVersion  = "fcc_hardware_version"
	FieldOrderID             = "order_id"
	FieldReasonFCCNotWorking = "reason_fcc_not_working"
)

// HeaderTaxonomy maps each logical field to the header texts it may appear
// under, most specific first.
type HeaderTaxonomy struct {
	Fuel       map[string][]string `yaml:"fuel"`
	AfterSales map[string][]string `yaml:"after_sales"`
}

// DefaultHeaderTaxonomy returns the headers used by the known form exports.
// Each call returns a fresh copy.
func DefaultHeaderTaxonomy() HeaderTaxonomy {
	return HeaderTaxonomy{
		Fuel: map[string][]string{
			FieldID:                  {"Id", "ID"},
			FieldStartTime:           {"Start time", "StartTime"},
			FieldCompletionTime:      {"Completion time", "CompletionTime"},
			FieldName:                {"Name"},
			FieldCompanyName:         {"Company Name", "Customer/Partner"},
			FieldState:               {"State"},
			FieldFuelTeamSPOC:        {"Fuel Team SPOC"},
			FieldProduct:             {"Product"},
			FieldReportedIssue:       {"Customer/Partner Reported Issue", "Reported Issue"},
			FieldInternalIssue:       {"Internal Team Reported Issue", "Internal Issue"},
			FieldDetailedDescription: {"Describe the issue in detail", "Description"},
			FieldIssueList:           {"Issue(s) List", "Issue List"},
			FieldRemarks:             {"Remarks"},
			FieldAppType:             {"Facing Issue with which app", "App Type"},
			FieldIssueFacedBy:        {"Issue faced by", "IssueFacedBy"},
		},
		AfterSales: map[string][]string{
			FieldID:                  {"Id", "ID"},
			FieldStartTime:           {"Start time", "StartTime"},
			FieldCompletionTime:      {"Completion time", "CompletionTime"},
			FieldName:                {"Name"},
			FieldCompanyName:         {"Company Name", "Customer/Partner"},
			FieldEmail:               {"Email"},
			FieldAfterSalesSPOC:      {"After Sales SPOC"},
			FieldTechSupportSPOC:     {"Tech Support Team SPOC"},
			FieldWarrantyStatus:      {"In Warranty or AMC", "Warranty"},
			FieldState:               {"State"},
			FieldProduct:             {"Product"},
			FieldIssueBuckets:        {"Issue Buckets"},
			FieldHardwareVersion:     {"RATG Hardware Version", "Hardware Version"},
			FieldOperatorAppVersion:  {"Operator App Version"},
			FieldIssueList:           {"Issue(s) List", "Hardware Issue", "Issue List"},
			FieldFirmwareVersion:     {"FCC Firmware Version", "Firmware Version"},
			FieldRATGController:      {"RATG Controller"},
			FieldManualDipLevel:      {"Manual Dip", "ManualDip"},
			FieldAppFuelLevel:        {"App Fuel Level", "Fuel Level as visible", "App"},
			FieldDispenseOrderQty:    {"Dispense Order Quantity", "Order Quantity"},
			FieldDispensedQty:        {"Dispensed Quantity"},
			FieldJobNumber:           {"JOB Number", "RFS", "RFD"},
			FieldRemarks:             {"Remarks"},
			FieldDUVendor:            {"DU Vendor"},
			FieldFCCHardwareVersion:  {"FCC Hardware Version"},
			FieldOrderID:             {"Order ID"},
			FieldReasonFCCNotWorking: {"Reasons for FCC Not Working"},
		},
	}
}

// FuelCandidates returns the header list for a fuel field.
func (t HeaderTaxonomy) FuelCandidates(field string) []string { return t.Fuel[field] }

// SupportCandidates returns the header list for an after-sales field.
func (t HeaderTaxonomy) SupportCandidates(field string) []string { return t.AfterSales[field] }

// Extend appends the headers in other to the matching fields, skipping
// duplicates. Fields unknown to t are rejected so typos surface at startup.
func (t HeaderTaxonomy) Extend(other HeaderTaxonomy) error {
	if err := extendSchema("fuel", t.Fuel, other.Fuel); err != nil {
		return err
	}
	return extendSchema("after_sales", t.AfterSales, other.AfterSales)
}

func extendSchema(schema string, dst, src map[string][]string) error {
	fields := make([]string, 0, len(src))
	for f := range src {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		existing, ok := dst[field]
		if !ok {
			return fmt.Errorf("unknown %s field %q in header taxonomy", schema, field)
		}
		seen := make(map[string]bool, len(existing))
		for _, h := range existing {
			seen[h] = true
		}
		for _, h := range src[field] {
			if h == "" || seen[h] {
				continue
			}
			seen[h] = true
			existing = append(existing, h)
		}
		dst[field] = existing
	}
	return nil
}

// LoadHeaderTaxonomy returns the default taxonomy extended with the headers
// listed in the YAML file at path. An empty path returns the defaults.
//
//	fuel:
//	  company_name: ["Client"]
//	after_sales:
//	  du_vendor: ["Dispenser Make"]
func LoadHeaderTaxonomy(path string) (HeaderTaxonomy, error) {
	taxonomy := DefaultHeaderTaxonomy()
	if path == "" {
		return taxonomy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return HeaderTaxonomy{}, fmt.Errorf("failed to read header taxonomy: %w", err)
	}

	var extra HeaderTaxonomy
	if err := yaml.UnmarshalStrict(data, &extra); err != nil {
		return HeaderTaxonomy{}, fmt.Errorf("failed to parse header taxonomy %s: %w", path, err)
	}
	if err := taxonomy.Extend(extra); err != nil {
		return HeaderTaxonomy{}, err
	}
	return taxonomy, nil
}
