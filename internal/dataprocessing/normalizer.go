package dataprocessing

import (
	"fmt"
	"strings"

	"opspulse/pkg/contracts/domain"
)

// Normalizer turns raw rows into typed tickets using a header taxonomy.
// It is stateless apart from the taxonomy and safe for concurrent use.
type Normalizer struct {
	taxonomy HeaderTaxonomy
}

// NewNormalizer creates a normalizer for the given taxonomy.
func NewNormalizer(taxonomy HeaderTaxonomy) *Normalizer {
	return &Normalizer{taxonomy: taxonomy}
}

var defaultNormalizer = NewNormalizer(DefaultHeaderTaxonomy())

// NormalizeFuel normalizes rows with the default taxonomy.
func NormalizeFuel(rows []domain.RawRow) []domain.FuelTicket {
	return defaultNormalizer.Fuel(rows)
}

// NormalizeSupport normalizes rows with the default taxonomy.
func NormalizeSupport(rows []domain.RawRow) []domain.SupportTicket {
	return defaultNormalizer.Support(rows)
}

// Normalize normalizes rows of the given kind with the default taxonomy.
func Normalize(rows []domain.RawRow, kind domain.SheetKind) []domain.Record {
	return defaultNormalizer.Normalize(rows, kind)
}

// Normalize dispatches on kind and returns the tickets as Records. An unknown
// kind yields nil.
func (n *Normalizer) Normalize(rows []domain.RawRow, kind domain.SheetKind) []domain.Record {
	switch kind {
	case domain.SheetFuel:
		tickets := n.Fuel(rows)
		out := make([]domain.Record, len(tickets))
		for i := range tickets {
			out[i] = tickets[i]
		}
		return out
	case domain.SheetAfterSales:
		tickets := n.Support(rows)
		out := make([]domain.Record, len(tickets))
		for i := range tickets {
			out[i] = tickets[i]
		}
		return out
	}
	return nil
}

// Fuel normalizes one ticket per row. Output length always equals input length.
func (n *Normalizer) Fuel(rows []domain.RawRow) []domain.FuelTicket {
	ids := newIDAllocator(len(rows))
	out := make([]domain.FuelTicket, len(rows))

	for i, row := range rows {
		get := func(field string) string { return Resolve(row, n.taxonomy.FuelCandidates(field)) }
		raw := func(field string) any {
			v, _ := ResolveValue(row, n.taxonomy.FuelCandidates(field))
			return v
		}

		status := domain.StatusPending
		if get(FieldCompletionTime) != "" {
			status = domain.StatusResolved
		}

		out[i] = domain.FuelTicket{
			ID:                        ids.next(get(FieldID), i),
			StartTime:                 CoerceDate(raw(FieldStartTime)),
			CompletionTime:            CoerceDate(raw(FieldCompletionTime)),
			Name:                      get(FieldName),
			CompanyName:               get(FieldCompanyName),
			State:                     get(FieldState),
			FuelTeamSPOC:              get(FieldFuelTeamSPOC),
			Product:                   get(FieldProduct),
			ReportedIssue:             get(FieldReportedIssue),
			InternalTeamReportedIssue: get(FieldInternalIssue),
			DetailedDescription:       get(FieldDetailedDescription),
			IssueList:                 get(FieldIssueList),
			Status:                    status,
			Remarks:                   get(FieldRemarks),
			AppType:                   get(FieldAppType),
			IssueFacedBy:              get(FieldIssueFacedBy),
		}
	}
	return out
}

// Support normalizes one after-sales ticket per row. Output length always
// equals input length.
func (n *Normalizer) Support(rows []domain.RawRow) []domain.SupportTicket {
	ids := newIDAllocator(len(rows))
	out := make([]domain.SupportTicket, len(rows))

	for i, row := range rows {
		get := func(field string) string { return Resolve(row, n.taxonomy.SupportCandidates(field)) }
		raw := func(field string) any {
			v, _ := ResolveValue(row, n.taxonomy.SupportCandidates(field))
			return v
		}

		out[i] = domain.SupportTicket{
			ID:                  ids.next(get(FieldID), i),
			StartTime:           CoerceDate(raw(FieldStartTime)),
			CompletionTime:      CoerceDate(raw(FieldCompletionTime)),
			Name:                get(FieldName),
			CompanyName:         get(FieldCompanyName),
			Email:               get(FieldEmail),
			AfterSalesSPOC:      get(FieldAfterSalesSPOC),
			TechSupportSPOC:     get(FieldTechSupportSPOC),
			WarrantyStatus:      normalizeWarranty(get(FieldWarrantyStatus)),
			State:               get(FieldState),
			Product:             get(FieldProduct),
			IssueBuckets:        get(FieldIssueBuckets),
			HardwareVersion:     get(FieldHardwareVersion),
			OperatorAppVersion:  get(FieldOperatorAppVersion),
			IssueList:           get(FieldIssueList),
			FirmwareVersion:     get(FieldFirmwareVersion),
			RATGController:      get(FieldRATGController),
			ManualDipLevel:      CoerceNumber(get(FieldManualDipLevel)),
			AppFuelLevel:        CoerceNumber(get(FieldAppFuelLevel)),
			DispenseOrderQty:    CoerceNumber(get(FieldDispenseOrderQty)),
			DispensedQty:        CoerceNumber(get(FieldDispensedQty)),
			JobNumber:           get(FieldJobNumber),
			Remarks:             get(FieldRemarks),
			DUVendor:            get(FieldDUVendor),
			FCCHardwareVersion:  get(FieldFCCHardwareVersion),
			OrderID:             get(FieldOrderID),
			ReasonFCCNotWorking: get(FieldReasonFCCNotWorking),
		}
	}
	return out
}

// normalizeWarranty canonicalizes the three known labels regardless of case.
// Blank means Out of Warranty; any other text is kept as written.
func normalizeWarranty(s string) domain.WarrantyStatus {
	trimmed := strings.TrimSpace(s)
	for _, w := range []domain.WarrantyStatus{
		domain.WarrantyInWarranty,
		domain.WarrantyAMC,
		domain.WarrantyOutOfWarranty,
	} {
		if strings.EqualFold(trimmed, string(w)) {
			return w
		}
	}
	if trimmed == "" {
		return domain.WarrantyOutOfWarranty
	}
	return domain.WarrantyStatus(trimmed)
}

// idAllocator hands out unique ticket ids within one normalization pass.
type idAllocator struct {
	used map[string]int
}

func newIDAllocator(size int) *idAllocator {
	return &idAllocator{used: make(map[string]int, size)}
}

// next returns id, or ROW-<index> when blank. Repeats get a -<n> suffix,
// counting from 1, skipping any suffix already taken.
func (a *idAllocator) next(id string, index int) string {
	if id == "" {
		id = fmt.Sprintf("ROW-%d", index)
	}
	if _, taken := a.used[id]; !taken {
		a.used[id] = 0
		return id
	}
	for {
		a.used[id]++
		candidate := fmt.Sprintf("%s-%d", id, a.used[id])
		if _, taken := a.used[candidate]; !taken {
			a.used[candidate] = 0
			return candidate
		}
	}
}
