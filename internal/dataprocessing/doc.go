// Package dataprocessing turns human-authored ticket spreadsheets into typed
// records.
//
// # Data Flow
//
//	xlsx/csv → ReadSheet → Sheet{Rows []RawRow} → Normalizer → FuelTicket / SupportTicket
//
// Headers drift between exports, so every logical field is looked up through a
// HeaderTaxonomy: an ordered list of header texts tried first exactly and then
// as case-insensitive substrings of the row's headers (see Resolve). The
// default taxonomy covers the known form exports and can be extended from a
// YAML file with LoadHeaderTaxonomy.
//
// # Error Handling
//
// Only two failures are structural. A file that cannot be read at all is a
// PARSING AppError; a readable file without data rows is EMPTY_RESULT. Field
// level problems never fail: text fields fall back to "", numbers to 0 and
// dates to "".
//
// Usage:
//
//	ingestor := dataprocessing.NewIngestor(dataprocessing.DefaultHeaderTaxonomy(), logger)
//	ds, err := ingestor.IngestFile(ctx, file, "tickets.xlsx", domain.SheetFuel, domain.SourceUpload)
package dataprocessing
