// Package exporter writes normalized tickets back out as CSV.
//
// Exports use the same column headers as the source form exports and start
// with a UTF-8 BOM so Excel opens them with the right encoding. An export can
// be uploaded again and normalizes to the same records.
//
//	headers, rows, err := exporter.Table(domain.SheetFuel, tickets)
//	err = exporter.WriteRecords(w, domain.SheetFuel, tickets)
package exporter
