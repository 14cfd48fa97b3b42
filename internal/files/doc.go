// Package files discovers workbooks on disk.
//
// The server uses it at startup to load the newest fuel and after-sales
// workbooks dropped into the data directory. A workbook belongs to a kind when
// its file name starts with one of the kind's prefixes:
//
//	fuel          fuel
//	after-sales   after-sales, after_sales, aftersales, support
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	if latest, ok := discovery.LatestForKind("", domain.SheetFuel); ok {
//	    // load latest.Path
//	}
package files
