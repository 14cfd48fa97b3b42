// Package shared holds code used across opspulse packages that belongs to no
// single layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - ticket fixtures and an in-memory xlsx builder
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    data := testutil.WorkbookBytes(t, []string{"Id", "Start time"}, [][]any{{"1", "2024-01-15"}})
//	    // ...
//	}
package shared
