package domain

import "time"

// DatasetSource records where the active record set came from.
type DatasetSource string

const (
	SourceUpload DatasetSource = "upload"
	SourceSheets DatasetSource = "sheets"
	SourceFile   DatasetSource = "file"
)

// Dataset is one normalized ingest. It is replaced wholesale, never merged.
// Exactly one of Fuel or Support is populated, matching Kind.
type Dataset struct {
	ID          string        `json:"id"`
	Kind        SheetKind     `json:"kind"`
	Source      DatasetSource `json:"source"`
	FileName    string        `json:"fileName,omitempty"`
	Fingerprint string        `json:"fingerprint"`
	IngestedAt  time.Time     `json:"ingestedAt"`
	RowCount    int           `json:"rowCount"`

	Fuel    []FuelTicket    `json:"-"`
	Support []SupportTicket `json:"-"`
}

// Records returns the tickets as the shared Record sum type.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	switch d.Kind {
	case SheetFuel:
		out := make([]Record, len(d.Fuel))
		for i := range d.Fuel {
			out[i] = d.Fuel[i]
		}
		return out
	case SheetAfterSales:
		out := make([]Record, len(d.Support))
		for i := range d.Support {
			out[i] = d.Support[i]
		}
		return out
	}
	return nil
}

// Len reports the number of normalized tickets.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	if d.Kind == SheetFuel {
		return len(d.Fuel)
	}
	return len(d.Support)
}
