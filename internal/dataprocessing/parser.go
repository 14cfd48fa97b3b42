package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "opspulse/internal/errors"
	"opspulse/pkg/contracts/domain"
)

// SupportedExtensions lists the upload formats the reader accepts.
var SupportedExtensions = []string{".xlsx", ".xlsm", ".xls", ".csv"}

// emptyHeader names a column whose header cell is blank.
const emptyHeader = "__EMPTY"

// Sheet is the first worksheet of an uploaded file, keyed by its header row.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []domain.RawRow
}

// IsSupportedFile reports whether the file extension is accepted for upload.
func IsSupportedFile(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ReadSheet reads the first worksheet of an xlsx or csv file. The format is
// chosen by file extension. Failure to read the file at all is a parsing error.
func ReadSheet(r io.Reader, fileName string) (*Sheet, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return readCSV(r)
	case ".xlsx", ".xls", ".xlsm":
		sheet, err := readWorkbook(r)
		if err != nil && ext == ".xls" {
			return nil, apperrors.NewParsingError("legacy .xls workbooks cannot be read, save the file as .xlsx", err).
				WithContext("file_name", fileName)
		}
		return sheet, err
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported file format %q", ext), nil).
			WithContext("file_name", fileName)
	}
}

func readWorkbook(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no worksheets", nil)
	}

	// GetRows yields the formatted text of each cell, as shown in the sheet.
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read worksheet", err).
			WithContext("sheet", sheets[0])
	}

	sheet := GridToSheet(grid)
	sheet.Name = sheets[0]
	return sheet, nil
}

func readCSV(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	grid, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read csv", err)
	}
	if len(grid) > 0 && len(grid[0]) > 0 {
		grid[0][0] = strings.TrimPrefix(grid[0][0], "\ufeff")
	}

	sheet := GridToSheet(grid)
	sheet.Name = "csv"
	return sheet, nil
}

// GridToSheet converts a cell grid whose first row holds headers into keyed
// rows. Headers are trimmed; blank headers become __EMPTY and repeated headers
// get _1, _2 suffixes. Blank cells are omitted, rows with no cells are skipped,
// and cells beyond the header width are ignored.
func GridToSheet(grid [][]string) *Sheet {
	sheet := &Sheet{}
	if len(grid) == 0 {
		return sheet
	}

	sheet.Headers = uniqueHeaders(grid[0])
	for _, cells := range grid[1:] {
		var row domain.RawRow
		for i, cell := range cells {
			if i >= len(sheet.Headers) {
				break
			}
			if v := strings.TrimSpace(cell); v != "" {
				row.Set(sheet.Headers[i], v)
			}
		}
		if row.Len() == 0 {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func uniqueHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = emptyHeader
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 0
		}
		headers[i] = h
	}
	return headers
}
