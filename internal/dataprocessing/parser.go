package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "agroprices/internal/errors"
	"agroprices/pkg/contracts/domain"
)

// LoadOptions controls how a raw table file is read
type LoadOptions struct {
	// Sheet selects the worksheet of an .xlsx file; empty means the first sheet
	Sheet string
	// Comma is the field delimiter of a .csv file; zero means ','
	Comma rune
}

// LoadRawTable reads a scraped price table saved as .xlsx or .csv.
// The table is returned as-is; shape checks happen in NormalizeTable.
func LoadRawTable(filePath string, opts LoadOptions) (domain.RawTable, error) {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".xlsx", ".xlsm":
		return loadWorkbookTable(filePath, opts.Sheet)
	case ".csv", ".txt":
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return ReadCSVTable(f, opts.Comma)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported table file extension %q", ext), nil).
			WithContext("path", filePath)
	}
}

func loadWorkbookTable(filePath, sheet string) (domain.RawTable, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", filePath)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			WithContext("path", filePath)
	}

	slog.Debug("Loaded raw table from workbook",
		slog.String("path", filePath),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	// Trailing empty cells are not returned by excelize; restore the fixed width
	table := make(domain.RawTable, len(rows))
	for i, row := range rows {
		table[i] = padRow(row)
	}
	return table, nil
}

// ReadCSVTable reads a raw table from CSV. Rows keep their own width so
// that malformed input is reported rather than silently padded.
func ReadCSVTable(r io.Reader, comma rune) (domain.RawTable, error) {
	reader := csv.NewReader(r)
	if comma != 0 {
		reader.Comma = comma
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV table", err)
	}
	if len(records) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return domain.RawTable(records), nil
}

func padRow(row []string) []string {
	if len(row) >= domain.RawTableWidth {
		return row
	}
	padded := make([]string, domain.RawTableWidth)
	copy(padded, row)
	return padded
}
