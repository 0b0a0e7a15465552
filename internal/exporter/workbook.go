package exporter

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "agroprices/internal/errors"
	"agroprices/pkg/contracts/domain"
)

const dateNumFmt = "yyyy-mm-dd"

// legacyColumns is the header written by the spreadsheet tooling this
// package replaces. Files carrying it are read transparently.
var legacyColumns = []string{
	"AÑO", "FECHA", "REGION", "PRODUCTO", "TIPO", "VARIABLE",
	"UNIDAD DE MEDIDA", "EQUIVALENTE (KG/LT)",
	"PRECIO MINIMO", "PRECIO PROMEDIO", "PRECIO MAXIMO",
}

// WriteWorkbook encodes records as a single-sheet workbook: the canonical
// header row followed by one row per record, in order.
func WriteWorkbook(w io.Writer, records []domain.PriceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	numFmt := dateNumFmt
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(domain.PriceRecordColumns))
	for i, name := range domain.PriceRecordColumns {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, recordToRow(record, dateStyle)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return f.Write(w)
}

// firstSerialDate is the earliest date whose Excel serial survives a round
// trip. Excel's 1900 calendar counts a non-existent 1900-02-29 and has no
// serials before 1900, so earlier dates are stored as ISO text.
var firstSerialDate = time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC)

// recordToRow converts a record to stream writer cell values.
// Null dates and null numbers become empty cells.
func recordToRow(r domain.PriceRecord, dateStyle int) []interface{} {
	var date interface{}
	switch {
	case !r.Date.Valid:
	case r.Date.Time.Before(firstSerialDate):
		date = r.Date.String()
	default:
		date = excelize.Cell{StyleID: dateStyle, Value: r.Date.Time}
	}
	return []interface{}{
		r.Year,
		date,
		r.Region,
		r.Product,
		r.Subtype,
		string(r.Variable),
		r.UnitOfMeasure,
		r.EquivalentKgLt.Value(),
		r.PriceMin.Value(),
		r.PriceAvg.Value(),
		r.PriceMax.Value(),
	}
}

// ReadWorkbook decodes a workbook produced by WriteWorkbook (or by the
// legacy tooling). Any structural problem is reported as a corrupt file.
func ReadWorkbook(path string) ([]domain.PriceRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewCorruptError(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewCorruptError(path, fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewCorruptError(path, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewCorruptError(path, fmt.Errorf("missing header row"))
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, apperrors.NewCorruptError(path, err)
	}

	records := make([]domain.PriceRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		record, err := rowToRecord(row)
		if err != nil {
			return nil, apperrors.NewCorruptError(path, fmt.Errorf("row %d: %w", i+2, err)).
				WithContext("row", i+2)
		}
		records = append(records, record)
	}
	return records, nil
}

func checkHeader(row []string) error {
	header := make([]string, len(row))
	for i, name := range row {
		header[i] = strings.TrimSpace(name)
	}
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}

	if equalColumns(header, domain.PriceRecordColumns) || equalColumns(header, legacyColumns) {
		return nil
	}
	return fmt.Errorf("unexpected header %q", header)
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func rowToRecord(row []string) (domain.PriceRecord, error) {
	cells := make([]string, len(domain.PriceRecordColumns))
	copy(cells, row)

	year, err := parseYearCell(cells[0])
	if err != nil {
		return domain.PriceRecord{}, err
	}
	date, err := parseDateCell(cells[1])
	if err != nil {
		return domain.PriceRecord{}, err
	}
	variable, ok := domain.ParseVariable(cells[5])
	if !ok {
		return domain.PriceRecord{}, fmt.Errorf("unknown variable %q", cells[5])
	}

	return domain.PriceRecord{
		Year:           year,
		Date:           date,
		Region:         cells[2],
		Product:        cells[3],
		Subtype:        cells[4],
		Variable:       variable,
		UnitOfMeasure:  cells[6],
		EquivalentKgLt: parseNumberCell(cells[7]),
		PriceMin:       parseNumberCell(cells[8]),
		PriceAvg:       parseNumberCell(cells[9]),
		PriceMax:       parseNumberCell(cells[10]),
	}, nil
}

func parseYearCell(raw string) (int, error) {
	if year, err := strconv.Atoi(raw); err == nil {
		return year, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return int(f), nil
}

// parseDateCell accepts an Excel date serial, an ISO date string or an empty cell
func parseDateCell(raw string) (domain.NullDate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.NullDate{}, nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(math.Floor(serial), false)
		if err != nil {
			return domain.NullDate{}, fmt.Errorf("invalid date serial %q: %w", raw, err)
		}
		return domain.NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return domain.NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	return domain.NullDate{}, fmt.Errorf("invalid date %q", raw)
}

// parseNumberCell mirrors the normalizer: numbers stay numbers, text that
// was kept unconverted stays text.
func parseNumberCell(raw string) domain.Number {
	if strings.TrimSpace(raw) == "" {
		return domain.Number{}
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return domain.NewNumber(f)
	}
	return domain.RawNumber(raw)
}
