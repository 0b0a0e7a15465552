package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "agroprices/internal/errors"
	"agroprices/pkg/contracts/domain"
)

// seriesColumns maps one half of a raw row onto the canonical fields.
// Both halves share the date in column 0.
type seriesColumns struct {
	variable   domain.Variable
	date       int
	unit       int
	equivalent int
	min        int
	avg        int
	max        int
}

var (
	wholesaleColumns = seriesColumns{
		variable:   domain.VariableWholesale,
		date:       0,
		unit:       1,
		equivalent: 2,
		min:        3,
		avg:        4,
		max:        5,
	}
	retailColumns = seriesColumns{
		variable:   domain.VariableRetail,
		date:       0,
		unit:       6,
		equivalent: 7,
		min:        8,
		avg:        9,
		max:        10,
	}
)

// NormalizeTable splits a scraped price table into its wholesale and retail
// series. The header band is dropped, every remaining row yields exactly one
// record in each series, and labels are attached to every record.
//
// Unparseable dates become null and unparseable numbers keep their original
// text; neither is an error. A table whose shape is wrong is rejected before
// any row is converted.
func NormalizeTable(table domain.RawTable, labels domain.Labels) (wholesale, retail []domain.PriceRecord, err error) {
	if err := ValidateShape(table); err != nil {
		return nil, nil, err
	}

	rows := table[domain.RawTableHeaderRows:]
	wholesale = make([]domain.PriceRecord, 0, len(rows))
	retail = make([]domain.PriceRecord, 0, len(rows))

	for _, row := range rows {
		wholesale = append(wholesale, buildRecord(row, wholesaleColumns, labels))
		retail = append(retail, buildRecord(row, retailColumns, labels))
	}

	return wholesale, retail, nil
}

// ValidateShape checks the structural assumptions about a scraped table:
// the header band plus at least one data row, and RawTableWidth cells per row.
func ValidateShape(table domain.RawTable) error {
	minRows := domain.RawTableHeaderRows + 1
	if len(table) < minRows {
		return apperrors.NewParsingError(
			fmt.Sprintf("table has %d rows, need at least %d (%d header rows and one data row)",
				len(table), minRows, domain.RawTableHeaderRows), nil).
			WithContext("rows", len(table))
	}

	for i, row := range table {
		if len(row) != domain.RawTableWidth {
			return apperrors.NewParsingError(
				fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), domain.RawTableWidth), nil).
				WithContext("row", i).
				WithContext("columns", len(row))
		}
	}
	return nil
}

func buildRecord(row []string, cols seriesColumns, labels domain.Labels) domain.PriceRecord {
	return domain.PriceRecord{
		Year:           labels.Year,
		Date:           ParseDate(row[cols.date]),
		Region:         labels.Region,
		Product:        labels.Product,
		Subtype:        labels.Subtype,
		Variable:       cols.variable,
		UnitOfMeasure:  row[cols.unit],
		EquivalentKgLt: ParseNumber(row[cols.equivalent]),
		PriceMin:       ParseNumber(row[cols.min]),
		PriceAvg:       ParseNumber(row[cols.avg]),
		PriceMax:       ParseNumber(row[cols.max]),
	}
}

// ParseDate parses a day/month/year cell. Anything else yields a null date.
func ParseDate(cell string) domain.NullDate {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(cell))
	if err != nil {
		return domain.NullDate{}
	}
	return domain.NullDate{Time: t, Valid: true}
}

// ParseNumber converts a cell using a decimal comma. An empty cell is null;
// a cell that still does not parse keeps its original text.
func ParseNumber(cell string) domain.Number {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return domain.Number{}
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64)
	if err != nil {
		return domain.RawNumber(cell)
	}
	return domain.NewNumber(f)
}

// CountFallbacks returns how many cells in records were nulled (dates) or
// kept as text (numbers) during conversion.
func CountFallbacks(records []domain.PriceRecord) int {
	n := 0
	for _, r := range records {
		if !r.Date.Valid {
			n++
		}
		for _, num := range []domain.Number{r.EquivalentKgLt, r.PriceMin, r.PriceAvg, r.PriceMax} {
			if !num.Valid && num.Raw != "" {
				n++
			}
		}
	}
	return n
}
