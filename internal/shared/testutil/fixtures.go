package testutil

import (
	"strings"

	"agroprices/pkg/contracts/domain"
)

// HeaderBand returns the four header rows that precede the price rows of a
// scraped table.
func HeaderBand() domain.RawTable {
	return domain.RawTable{
		{"PRECIOS", "", "", "", "", "", "", "", "", "", ""},
		{"", "MAYORISTA", "", "", "", "", "MINORISTA", "", "", "", ""},
		{"FECHA", "UNIDAD", "EQUIV", "MIN", "PROM", "MAX", "UNIDAD", "EQUIV", "MIN", "PROM", "MAX"},
		{"", "", "(KG/LT)", "", "", "", "", "(KG/LT)", "", "", ""},
	}
}

// RawTable appends data rows to a header band
func RawTable(rows ...[]string) domain.RawTable {
	return append(HeaderBand(), rows...)
}

// SampleRows are two days of prices for one product
func SampleRows() [][]string {
	return [][]string{
		{"15/03/2024", "Saco", "50", "1,20", "1,50", "1,80", "Kg", "1", "2,00", "2,50", "3,00"},
		{"16/03/2024", "Saco", "50", "1,25", "1,55", "1,85", "Kg", "1", "2,10", "2,60", "3,10"},
	}
}

// CSV renders table with the given delimiter, the way a spreadsheet export does
func CSV(table domain.RawTable, comma string) string {
	var b strings.Builder
	for _, row := range table {
		b.WriteString(strings.Join(row, comma))
		b.WriteByte('\n')
	}
	return b.String()
}
