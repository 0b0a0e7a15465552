package dataprocessing

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agroprices/internal/errors"
	"agroprices/pkg/contracts/domain"
)

var testLabels = domain.Labels{Year: 2024, Region: "Lima", Product: "Papa", Subtype: "Blanca"}

// headerBand mimics the four header rows rendered above the price rows
func headerBand() domain.RawTable {
	return domain.RawTable{
		{"PRECIOS", "", "", "", "", "", "", "", "", "", ""},
		{"", "MAYORISTA", "", "", "", "", "MINORISTA", "", "", "", ""},
		{"FECHA", "UNIDAD", "EQUIV", "MIN", "PROM", "MAX", "UNIDAD", "EQUIV", "MIN", "PROM", "MAX"},
		{"", "", "(KG/LT)", "", "", "", "", "(KG/LT)", "", "", ""},
	}
}

func tableWith(rows ...[]string) domain.RawTable {
	return append(headerBand(), rows...)
}

func TestNormalizeTable(t *testing.T) {
	table := tableWith(
		[]string{"15/03/2024", "Saco", "50", "1,20", "1,50", "1,80", "Kg", "1", "2,00", "2,50", "3,00"},
		[]string{"16/03/2024", "Saco", "50", "1,25", "1,55", "1,85", "Kg", "1", "2,10", "2,60", "3,10"},
	)

	wholesale, retail, err := NormalizeTable(table, testLabels)
	require.NoError(t, err)
	require.Len(t, wholesale, 2)
	require.Len(t, retail, 2)

	assert.Equal(t, domain.PriceRecord{
		Year:           2024,
		Date:           domain.NewDate(2024, time.March, 15),
		Region:         "Lima",
		Product:        "Papa",
		Subtype:        "Blanca",
		Variable:       domain.VariableWholesale,
		UnitOfMeasure:  "Saco",
		EquivalentKgLt: domain.NewNumber(50),
		PriceMin:       domain.NewNumber(1.2),
		PriceAvg:       domain.NewNumber(1.5),
		PriceMax:       domain.NewNumber(1.8),
	}, wholesale[0])

	assert.Equal(t, domain.PriceRecord{
		Year:           2024,
		Date:           domain.NewDate(2024, time.March, 16),
		Region:         "Lima",
		Product:        "Papa",
		Subtype:        "Blanca",
		Variable:       domain.VariableRetail,
		UnitOfMeasure:  "Kg",
		EquivalentKgLt: domain.NewNumber(1),
		PriceMin:       domain.NewNumber(2.1),
		PriceAvg:       domain.NewNumber(2.6),
		PriceMax:       domain.NewNumber(3.1),
	}, retail[1])
}

func TestNormalizeTableRowCount(t *testing.T) {
	for _, n := range []int{1, 3, 31} {
		rows := make([][]string, n)
		for i := range rows {
			rows[i] = []string{"01/01/2024", "Kg", "1", "1", "1", "1", "Kg", "1", "1", "1", "1"}
		}
		// Blank rows still yield a record in each series
		rows[0] = make([]string, domain.RawTableWidth)

		wholesale, retail, err := NormalizeTable(tableWith(rows...), testLabels)
		require.NoError(t, err)
		assert.Len(t, wholesale, n)
		assert.Len(t, retail, n)
	}
}

func TestNormalizeTableSchemaIdentity(t *testing.T) {
	wholesale, retail, err := NormalizeTable(tableWith(
		[]string{"01/02/2024", "Kg", "1", "1", "2", "3", "Kg", "1", "4", "5", "6"},
	), testLabels)
	require.NoError(t, err)

	wt := reflect.TypeOf(wholesale[0])
	rt := reflect.TypeOf(retail[0])
	require.Equal(t, wt, rt)

	fields := make([]string, wt.NumField())
	for i := range fields {
		fields[i] = wt.Field(i).Name
	}
	assert.Equal(t, []string{
		"Year", "Date", "Region", "Product", "Subtype", "Variable",
		"UnitOfMeasure", "EquivalentKgLt", "PriceMin", "PriceAvg", "PriceMax",
	}, fields)
	assert.Len(t, domain.PriceRecordColumns, wt.NumField())
}

func TestNormalizeTableSharesDateColumn(t *testing.T) {
	wholesale, retail, err := NormalizeTable(tableWith(
		[]string{"07/08/2024", "Kg", "1", "1", "2", "3", "Atado", "0,5", "4", "5", "6"},
	), testLabels)
	require.NoError(t, err)

	assert.Equal(t, wholesale[0].Date, retail[0].Date)
	assert.Equal(t, "Atado", retail[0].UnitOfMeasure)
	assert.Equal(t, domain.NewNumber(0.5), retail[0].EquivalentKgLt)
}

func TestNormalizeTableNumericFallback(t *testing.T) {
	wholesale, retail, err := NormalizeTable(tableWith(
		[]string{"15/03/2024", "Kg", "abc", "", "1.234,5", " 2,5 ", "Kg", "-", "n/d", "3", "4"},
	), testLabels)
	require.NoError(t, err)

	w := wholesale[0]
	assert.Equal(t, "abc", w.EquivalentKgLt.Value())
	assert.False(t, w.EquivalentKgLt.Valid)
	assert.True(t, w.PriceMin.IsNull())
	assert.Nil(t, w.PriceMin.Value())
	assert.Equal(t, "1.234,5", w.PriceAvg.Raw)
	assert.Equal(t, domain.NewNumber(2.5), w.PriceMax)

	r := retail[0]
	assert.Equal(t, "-", r.EquivalentKgLt.Value())
	assert.Equal(t, "n/d", r.PriceMin.Value())
	assert.Equal(t, 3.0, r.PriceAvg.Value())

	assert.Equal(t, 2, CountFallbacks(wholesale))
	assert.Equal(t, 2, CountFallbacks(retail))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want domain.NullDate
	}{
		{"15/03/2024", domain.NewDate(2024, time.March, 15)},
		{"5/3/2024", domain.NewDate(2024, time.March, 5)},
		{" 01/12/2023 ", domain.NewDate(2023, time.December, 1)},
		{"29/02/2024", domain.NewDate(2024, time.February, 29)},
		{"not-a-date", domain.NullDate{}},
		{"", domain.NullDate{}},
		{"2024-03-15", domain.NullDate{}},
		{"31/02/2024", domain.NullDate{}},
		{"15/13/2024", domain.NullDate{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDate(tt.in))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Number
	}{
		{"1,50", domain.NewNumber(1.5)},
		{"12", domain.NewNumber(12)},
		{"0.75", domain.NewNumber(0.75)},
		{"-3,25", domain.NewNumber(-3.25)},
		{"  ", domain.Number{}},
		{"abc", domain.RawNumber("abc")},
		{"1.000,50", domain.RawNumber("1.000,50")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.in))
		})
	}
}

func TestNormalizeTableRejectsBadShape(t *testing.T) {
	good := []string{"15/03/2024", "Kg", "1", "1", "1", "1", "Kg", "1", "1", "1", "1"}

	tests := []struct {
		name  string
		table domain.RawTable
	}{
		{"empty table", domain.RawTable{}},
		{"header band only", headerBand()},
		{"short data row", tableWith(good, good[:10])},
		{"wide data row", tableWith(append(append([]string{}, good...), "extra"))},
		{"short header row", append(domain.RawTable{{"PRECIOS"}}, tableWith(good)[1:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wholesale, retail, err := NormalizeTable(tt.table, testLabels)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
			assert.Nil(t, wholesale)
			assert.Nil(t, retail)
		})
	}
}
