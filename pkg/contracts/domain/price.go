package domain

import (
	"strconv"
	"time"
)

// RawTableWidth is the number of cells every scraped price table row carries.
const RawTableWidth = 11

// RawTableHeaderRows is the size of the header band at the top of a scraped table.
const RawTableHeaderRows = 4

// DateLayout is the layout of the date cells in scraped tables (day/month/year).
// Day and month may carry one or two digits.
const DateLayout = "2/1/2006"

// RawTable is a scraped price table exactly as the page renders it:
// a header band followed by data rows of RawTableWidth cells each.
type RawTable [][]string

// Labels identifies one unit of scraping work.
type Labels struct {
	Year    int    `json:"year" validate:"required,gte=1900,lte=2100"`
	Region  string `json:"region" validate:"required"`
	Product string `json:"product" validate:"required"`
	Subtype string `json:"subtype"`
}

// Variable distinguishes the two price series of a table
type Variable string

const (
	VariableWholesale Variable = "Wholesale"
	VariableRetail    Variable = "Retail"
)

// ParseVariable accepts the canonical names as well as the Spanish labels
// written by the earlier spreadsheet tooling.
func ParseVariable(s string) (Variable, bool) {
	switch s {
	case string(VariableWholesale), "Mayorista":
		return VariableWholesale, true
	case string(VariableRetail), "Minorista":
		return VariableRetail, true
	}
	return "", false
}

// NullDate is a calendar date that may be absent.
type NullDate struct {
	Time  time.Time
	Valid bool
}

// NewDate returns a valid NullDate at midnight UTC.
func NewDate(year int, month time.Month, day int) NullDate {
	return NullDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// String renders the date as YYYY-MM-DD, or an empty string when null.
func (d NullDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// Number is a numeric cell. A cell that could not be converted keeps its
// original text in Raw; an empty cell is null (neither Valid nor Raw set).
type Number struct {
	Float float64
	Raw   string
	Valid bool
}

// NewNumber returns a valid Number.
func NewNumber(f float64) Number {
	return Number{Float: f, Valid: true}
}

// RawNumber returns a Number holding unconverted text.
func RawNumber(s string) Number {
	return Number{Raw: s}
}

// IsNull reports whether the cell carried no value at all.
func (n Number) IsNull() bool {
	return !n.Valid && n.Raw == ""
}

// Value returns float64, string or nil depending on the cell state.
func (n Number) Value() any {
	switch {
	case n.Valid:
		return n.Float
	case n.Raw != "":
		return n.Raw
	default:
		return nil
	}
}

func (n Number) String() string {
	if n.Valid {
		return strconv.FormatFloat(n.Float, 'f', -1, 64)
	}
	return n.Raw
}

// PriceRecord is one normalized price observation. Field order is the
// canonical column order of the output workbooks.
type PriceRecord struct {
	Year           int      `json:"year"`
	Date           NullDate `json:"date"`
	Region         string   `json:"region"`
	Product        string   `json:"product"`
	Subtype        string   `json:"subtype"`
	Variable       Variable `json:"variable"`
	UnitOfMeasure  string   `json:"unit_of_measure"`
	EquivalentKgLt Number   `json:"equivalent_kg_lt"`
	PriceMin       Number   `json:"price_min"`
	PriceAvg       Number   `json:"price_avg"`
	PriceMax       Number   `json:"price_max"`
}

// PriceRecordColumns is the canonical header of the output workbooks.
var PriceRecordColumns = []string{
	"Year", "Date", "Region", "Product", "Subtype", "Variable",
	"UnitOfMeasure", "Equivalent_KgLt", "PriceMin", "PriceAvg", "PriceMax",
}

// BusinessKey uniquely identifies a logical price observation.
type BusinessKey struct {
	Year     int
	Date     string
	Region   string
	Product  string
	Subtype  string
	Variable Variable
}

// Key returns the record's business key. Null dates share one key value.
func (r PriceRecord) Key() BusinessKey {
	return BusinessKey{
		Year:     r.Year,
		Date:     r.Date.String(),
		Region:   r.Region,
		Product:  r.Product,
		Subtype:  r.Subtype,
		Variable: r.Variable,
	}
}
