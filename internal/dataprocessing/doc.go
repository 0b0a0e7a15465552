// Package dataprocessing turns scraped agricultural price tables into
// canonical price records.
//
// A scraped table has a four-row header band followed by data rows of
// eleven cells each: the date, five wholesale columns and five retail
// columns. NormalizeTable splits every data row into one wholesale and one
// retail record carrying the caller's labels:
//
//	table, err := dataprocessing.LoadRawTable("lima_papa.xlsx", dataprocessing.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//	wholesale, retail, err := dataprocessing.NormalizeTable(table, labels)
//
// Dates use day/month/year and become null when they do not parse. Numbers
// use a decimal comma; a cell that does not parse keeps its original text so
// that nothing scraped is lost.
package dataprocessing
