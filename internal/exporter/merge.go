package exporter

import "agroprices/pkg/contracts/domain"

// MergeRecords appends incoming to existing and drops every record whose
// business key appears again later. Survivors keep their relative order, so
// a re-scraped observation replaces the stored one at the position of the
// newer copy.
func MergeRecords(existing, incoming []domain.PriceRecord) (merged []domain.PriceRecord, dropped int) {
	combined := make([]domain.PriceRecord, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)

	last := make(map[domain.BusinessKey]int, len(combined))
	for i, r := range combined {
		last[r.Key()] = i
	}

	merged = make([]domain.PriceRecord, 0, len(last))
	for i, r := range combined {
		if last[r.Key()] == i {
			merged = append(merged, r)
		}
	}
	return merged, len(combined) - len(merged)
}
