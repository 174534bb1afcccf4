// Package view turns a flat, unordered list of expense records into
// filtered, paginated and summarized projections for display. All
// functions here are pure computations over already-fetched data: they
// perform no I/O and never mutate their input.
package view

import (
	"expensetracker/internal/core"
)

// Filter returns the records matching every set bound of the criteria.
// The result is a fresh slice and is always a subset of the input;
// re-applying the same criteria yields an identical result.
func Filter(records []core.ExpenseRecord, criteria core.FilterCriteria) []core.ExpenseRecord {
	out := make([]core.ExpenseRecord, 0, len(records))
	for _, r := range records {
		if criteria.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// TotalPages returns the number of pages needed for count items. There
// is always at least one page, so a clamped page number stays valid
// even for an empty list.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage forces a requested page number into [1, TotalPages].
func ClampPage(page, count, pageSize int) int {
	if page < 1 {
		return 1
	}
	if max := TotalPages(count, pageSize); page > max {
		return max
	}
	return page
}

// Paginate returns the slice [(page-1)*size, page*size) clipped to the
// list bounds. The page number is clamped, so the result is never
// out of range and never negative-indexed.
func Paginate(records []core.ExpenseRecord, pageSize, page int) []core.ExpenseRecord {
	if pageSize <= 0 {
		return nil
	}
	page = ClampPage(page, len(records), pageSize)
	start := (page - 1) * pageSize
	if start >= len(records) {
		return nil
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
