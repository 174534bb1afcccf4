package view

import (
	"expensetracker/internal/core"
)

// DefaultPageSize is used when a caller does not ask for a specific
// page size.
const DefaultPageSize = 10

// View holds a working copy of the fetched expense list together with
// the active filter criteria and page position. It never owns the
// records it is handed, only a copy, and never mutates them.
type View struct {
	records  []core.ExpenseRecord
	criteria core.FilterCriteria
	pageSize int
	page     int
}

// Page is one window of the filtered list plus enough metadata to
// render pagination controls.
type Page struct {
	Items      []core.ExpenseRecord
	Number     int
	Size       int
	TotalPages int
	TotalItems int
}

func New(pageSize int) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{pageSize: pageSize, page: 1}
}

// SetRecords replaces the working copy. The page position is clamped to
// the new list so the view never points past the end.
func (v *View) SetRecords(records []core.ExpenseRecord) {
	v.records = append([]core.ExpenseRecord(nil), records...)
	v.page = ClampPage(v.page, len(v.Filtered()), v.pageSize)
}

// SetFilter replaces the active criteria. Changing the criteria resets
// the page to 1; re-applying identical criteria keeps the position.
func (v *View) SetFilter(criteria core.FilterCriteria) {
	if v.criteria.Equal(criteria) {
		return
	}
	v.criteria = criteria
	v.page = 1
}

// SetPage moves to the requested page, clamped to the filtered list.
func (v *View) SetPage(page int) {
	v.page = ClampPage(page, len(v.Filtered()), v.pageSize)
}

// Criteria returns the active filter criteria.
func (v *View) Criteria() core.FilterCriteria {
	return v.criteria
}

// Filtered returns the records matching the active criteria.
func (v *View) Filtered() []core.ExpenseRecord {
	return Filter(v.records, v.criteria)
}

// Page returns the current window of the filtered list.
func (v *View) Page() Page {
	filtered := v.Filtered()
	number := ClampPage(v.page, len(filtered), v.pageSize)
	return Page{
		Items:      Paginate(filtered, v.pageSize, number),
		Number:     number,
		Size:       v.pageSize,
		TotalPages: TotalPages(len(filtered), v.pageSize),
		TotalItems: len(filtered),
	}
}

// Stats computes the dashboard aggregates over the full working copy,
// independent of the active filter.
func (v *View) Stats(ref core.Date) Stats {
	return Summarize(v.records, ref)
}
