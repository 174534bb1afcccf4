package core

// FilterCriteria bounds an expense listing. Fields are conjunctive; a
// nil field places no constraint on that dimension.
type FilterCriteria struct {
	From     *Date
	To       *Date
	Category *Category
}

// IsZero reports whether no constraint is set.
func (c FilterCriteria) IsZero() bool {
	return c.From == nil && c.To == nil && c.Category == nil
}

// Matches reports whether the record satisfies every set bound.
// Records without a usable date are excluded from date-bounded criteria
// rather than failing the whole computation.
func (c FilterCriteria) Matches(r ExpenseRecord) bool {
	if c.From != nil || c.To != nil {
		if r.Date.IsZero() {
			return false
		}
	}
	if c.From != nil && r.Date.Before(*c.From) {
		return false
	}
	if c.To != nil && r.Date.After(*c.To) {
		return false
	}
	if c.Category != nil && r.Category != *c.Category {
		return false
	}
	return true
}

// Equal compares two criteria by value.
func (c FilterCriteria) Equal(other FilterCriteria) bool {
	if !datePtrEqual(c.From, other.From) || !datePtrEqual(c.To, other.To) {
		return false
	}
	if (c.Category == nil) != (other.Category == nil) {
		return false
	}
	return c.Category == nil || *c.Category == *other.Category
}

func datePtrEqual(a, b *Date) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(b.Time)
}
