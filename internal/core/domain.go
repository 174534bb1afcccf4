package core

import (
	"errors"
	"strings"
)

const (
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryUtilities      Category = "utilities"
	CategoryEntertainment  Category = "entertainment"
	CategoryOther          Category = "other"
)

type (
	Category string

	// ExpenseRecord is a single submitted expense. Records are immutable
	// once stored: edits are not supported, only delete and re-create.
	ExpenseRecord struct {
		ID          string
		Amount      Money
		Category    Category
		Description string
		Date        Date
		OwnerID     string
		ReceiptID   string // optional reference to a stored receipt file
	}

	// SessionUser is the currently authenticated principal.
	SessionUser struct {
		ID    string
		Name  string
		Email string
	}
)

var (
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingOwner     = errors.New("missing owner")
)

// Categories returns the fixed expense taxonomy in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransportation,
		CategoryUtilities,
		CategoryEntertainment,
		CategoryOther,
	}
}

// ParseCategory normalizes and validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTransportation, CategoryUtilities, CategoryEntertainment, CategoryOther:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (c Category) String() string {
	return string(c)
}

func (r ExpenseRecord) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if !r.Category.IsValid() {
		return ErrInvalidCategory
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		return ErrMissingOwner
	}
	return nil
}
