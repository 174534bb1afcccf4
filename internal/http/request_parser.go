package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB for JSON bodies

// parseFilterCriteria reads from, to and category query parameters
// into view filter criteria. Absent parameters leave their dimension
// unconstrained.
func parseFilterCriteria(r *http.Request) (core.FilterCriteria, error) {
	var criteria core.FilterCriteria
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return criteria, fmt.Errorf("invalid 'from' date %q: use YYYY-MM-DD", v)
		}
		criteria.From = &d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return criteria, fmt.Errorf("invalid 'to' date %q: use YYYY-MM-DD", v)
		}
		criteria.To = &d
	}
	if criteria.From != nil && criteria.To != nil && criteria.To.Before(*criteria.From) {
		return criteria, fmt.Errorf("'to' date precedes 'from' date")
	}

	if v := strings.TrimSpace(q.Get("category")); v != "" {
		cat, err := core.ParseCategory(v)
		if err != nil {
			return criteria, fmt.Errorf("invalid category %q", v)
		}
		criteria.Category = &cat
	}

	return criteria, nil
}

// parsePage reads the page query parameter, defaulting to the first
// page. Out-of-range values are clamped later against the actual
// result size.
func parsePage(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("page"))
	if v == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(v)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page %q: must be a positive number", v)
	}
	return page, nil
}

const maxPageSize = 500

// parsePageSize reads the page_size query parameter, falling back to
// the server default.
func parsePageSize(r *http.Request, fallback int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("page_size"))
	if v == "" {
		return fallback, nil
	}
	size, err := strconv.Atoi(v)
	if err != nil || size < 1 || size > maxPageSize {
		return 0, fmt.Errorf("invalid page_size %q: must be between 1 and %d", v, maxPageSize)
	}
	return size, nil
}

type createExpenseRequest struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
	ReceiptID   string `json:"receipt_id"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// toRecord converts a create request into a domain record owned by
// the given user. Field errors surface as core validation errors.
func (req createExpenseRequest) toRecord(ownerID string) (core.ExpenseRecord, error) {
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("invalid amount %q: %w", req.Amount, err)
	}

	cat, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("invalid category %q", req.Category)
	}

	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", req.Date)
	}

	rec := core.ExpenseRecord{
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		OwnerID:     ownerID,
		ReceiptID:   strings.TrimSpace(req.ReceiptID),
	}
	if err := rec.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	return rec, nil
}
