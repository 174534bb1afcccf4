package http

import (
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/view"
)

type expenseResponse struct {
	ID          string     `json:"id"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
	ReceiptID   string     `json:"receipt_id,omitempty"`
}

type statsResponse struct {
	Total        core.Money `json:"total"`
	MonthTotal   core.Money `json:"month_total"`
	DailyAverage core.Money `json:"daily_average"`
}

type listExpensesResponse struct {
	Items      []expenseResponse `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	TotalItems int               `json:"total_items"`
	Stats      statsResponse     `json:"stats"`
}

func toExpenseResponse(rec core.ExpenseRecord) expenseResponse {
	return expenseResponse{
		ID:          rec.ID,
		Amount:      rec.Amount,
		Category:    rec.Category.String(),
		Description: rec.Description,
		Date:        rec.Date,
		ReceiptID:   rec.ReceiptID,
	}
}

// fetchRecords returns the owner's full record list, served from the
// list cache when fresh.
func (s *Server) fetchRecords(r *http.Request, ownerID string) ([]core.ExpenseRecord, error) {
	if records, ok := s.listCache.Get(ownerID); ok {
		return records, nil
	}
	records, err := s.expenses.List(r.Context(), ownerID)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(ownerID, records)
	return records, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	criteria, err := parseFilterCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := parsePageSize(r, s.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.fetchRecords(r, user.ID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	// Stats always cover the full list; the filter narrows only what
	// is shown.
	stats := view.Summarize(records, core.Today())

	filtered := view.Filter(records, criteria)
	page = view.ClampPage(page, len(filtered), pageSize)
	items := view.Paginate(filtered, pageSize, page)

	resp := listExpensesResponse{
		Items:      make([]expenseResponse, 0, len(items)),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: view.TotalPages(len(filtered), pageSize),
		TotalItems: len(filtered),
		Stats: statsResponse{
			Total:        stats.Total,
			MonthTotal:   stats.MonthTotal,
			DailyAverage: stats.DailyAverage,
		},
	}
	for _, rec := range items {
		resp.Items = append(resp.Items, toExpenseResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := req.toRecord(user.ID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.expenses.Create(r.Context(), rec)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.listCache.Delete(user.ID)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "expense created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldRecordID, created.ID,
		applog.FieldAmountCents, created.Amount.Cents,
		applog.FieldCategory, created.Category.String())
	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing expense id")
		return
	}

	if err := s.expenses.Delete(r.Context(), user.ID, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.listCache.Delete(user.ID)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldRecordID, id)
	w.WriteHeader(http.StatusNoContent)
}
