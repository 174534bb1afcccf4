package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/retry"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
	"expensetracker/internal/store"
	"expensetracker/internal/store/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := memory.New()
	sessions := session.New(mem, retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}, nil)
	expenses := services.NewExpenseService(mem, mem, nil)

	s := NewServer(":0", sessions, expenses, nil, Options{PageSize: 2})
	srv := httptest.NewServer(s.Server.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func register(t *testing.T, base string) {
	t.Helper()
	registerUser(t, base, "Ada", "ada@example.com", "secret")
}

func registerUser(t *testing.T, base, name, email, password string) {
	t.Helper()
	resp := doJSON(t, "POST", base+"/api/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func login(t *testing.T, base, email, password string) {
	t.Helper()
	resp := doJSON(t, "POST", base+"/api/login", map[string]string{
		"email": email, "password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func uploadReceipt(t *testing.T, base, filename string, content []byte) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	mw.Close()

	req, _ := http.NewRequest("POST", base+"/api/receipts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status %d", resp.StatusCode)
	}
	uploaded := decodeBody[receiptResponse](t, resp)
	if uploaded.ID == "" {
		t.Fatalf("missing receipt id")
	}
	return uploaded.ID
}

func createExpense(t *testing.T, base, amount, category, date, desc string) {
	t.Helper()
	resp := doJSON(t, "POST", base+"/api/expenses", map[string]string{
		"amount": amount, "category": category, "date": date, "description": desc,
	})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create expense status %d: %s", resp.StatusCode, body)
	}
	resp.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status %d", path, resp.StatusCode)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	// Nobody signed in yet.
	resp, _ := http.Get(srv.URL + "/api/me")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me status %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	register(t, srv.URL)

	// Registration signs the user in.
	resp, _ = http.Get(srv.URL + "/api/me")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status %d, want 200", resp.StatusCode)
	}
	me := decodeBody[map[string]string](t, resp)
	if me["email"] != "ada@example.com" {
		t.Fatalf("unexpected user %v", me)
	}

	resp = doJSON(t, "POST", srv.URL+"/api/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status %d", resp.StatusCode)
	}

	resp, _ = http.Get(srv.URL + "/api/me")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout status %d, want 401", resp.StatusCode)
	}

	// Sign back in with the registered credentials.
	resp = doJSON(t, "POST", srv.URL+"/api/login", map[string]string{
		"email": "ada@example.com", "password": "secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)

	resp := doJSON(t, "POST", srv.URL+"/api/login", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login status %d, want 401", resp.StatusCode)
	}
}

func TestExpensesRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := http.Get(srv.URL + "/api/expenses")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
}

func TestExpenseListFilterAndPagination(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)

	createExpense(t, srv.URL, "10.00", "food", "2025-05-01", "groceries")
	createExpense(t, srv.URL, "5.00", "food", "2025-05-02", "lunch")
	createExpense(t, srv.URL, "7.50", "transportation", "2025-05-03", "bus pass")

	resp, _ := http.Get(srv.URL + "/api/expenses")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", resp.StatusCode)
	}
	list := decodeBody[listExpensesResponse](t, resp)
	// Page size 2, three records.
	if list.TotalItems != 3 || list.TotalPages != 2 || len(list.Items) != 2 {
		t.Fatalf("unexpected page shape %+v", list)
	}
	if list.Stats.Total.Cents != 2250 {
		t.Fatalf("total %d cents, want 2250", list.Stats.Total.Cents)
	}

	resp, _ = http.Get(srv.URL + "/api/expenses?page=2")
	list = decodeBody[listExpensesResponse](t, resp)
	if list.Page != 2 || len(list.Items) != 1 {
		t.Fatalf("unexpected second page %+v", list)
	}

	// Category filter narrows items but not stats.
	resp, _ = http.Get(srv.URL + "/api/expenses?category=food")
	list = decodeBody[listExpensesResponse](t, resp)
	if list.TotalItems != 2 {
		t.Fatalf("filtered total items %d, want 2", list.TotalItems)
	}
	for _, item := range list.Items {
		if item.Category != "food" {
			t.Fatalf("unexpected category %q", item.Category)
		}
	}
	if list.Stats.Total.Cents != 2250 {
		t.Fatalf("stats must cover all records, got %d", list.Stats.Total.Cents)
	}

	// Date range filter.
	resp, _ = http.Get(srv.URL + "/api/expenses?from=2025-05-02&to=2025-05-03")
	list = decodeBody[listExpensesResponse](t, resp)
	if list.TotalItems != 2 {
		t.Fatalf("date filtered items %d, want 2", list.TotalItems)
	}

	// Out-of-range page clamps instead of failing.
	resp, _ = http.Get(srv.URL + "/api/expenses?page=99")
	list = decodeBody[listExpensesResponse](t, resp)
	if list.Page != 2 {
		t.Fatalf("page %d, want clamped to 2", list.Page)
	}

	// Caller-chosen page size overrides the server default.
	resp, _ = http.Get(srv.URL + "/api/expenses?page_size=10")
	list = decodeBody[listExpensesResponse](t, resp)
	if list.PageSize != 10 || list.TotalPages != 1 || len(list.Items) != 3 {
		t.Fatalf("unexpected custom page size shape %+v", list)
	}
}

func TestExpenseListRejectsBadQuery(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)

	for _, query := range []string{"?from=garbage", "?category=vacation", "?page=0", "?page_size=0", "?page_size=9999", "?from=2025-05-02&to=2025-05-01"} {
		resp, _ := http.Get(srv.URL + "/api/expenses" + query)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status %d, want 400", query, resp.StatusCode)
		}
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)

	cases := []map[string]string{
		{"amount": "abc", "category": "food", "date": "2025-05-01", "description": "x"},
		{"amount": "1.00", "category": "vacation", "date": "2025-05-01", "description": "x"},
		{"amount": "1.00", "category": "food", "date": "bad", "description": "x"},
		{"amount": "1.00", "category": "food", "date": "2025-05-01", "description": ""},
		{"amount": "-1.00", "category": "food", "date": "2025-05-01", "description": "x"},
	}
	for i, body := range cases {
		resp := doJSON(t, "POST", srv.URL+"/api/expenses", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("case %d status %d, want 422", i, resp.StatusCode)
		}
	}
}

func TestDeleteExpense(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)
	createExpense(t, srv.URL, "3.00", "other", "2025-05-01", "misc")

	resp, _ := http.Get(srv.URL + "/api/expenses")
	list := decodeBody[listExpensesResponse](t, resp)
	if len(list.Items) != 1 {
		t.Fatalf("expected one record")
	}
	id := list.Items[0].ID

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/expenses/%s", srv.URL, id), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d", resp.StatusCode)
	}

	// The cached list must not serve the deleted record.
	resp, _ = http.Get(srv.URL + "/api/expenses")
	list = decodeBody[listExpensesResponse](t, resp)
	if list.TotalItems != 0 {
		t.Fatalf("expected empty list after delete, got %+v", list)
	}

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/expenses/%s", srv.URL, id), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status %d, want 404", resp.StatusCode)
	}
}

func TestDeleteExpenseRequiresOwnership(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)
	createExpense(t, srv.URL, "3.00", "other", "2025-05-01", "misc")

	resp, _ := http.Get(srv.URL + "/api/expenses")
	list := decodeBody[listExpensesResponse](t, resp)
	if len(list.Items) != 1 {
		t.Fatalf("expected one record")
	}
	id := list.Items[0].ID

	// A second registration switches the live session to another user.
	registerUser(t, srv.URL, "Bea", "bea@example.com", "hunter2")

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/expenses/%s", srv.URL, id), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign delete status %d, want 404", resp.StatusCode)
	}

	// The record is still there for its owner.
	login(t, srv.URL, "ada@example.com", "secret")
	resp, _ = http.Get(srv.URL + "/api/expenses")
	list = decodeBody[listExpensesResponse](t, resp)
	if list.TotalItems != 1 {
		t.Fatalf("owner lost the record, got %+v", list)
	}
}

func TestReceiptLifecycle(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)

	id := uploadReceipt(t, srv.URL, "receipt.jpg", []byte("jpeg bytes"))

	resp, _ := http.Get(fmt.Sprintf("%s/api/receipts/%s/url", srv.URL, id))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("url status %d", resp.StatusCode)
	}
	urlResp := decodeBody[receiptURLResponse](t, resp)
	if !strings.Contains(urlResp.URL, id) {
		t.Fatalf("url %q does not reference receipt", urlResp.URL)
	}

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/receipts/%s", srv.URL, id), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d", resp.StatusCode)
	}

	resp, _ = http.Get(fmt.Sprintf("%s/api/receipts/%s/url", srv.URL, id))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("url after delete status %d, want 404", resp.StatusCode)
	}
}

func TestReceiptContent(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)

	id := uploadReceipt(t, srv.URL, "receipt.jpg", []byte("jpeg bytes"))

	resp, err := http.Get(fmt.Sprintf("%s/api/receipts/%s/content", srv.URL, id))
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("content status %d", resp.StatusCode)
	}
	if ctype := resp.Header.Get("Content-Type"); ctype != "image/jpeg" {
		t.Fatalf("content type %q, want image/jpeg", ctype)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "jpeg bytes" {
		t.Fatalf("content %q, want original bytes", body)
	}
}

func TestReceiptAccessRequiresOwnership(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv.URL)

	id := uploadReceipt(t, srv.URL, "receipt.jpg", []byte("jpeg bytes"))

	registerUser(t, srv.URL, "Bea", "bea@example.com", "hunter2")

	for _, suffix := range []string{"url", "content"} {
		resp, _ := http.Get(fmt.Sprintf("%s/api/receipts/%s/%s", srv.URL, id, suffix))
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("foreign %s status %d, want 404", suffix, resp.StatusCode)
		}
	}
	resp := doJSON(t, "DELETE", fmt.Sprintf("%s/api/receipts/%s", srv.URL, id), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign delete status %d, want 404", resp.StatusCode)
	}

	// The owner still sees the receipt.
	login(t, srv.URL, "ada@example.com", "secret")
	resp, _ = http.Get(fmt.Sprintf("%s/api/receipts/%s/url", srv.URL, id))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner url status %d", resp.StatusCode)
	}
}

// remoteOnlyFiles hides local content access and hands out an external
// view URL, like the remote storage backend does.
type remoteOnlyFiles struct {
	store.FileStore
}

func (remoteOnlyFiles) FileURL(_ context.Context, _, fileID string) (string, error) {
	return "https://files.example.test/" + fileID + "/view", nil
}

func TestReceiptContentRedirectsForRemoteBackend(t *testing.T) {
	mem := memory.New()
	sessions := session.New(mem, retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}, nil)
	expenses := services.NewExpenseService(mem, remoteOnlyFiles{mem}, nil)
	s := NewServer(":0", sessions, expenses, nil, Options{PageSize: 2})
	srv := httptest.NewServer(s.Server.Handler)
	t.Cleanup(srv.Close)

	register(t, srv.URL)
	id := uploadReceipt(t, srv.URL, "receipt.jpg", []byte("jpeg bytes"))

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(fmt.Sprintf("%s/api/receipts/%s/content", srv.URL, id))
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("content status %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://files.example.test/"+id+"/view" {
		t.Fatalf("redirect location %q", loc)
	}
}
