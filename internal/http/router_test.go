package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/repository"
	"expense-ledger/internal/service/auth"
	"expense-ledger/internal/service/ledger"
	"expense-ledger/internal/token"
)

// storeStub backs both repositories with in-memory state so the full
// register/login/CRUD path can run against real services.
type storeStub struct {
	users    []domain.User
	expenses []domain.Expense
}

func (s *storeStub) CreateUser(_ context.Context, user *domain.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return repository.ErrConflict
		}
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *storeStub) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for i := range s.users {
		if s.users[i].Username == username {
			clone := s.users[i]
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *storeStub) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	for i := range s.users {
		if s.users[i].ID == id {
			clone := s.users[i]
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *storeStub) CreateExpense(_ context.Context, expense *domain.Expense) error {
	s.expenses = append(s.expenses, *expense)
	return nil
}

func (s *storeStub) GetExpense(_ context.Context, id, ownerID string) (*domain.Expense, error) {
	for i := range s.expenses {
		if s.expenses[i].ID == id && s.expenses[i].OwnerID == ownerID {
			clone := s.expenses[i]
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *storeStub) ListExpenses(_ context.Context, ownerID string, limit, offset int) ([]domain.Expense, error) {
	var owned []domain.Expense
	for _, expense := range s.expenses {
		if expense.OwnerID == ownerID {
			owned = append(owned, expense)
		}
	}
	if offset >= len(owned) {
		return []domain.Expense{}, nil
	}
	owned = owned[offset:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

func (s *storeStub) UpdateExpense(_ context.Context, id, ownerID string, update repository.ExpenseUpdate) (*domain.Expense, error) {
	for i := range s.expenses {
		if s.expenses[i].ID != id || s.expenses[i].OwnerID != ownerID {
			continue
		}
		record := &s.expenses[i]
		if update.Title != nil {
			record.Title = *update.Title
		}
		if update.Amount != nil {
			record.Amount = *update.Amount
		}
		if update.Date != nil {
			record.Date = *update.Date
		}
		if update.Description != nil {
			record.Description = *update.Description
		}
		if update.Category != nil {
			record.Category = *update.Category
		}
		clone := *record
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (s *storeStub) DeleteExpense(_ context.Context, id, ownerID string) (bool, error) {
	for i := range s.expenses {
		if s.expenses[i].ID == id && s.expenses[i].OwnerID == ownerID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *storeStub) CategoryTotals(_ context.Context, ownerID string, from, to time.Time) ([]domain.CategoryTotal, error) {
	byCategory := make(map[string]*domain.CategoryTotal)
	var order []string
	for _, expense := range s.expenses {
		if expense.OwnerID != ownerID || expense.Date.Before(from) || !expense.Date.Before(to) {
			continue
		}
		entry, ok := byCategory[expense.Category]
		if !ok {
			entry = &domain.CategoryTotal{Category: expense.Category}
			byCategory[expense.Category] = entry
			order = append(order, expense.Category)
		}
		entry.Total += expense.Amount
		entry.Count++
	}
	totals := make([]domain.CategoryTotal, 0, len(order))
	for _, category := range order {
		totals = append(totals, *byCategory[category])
	}
	return totals, nil
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	store := &storeStub{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	signer, err := token.NewSigner("router-test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	authSvc := auth.New(store, signer, log)
	ledgerSvc := ledger.New(store, log)
	router := NewRouter(log, authSvc, ledgerSvc, NewMemoryRateLimiter(), nil)
	t.Cleanup(router.Close)
	return router
}

func doJSON(t *testing.T, router *Router, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "192.0.2.1:40000"
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func registerAndLogin(t *testing.T, router *Router, username, password string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["token_type"] != "bearer" {
		t.Fatalf("unexpected token_type %v", body["token_type"])
	}
	tok, _ := body["access_token"].(string)
	if tok == "" {
		t.Fatal("empty access token")
	}
	return tok
}

func TestRegisterValidationAndConflict(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{"username": "", "password": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/register", "", map[string]string{"username": "alice", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["username"] != "alice" {
		t.Fatalf("unexpected username %v", body["username"])
	}
	if _, ok := body["password"]; ok {
		t.Fatal("response must not echo the password")
	}

	rec = doJSON(t, router, http.MethodPost, "/register", "", map[string]string{"username": "alice", "password": "other"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "alice", "secret1")

	wrongPassword := doJSON(t, router, http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "nope"})
	unknownUser := doJSON(t, router, http.MethodPost, "/login", "", map[string]string{"username": "mallory", "password": "nope"})

	if wrongPassword.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("failure bodies must match: %q vs %q", wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func TestMeRequiresToken(t *testing.T) {
	router := newTestRouter(t)
	tok := registerAndLogin(t, router, "alice", "secret1")

	rec := doJSON(t, router, http.MethodGet, "/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/me", "tampered", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/me", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["username"] != "alice" {
		t.Fatalf("unexpected username %v", body["username"])
	}
}

func TestExpenseLifecycle(t *testing.T) {
	router := newTestRouter(t)
	tok := registerAndLogin(t, router, "alice", "secret1")

	rec := doJSON(t, router, http.MethodPost, "/expenses", tok, map[string]any{
		"title": "Groceries", "amount": 42.5, "category": "food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created expense has no id")
	}

	rec = doJSON(t, router, http.MethodGet, "/expenses/"+id, tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/expenses/"+id, tok, map[string]any{"amount": 50})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody(t, rec)
	if updated["amount"] != 50.0 {
		t.Fatalf("unexpected amount %v", updated["amount"])
	}
	if updated["title"] != "Groceries" {
		t.Fatalf("partial update must keep title, got %v", updated["title"])
	}

	rec = doJSON(t, router, http.MethodGet, "/expenses", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var listed []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one expense, got %d", len(listed))
	}

	rec = doJSON(t, router, http.MethodDelete, "/expenses/"+id, tok, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/expenses/"+id, tok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestOwnershipIsHidden(t *testing.T) {
	router := newTestRouter(t)
	aliceTok := registerAndLogin(t, router, "alice", "secret1")
	bobTok := registerAndLogin(t, router, "bob", "secret2")

	rec := doJSON(t, router, http.MethodPost, "/expenses", aliceTok, map[string]any{
		"title": "Groceries", "amount": 42.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d", rec.Code)
	}
	id := decodeBody(t, rec)["id"].(string)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = doJSON(t, router, method, "/expenses/"+id, bobTok, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s as other owner: expected 404, got %d", method, rec.Code)
		}
	}
	rec = doJSON(t, router, http.MethodPut, "/expenses/"+id, bobTok, map[string]any{"amount": 1})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("PUT as other owner: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/expenses", bobTok, nil)
	var listed []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("other owner's list must be empty, got %d records", len(listed))
	}
}

func TestMalformedExpenseIDIsBadRequest(t *testing.T) {
	router := newTestRouter(t)
	tok := registerAndLogin(t, router, "alice", "secret1")

	rec := doJSON(t, router, http.MethodGet, "/expenses/not-a-uuid", tok, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	router := newTestRouter(t)
	tok := registerAndLogin(t, router, "alice", "secret1")

	date := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	for _, payload := range []map[string]any{
		{"title": "Groceries", "amount": 40, "category": "food", "date": date},
		{"title": "Rent", "amount": 900, "category": "housing", "date": date},
	} {
		rec := doJSON(t, router, http.MethodPost, "/expenses", tok, payload)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/expenses/summary?year=2026&month=3", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["total"] != 940.0 {
		t.Fatalf("unexpected total %v", body["total"])
	}
	if body["count"] != 2.0 {
		t.Fatalf("unexpected count %v", body["count"])
	}
}

func TestHealthzAndCORS(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}

	req := httptest.NewRequest(http.MethodOptions, "/expenses", nil)
	optRec := httptest.NewRecorder()
	router.ServeHTTP(optRec, req)
	if optRec.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", optRec.Code)
	}
}
