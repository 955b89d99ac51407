package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nmehta6/splitledger/internal/ledger"
	"github.com/nmehta6/splitledger/internal/models"
	"github.com/nmehta6/splitledger/internal/server"
	"github.com/nmehta6/splitledger/internal/storage/sqlite"
)

func setupServer(t *testing.T) (http.Handler, *ledger.Engine, *sqlite.SQLiteStore) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "splitledger-server-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine := ledger.New(store)
	return server.New(engine).Handler(), engine, store
}

func seedGroup(t *testing.T, engine *ledger.Engine, store *sqlite.SQLiteStore) (groupID string, p, a, b string) {
	t.Helper()
	ctx := context.Background()
	p, a, b = "user-p", "user-a", "user-b"
	for id, name := range map[string]string{p: "Priya", a: "Arun", b: "Bala"} {
		if err := store.CreateUser(ctx, &models.User{ID: id, Name: name}); err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}
	group, err := engine.CreateGroup(ctx, "Flatmates", []string{p, a, b})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group.ID, p, a, b
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	handler, _, _ := setupServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", rec.Code)
	}
}

func TestCreateAndListUsers(t *testing.T) {
	handler, _, _ := setupServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/users", map[string]string{"name": "Priya"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /users status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[map[string]string](t, rec)
	if created["id"] == "" || created["name"] != "Priya" {
		t.Errorf("unexpected created user: %v", created)
	}

	rec = doJSON(t, handler, http.MethodGet, "/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /users status = %d", rec.Code)
	}
	users := decodeBody[[]map[string]string](t, rec)
	if len(users) != 1 || users[0]["name"] != "Priya" {
		t.Errorf("unexpected users listing: %v", users)
	}
}

func TestCreateUserMissingName(t *testing.T) {
	handler, _, _ := setupServer(t)
	rec := doJSON(t, handler, http.MethodPost, "/users", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody[errorBody](t, rec)
	if body.Error.Code != "INVALID_REQUEST" {
		t.Errorf("error code = %q, want INVALID_REQUEST", body.Error.Code)
	}
}

func TestGroupMembers(t *testing.T) {
	handler, engine, store := setupServer(t)
	groupID, _, _, _ := seedGroup(t, engine, store)

	rec := doJSON(t, handler, http.MethodGet, "/groups/members?group_id="+groupID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	members := decodeBody[[]map[string]string](t, rec)
	if len(members) != 3 {
		t.Errorf("got %d members, want 3", len(members))
	}

	rec = doJSON(t, handler, http.MethodGet, "/groups/members?group_id=no-such-group", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown group status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/groups/members", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing group_id status = %d, want 400", rec.Code)
	}
}

func TestExpenseAndBalancesRoundTrip(t *testing.T) {
	handler, engine, store := setupServer(t)
	groupID, p, a, b := seedGroup(t, engine, store)

	rec := doJSON(t, handler, http.MethodPost, "/expenses", map[string]any{
		"group_id":     groupID,
		"paid_by":      p,
		"total_amount": 90.00,
		"split_type":   "EQUAL",
		"participants": []string{p, a, b},
		"description":  "groceries",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /expenses status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/balances/user?user_id="+a, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /balances/user status = %d", rec.Code)
	}
	rows := decodeBody[[]map[string]any](t, rec)
	if len(rows) != 1 {
		t.Fatalf("got %d balance rows, want 1: %v", len(rows), rows)
	}
	if rows[0]["from_user_id"] != a || rows[0]["to_user_id"] != p {
		t.Errorf("unexpected balance orientation: %v", rows[0])
	}
	if amt := rows[0]["amount"].(float64); amt != 30.00 {
		t.Errorf("amount = %v, want 30.00", amt)
	}

	rec = doJSON(t, handler, http.MethodGet, "/balances/groups?group_id="+groupID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /balances/groups status = %d", rec.Code)
	}
	groupRows := decodeBody[[]map[string]any](t, rec)
	if len(groupRows) != 2 {
		t.Errorf("got %d group balance rows, want 2", len(groupRows))
	}
}

func TestExpenseExactSplitDecimalConversion(t *testing.T) {
	handler, engine, store := setupServer(t)
	groupID, p, a, b := seedGroup(t, engine, store)

	rec := doJSON(t, handler, http.MethodPost, "/expenses", map[string]any{
		"group_id":     groupID,
		"paid_by":      p,
		"total_amount": 10.00,
		"split_type":   "EXACT",
		"participants": []string{p, a, b},
		"splits": []map[string]any{
			{"user_id": p, "amount": 4.00},
			{"user_id": a, "amount": 3.50},
			{"user_id": b, "amount": 2.50},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/balances/user?user_id="+b, nil)
	rows := decodeBody[[]map[string]any](t, rec)
	if len(rows) != 1 || rows[0]["amount"].(float64) != 2.50 {
		t.Errorf("unexpected balances for %s: %v", b, rows)
	}
}

func TestExpenseInvalidSplitRejected(t *testing.T) {
	handler, engine, store := setupServer(t)
	groupID, p, a, b := seedGroup(t, engine, store)

	rec := doJSON(t, handler, http.MethodPost, "/expenses", map[string]any{
		"group_id":     groupID,
		"paid_by":      p,
		"total_amount": 10.00,
		"split_type":   "EXACT",
		"participants": []string{p, a, b},
		"splits": []map[string]any{
			{"user_id": p, "amount": 4.00},
			{"user_id": a, "amount": 3.50},
			{"user_id": b, "amount": 2.49},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[errorBody](t, rec)
	if body.Error.Code != "INVALID_SPLIT" {
		t.Errorf("error code = %q, want INVALID_SPLIT", body.Error.Code)
	}
}

func TestExpenseNonMemberRejected(t *testing.T) {
	handler, engine, store := setupServer(t)
	groupID, p, a, _ := seedGroup(t, engine, store)

	if err := store.CreateUser(context.Background(), &models.User{ID: "user-x", Name: "Xavi"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec := doJSON(t, handler, http.MethodPost, "/expenses", map[string]any{
		"group_id":     groupID,
		"paid_by":      p,
		"total_amount": 30.00,
		"split_type":   "EQUAL",
		"participants": []string{p, a, "user-x"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[errorBody](t, rec)
	if body.Error.Code != "INVALID_MEMBERSHIP" {
		t.Errorf("error code = %q, want INVALID_MEMBERSHIP", body.Error.Code)
	}
}

func TestSettle(t *testing.T) {
	handler, engine, store := setupServer(t)
	groupID, p, a, b := seedGroup(t, engine, store)

	rec := doJSON(t, handler, http.MethodPost, "/expenses", map[string]any{
		"group_id":     groupID,
		"paid_by":      p,
		"total_amount": 90.00,
		"split_type":   "EQUAL",
		"participants": []string{p, a, b},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /expenses status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/settle", map[string]any{
		"from_user_id": a,
		"to_user_id":   p,
		"amount":       30.00,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /settle status = %d, body %s", rec.Code, rec.Body.String())
	}
	settled := decodeBody[map[string]any](t, rec)
	if settled["id"] == "" || settled["amount"].(float64) != 30.00 {
		t.Errorf("unexpected settlement response: %v", settled)
	}

	rec = doJSON(t, handler, http.MethodGet, "/balances/user?user_id="+a, nil)
	rows := decodeBody[[]map[string]any](t, rec)
	if len(rows) != 0 {
		t.Errorf("expected no balances after settlement, got %v", rows)
	}
}

func TestSettleValidation(t *testing.T) {
	handler, engine, store := setupServer(t)
	_, p, a, _ := seedGroup(t, engine, store)

	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{
			name:     "self settlement",
			body:     map[string]any{"from_user_id": p, "to_user_id": p, "amount": 10.00},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_SETTLEMENT",
		},
		{
			name:     "non-positive amount",
			body:     map[string]any{"from_user_id": a, "to_user_id": p, "amount": 0.0},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_AMOUNT",
		},
		{
			name:     "unknown user",
			body:     map[string]any{"from_user_id": "ghost", "to_user_id": p, "amount": 10.00},
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/settle", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			body := decodeBody[errorBody](t, rec)
			if body.Error.Code != tt.wantErr {
				t.Errorf("error code = %q, want %q", body.Error.Code, tt.wantErr)
			}
		})
	}
}

func TestSuggestSettlements(t *testing.T) {
	handler, engine, store := setupServer(t)
	groupID, p, a, b := seedGroup(t, engine, store)
	ctx := context.Background()

	if _, err := engine.CreateExpense(ctx, ledger.ExpenseInput{
		GroupID:      groupID,
		PaidBy:       p,
		TotalCents:   9000,
		SplitType:    models.SplitEqual,
		Participants: []string{p, a, b},
	}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	rec := doJSON(t, handler, http.MethodGet, "/balances/groups/suggest?group_id="+groupID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	rows := decodeBody[[]map[string]any](t, rec)
	if len(rows) != 2 {
		t.Fatalf("got %d suggestions, want 2: %v", len(rows), rows)
	}
	for _, row := range rows {
		if row["to_user_id"] != p {
			t.Errorf("suggestion should pay %s, got %v", p, row)
		}
		if amt := row["amount"].(float64); amt != 30.00 {
			t.Errorf("amount = %v, want 30.00", amt)
		}
	}
}

func TestCORSHeaders(t *testing.T) {
	handler, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("OPTIONS status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _, _ := setupServer(t)
	rec := doJSON(t, handler, http.MethodDelete, "/users", nil)
	if rec.Code != http.StatusMethodNotAllowed && rec.Code != http.StatusNotFound {
		t.Errorf("DELETE /users status = %d, want 405 or 404", rec.Code)
	}
}

func TestMalformedJSONBody(t *testing.T) {
	handler, _, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodPost, "/expenses", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPercentSplitOverWire(t *testing.T) {
	handler, engine, store := setupServer(t)
	groupID, p, a, b := seedGroup(t, engine, store)

	rec := doJSON(t, handler, http.MethodPost, "/expenses", map[string]any{
		"group_id":     groupID,
		"paid_by":      p,
		"total_amount": 100.00,
		"split_type":   "PERCENT",
		"participants": []string{p, a, b},
		"splits": []map[string]any{
			{"user_id": p, "percentage": 50.0},
			{"user_id": a, "percentage": 30.0},
			{"user_id": b, "percentage": 20.0},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	for ower, want := range map[string]float64{a: 30.00, b: 20.00} {
		rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/balances/user?user_id=%s", ower), nil)
		rows := decodeBody[[]map[string]any](t, rec)
		if len(rows) != 1 || rows[0]["amount"].(float64) != want {
			t.Errorf("balances for %s = %v, want amount %v", ower, rows, want)
		}
	}
}
