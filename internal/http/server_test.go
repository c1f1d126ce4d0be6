package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinero/internal/cache"
	"dinero/internal/core"
	"dinero/internal/currency"
	"dinero/internal/log"
	"dinero/internal/services"
	"dinero/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	memCache := cache.NewMemory(100)
	balance := services.NewBalanceCalculator(repo)
	rates := currency.NewProvider("http://127.0.0.1:0", memCache)

	h := &Handler{
		Transactions: services.NewTransactionService(repo, balance, memCache, nil),
		Accounts:     services.NewAccountService(repo, balance, memCache, nil),
		Categories:   services.NewCategoryService(repo, memCache, nil),
		Savings:      services.NewSavingsService(repo, balance, memCache, nil),
		Recurring:    services.NewRecurringService(repo, memCache, nil),
		Dashboard:    services.NewDashboardService(repo, balance, rates, memCache),
		Reports:      services.NewReportService(repo, memCache),
	}

	srv := httptest.NewServer(NewRouter(h, log.New(log.DefaultConfig())))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, userID int64, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// seedAPIUser provisions default categories and an account over the API.
func seedAPIUser(t *testing.T, srv *httptest.Server, userID int64) core.Account {
	t.Helper()
	resp := doJSON(t, srv, http.MethodPost, "/api/categories/defaults", userID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, srv, http.MethodPost, "/api/accounts", userID, map[string]any{
		"name": "Principal", "currency": "EUR",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[core.Account](t, resp)
}

func TestAPIRequiresUserHeader(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/transactions", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/transactions", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", "abc")
	resp2, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	// Health endpoints stay open.
	resp = doJSON(t, srv, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndFetchTransaction(t *testing.T) {
	srv := newTestServer(t)
	seedAPIUser(t, srv, 1)

	resp := doJSON(t, srv, http.MethodPost, "/api/transactions", 1, map[string]any{
		"amount":      "1250.75",
		"type":        "INCOME",
		"description": "Nómina",
		"date":        "2026-08-25",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[core.Transaction](t, resp)
	assert.True(t, created.Amount.Equal(core.CentsToAmount(125075)))
	assert.NotZero(t, created.ID)
	require.NotNil(t, created.AccountID, "default account is resolved server-side")

	resp = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Another user cannot see it.
	seedAPIUser(t, srv, 2)
	resp = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), 2, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOverdraftMapsToBadRequest(t *testing.T) {
	srv := newTestServer(t)
	seedAPIUser(t, srv, 1)

	doJSON(t, srv, http.MethodPost, "/api/transactions", 1, map[string]any{
		"amount": "100", "type": "INCOME", "description": "Ingreso",
	})

	resp := doJSON(t, srv, http.MethodPost, "/api/transactions", 1, map[string]any{
		"amount": "150", "type": "EXPENSE", "description": "Capricho",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[errorBody](t, resp)
	assert.Equal(t, core.CodeInsufficientBalance, body.Code)
	assert.Equal(t, "100.00", body.Details["available"])
}

func TestUnknownFieldsRejected(t *testing.T) {
	srv := newTestServer(t)
	seedAPIUser(t, srv, 1)

	resp := doJSON(t, srv, http.MethodPost, "/api/transactions", 1, map[string]any{
		"amount": "10", "type": "EXPENSE", "bogus": true,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[errorBody](t, resp)
	assert.Equal(t, core.CodeInvalidInput, body.Code)
}

func TestMissingResourceMapsToNotFound(t *testing.T) {
	srv := newTestServer(t)
	seedAPIUser(t, srv, 1)

	resp := doJSON(t, srv, http.MethodGet, "/api/transactions/9999", 1, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := seedAPIUser(t, srv, 1)

	doJSON(t, srv, http.MethodPost, "/api/transactions", 1, map[string]any{
		"amount": "500", "type": "INCOME", "description": "Ingreso",
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/dashboard", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeBody[core.DashboardStats](t, resp)
	assert.Equal(t, "EUR", stats.Currency)
	assert.True(t, stats.Balance.Equal(core.CentsToAmount(50000)))

	resp = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/dashboard?accountId=%d", account.ID), 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateGoalEndpoint(t *testing.T) {
	srv := newTestServer(t)
	seedAPIUser(t, srv, 1)

	resp := doJSON(t, srv, http.MethodPost, "/api/savings", 1, map[string]any{
		"name": "Viaje", "targetAmount": "500", "currency": "EUR",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	goal := decodeBody[core.SavingsGoal](t, resp)

	resp = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/savings/%d", goal.ID), 1, map[string]any{
		"name": "Viaje a Japón", "targetAmount": "800",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[core.SavingsGoal](t, resp)
	assert.Equal(t, "Viaje a Japón", updated.Name)
	assert.True(t, updated.TargetAmount.Equal(decimal.RequireFromString("800")))

	resp = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/savings/%d", goal.ID), 2, map[string]any{
		"name": "Ajena",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateRecurringEndpoint(t *testing.T) {
	srv := newTestServer(t)
	seedAPIUser(t, srv, 1)

	resp := doJSON(t, srv, http.MethodGet, "/api/categories", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	categories := decodeBody[[]core.Category](t, resp)
	require.NotEmpty(t, categories)

	resp = doJSON(t, srv, http.MethodPost, "/api/recurring", 1, map[string]any{
		"categoryId":    categories[0].ID,
		"amount":        "1200",
		"currency":      "EUR",
		"description":   "Nómina",
		"frequency":     "MONTHLY",
		"nextExecution": "2026-09-30",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	template := decodeBody[core.RecurringTemplate](t, resp)

	resp = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/recurring/%d", template.ID), 1, map[string]any{
		"amount": "1350", "frequency": "WEEKLY",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[core.RecurringTemplate](t, resp)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("1350")))
	assert.Equal(t, core.Weekly, updated.Frequency)
}
