package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"dinero/internal/core"
	"dinero/internal/services"
	"dinero/internal/storage"
)

type transactionPayload struct {
	AccountID   *int64          `json:"accountId"`
	CategoryID  int64           `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	ReceiptURL  string          `json:"receiptUrl"`
}

type transactionUpdatePayload struct {
	AccountID   *int64           `json:"accountId"`
	CategoryID  *int64           `json:"categoryId"`
	Amount      *decimal.Decimal `json:"amount"`
	Type        *string          `json:"type"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
	ReceiptURL  *string          `json:"receiptUrl"`
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var p transactionPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(p.Date, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.Transactions.Create(r.Context(), createTransactionRequest(userID(r), p, date))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.Transactions.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p transactionUpdatePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}

	req, err := updateTransactionRequest(userID(r), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.Transactions.Update(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Transactions.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f := storage.TransactionFilter{}
	q := r.URL.Query()
	if v := q.Get("accountId"); v != "" {
		f.AccountID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("categoryId"); v != "" {
		f.CategoryID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("type"); v != "" {
		f.Type = core.TransactionType(v)
	}
	if v := q.Get("start"); v != "" {
		t, err := parseDate(v, time.Time{})
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Start = t
	}
	if v := q.Get("end"); v != "" {
		t, err := parseDate(v, time.Time{})
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.End = t
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}

	txs, err := h.Transactions.List(r.Context(), userID(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func createTransactionRequest(uid int64, p transactionPayload, date time.Time) services.CreateTransactionRequest {
	return services.CreateTransactionRequest{
		UserID:      uid,
		AccountID:   p.AccountID,
		CategoryID:  p.CategoryID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Type:        core.TransactionType(p.Type),
		Description: p.Description,
		Date:        date,
		ReceiptURL:  p.ReceiptURL,
	}
}

func updateTransactionRequest(uid, id int64, p transactionUpdatePayload) (services.UpdateTransactionRequest, error) {
	req := services.UpdateTransactionRequest{
		UserID:      uid,
		ID:          id,
		AccountID:   p.AccountID,
		CategoryID:  p.CategoryID,
		Amount:      p.Amount,
		Description: p.Description,
		ReceiptURL:  p.ReceiptURL,
	}
	if p.Type != nil {
		typ := core.TransactionType(*p.Type)
		req.Type = &typ
	}
	if p.Date != nil {
		t, err := parseDate(*p.Date, time.Time{})
		if err != nil {
			return req, err
		}
		req.Date = &t
	}
	return req, nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validation(core.CodeInvalidInput, "invalid id in path")
	}
	return id, nil
}

// parseDate accepts RFC 3339 timestamps or bare dates. An empty value falls
// back to fallback.
func parseDate(v string, fallback time.Time) (time.Time, error) {
	if v == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, core.Validation(core.CodeInvalidInput, "invalid date: "+v)
}
