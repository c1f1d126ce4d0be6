package http

import (
	"net/http"

	"dinero/internal/services"
)

type accountPayload struct {
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	IsDefault bool   `json:"isDefault"`
	SortOrder int    `json:"sortOrder"`
}

type accountUpdatePayload struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	Icon      *string `json:"icon"`
	IsDefault *bool   `json:"isDefault"`
	SortOrder *int    `json:"sortOrder"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var p accountPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := h.Accounts.Create(r.Context(), services.CreateAccountRequest{
		UserID:    userID(r),
		Name:      p.Name,
		Currency:  p.Currency,
		Color:     p.Color,
		Icon:      p.Icon,
		IsDefault: p.IsDefault,
		SortOrder: p.SortOrder,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := h.Accounts.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p accountUpdatePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := h.Accounts.Update(r.Context(), services.UpdateAccountRequest{
		UserID:    userID(r),
		ID:        id,
		Name:      p.Name,
		Color:     p.Color,
		Icon:      p.Icon,
		IsDefault: p.IsDefault,
		SortOrder: p.SortOrder,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Accounts.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReorderAccounts(w http.ResponseWriter, r *http.Request) {
	var p struct {
		IDs []int64 `json:"ids"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Accounts.Reorder(r.Context(), userID(r), p.IDs); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.Accounts.GetBalance(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
