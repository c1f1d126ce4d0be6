package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/core"
	"dinero/internal/services"
)

type recurringPayload struct {
	CategoryID    int64           `json:"categoryId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	Frequency     string          `json:"frequency"`
	NextExecution string          `json:"nextExecution"`
}

type recurringUpdatePayload struct {
	CategoryID    *int64           `json:"categoryId"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      *string          `json:"currency"`
	Description   *string          `json:"description"`
	Frequency     *string          `json:"frequency"`
	NextExecution *string          `json:"nextExecution"`
}

func (h *Handler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	var p recurringPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	next, err := parseDate(p.NextExecution, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	template, err := h.Recurring.Create(r.Context(), services.CreateRecurringRequest{
		UserID:        userID(r),
		CategoryID:    p.CategoryID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Description:   p.Description,
		Frequency:     core.Frequency(p.Frequency),
		NextExecution: next,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

func (h *Handler) GetRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	template, err := h.Recurring.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *Handler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Recurring.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) UpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p recurringUpdatePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	req := services.UpdateRecurringRequest{
		UserID:      userID(r),
		ID:          id,
		CategoryID:  p.CategoryID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Description: p.Description,
	}
	if p.Frequency != nil {
		freq := core.Frequency(*p.Frequency)
		req.Frequency = &freq
	}
	if p.NextExecution != nil {
		next, err := parseDate(*p.NextExecution, time.Time{})
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.NextExecution = &next
	}

	template, err := h.Recurring.Update(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *Handler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Recurring.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProcessRecurring triggers an immediate sweep of due templates. The worker
// runs the same sweep on a timer; this endpoint exists for catch-up after
// downtime.
func (h *Handler) ProcessRecurring(w http.ResponseWriter, r *http.Request) {
	result, err := h.Recurring.ProcessDue(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SetRecurringActive pauses or resumes a template.
func (h *Handler) SetRecurringActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p struct {
		Active bool `json:"active"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Recurring.SetActive(r.Context(), userID(r), id, p.Active); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
