package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"dinero/internal/services"
)

type goalPayload struct {
	Name              string          `json:"name"`
	TargetAmount      decimal.Decimal `json:"targetAmount"`
	Currency          string          `json:"currency"`
	Deadline          *string         `json:"deadline"`
	DeductFromBalance bool            `json:"deductFromBalance"`
	AccountID         *int64          `json:"accountId"`
}

type goalUpdatePayload struct {
	Name              *string          `json:"name"`
	TargetAmount      *decimal.Decimal `json:"targetAmount"`
	Deadline          *string          `json:"deadline"`
	DeductFromBalance *bool            `json:"deductFromBalance"`
	AccountID         *int64           `json:"accountId"`
}

type depositPayload struct {
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	AccountID *int64          `json:"accountId"`
	Date      string          `json:"date"`
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var p goalPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	req := services.CreateGoalRequest{
		UserID:            userID(r),
		Name:              p.Name,
		TargetAmount:      p.TargetAmount,
		Currency:          p.Currency,
		DeductFromBalance: p.DeductFromBalance,
		AccountID:         p.AccountID,
	}
	if p.Deadline != nil {
		deadline, err := parseDate(*p.Deadline, time.Time{})
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.Deadline = &deadline
	}

	goal, err := h.Savings.CreateGoal(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := h.Savings.GetGoal(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.Savings.ListGoals(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p goalUpdatePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	req := services.UpdateGoalRequest{
		UserID:            userID(r),
		ID:                id,
		Name:              p.Name,
		TargetAmount:      p.TargetAmount,
		DeductFromBalance: p.DeductFromBalance,
		AccountID:         p.AccountID,
	}
	if p.Deadline != nil {
		deadline, err := parseDate(*p.Deadline, time.Time{})
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.Deadline = &deadline
	}

	goal, err := h.Savings.UpdateGoal(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Savings.DeleteGoal(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p depositPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(p.Date, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	deposit, err := h.Savings.Deposit(r.Context(), services.DepositRequest{
		UserID:    userID(r),
		GoalID:    goalID,
		Amount:    p.Amount,
		Note:      p.Note,
		AccountID: p.AccountID,
		Date:      date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deposit)
}

func (h *Handler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	deposits, err := h.Savings.ListDeposits(r.Context(), userID(r), goalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}

// ListGoalAccounts returns the accounts that can fund a goal, with their
// available balances.
func (h *Handler) ListGoalAccounts(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := h.Savings.GetGoal(r.Context(), userID(r), goalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	options, err := h.Accounts.AvailableForGoal(r.Context(), userID(r), goal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

// GetDeductedTotal reports how much of the user's saved money was deducted
// from account balances, for reconciling dashboard figures.
func (h *Handler) GetDeductedTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.Savings.DeductedTotal(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"deductedTotal": total})
}
