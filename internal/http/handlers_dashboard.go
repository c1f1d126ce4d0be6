package http

import (
	"net/http"
	"strconv"
	"time"

	"dinero/internal/core"
)

// GetDashboard serves the aggregate view, optionally scoped to one account
// via ?accountId=N.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var accountID int64
	if v := r.URL.Query().Get("accountId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, r, core.Validation(core.CodeInvalidInput, "invalid accountId"))
			return
		}
		accountID = id
	}

	stats, err := h.Dashboard.GetStats(r.Context(), userID(r), accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Dashboard.MonthlySummary(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetReportSummary(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.Reports.Summary(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetReportComparison compares the requested range against the window of the
// same length immediately before it.
func (h *Handler) GetReportComparison(w http.ResponseWriter, r *http.Request) {
	current, err := reportFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	span := current.End.Sub(current.Start)
	previous := current
	previous.End = current.Start
	previous.Start = current.Start.Add(-span)

	comparison, err := h.Reports.Comparison(r.Context(), current, previous)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

func reportFilter(r *http.Request) (core.ReportFilter, error) {
	q := r.URL.Query()
	start, err := parseDate(q.Get("start"), time.Time{})
	if err != nil {
		return core.ReportFilter{}, err
	}
	end, err := parseDate(q.Get("end"), time.Time{})
	if err != nil {
		return core.ReportFilter{}, err
	}
	if start.IsZero() || end.IsZero() {
		return core.ReportFilter{}, core.Validation(core.CodeInvalidInput, "start and end are required")
	}

	f := core.ReportFilter{
		UserID: userID(r),
		Start:  start,
		End:    end,
		Type:   core.TransactionType(q.Get("type")),
	}
	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return core.ReportFilter{}, core.Validation(core.CodeInvalidInput, "invalid categoryId")
		}
		f.CategoryID = id
	}
	return f, nil
}
