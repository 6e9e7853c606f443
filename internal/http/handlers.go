package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"cashbook/internal/core"
	"cashbook/internal/services"
	"cashbook/internal/view"
)

// ledgerResponse is the full client-facing state: the meta document plus the
// filtered, paginated, summarized view of the resident year.
type ledgerResponse struct {
	Meta core.Meta       `json:"meta"`
	View view.Projection `json:"view"`
}

func (s *Server) ledgerState(page int) ledgerResponse {
	return ledgerResponse{
		Meta: s.svc.Store().Meta(),
		View: s.svc.Project(page),
	}
}

func decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func pathIndex(r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be a number")
			return
		}
		page = p
	}
	writeJSON(w, http.StatusOK, s.ledgerState(page))
}

func (s *Server) handleAddYear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year int `json:"year"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.AddYear(r.Context(), req.Year); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.ledgerState(1))
}

func (s *Server) handleSelectYear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year int `json:"year"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.SelectYear(r.Context(), req.Year); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgerState(1))
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month    *string `json:"month"`
		Category *string `json:"category"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Month == nil && req.Category == nil {
		writeError(w, http.StatusBadRequest, "month or category required")
		return
	}
	if req.Month != nil {
		if err := s.svc.SetMonthFilter(r.Context(), *req.Month); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	if req.Category != nil {
		if err := s.svc.SetCategoryFilter(r.Context(), *req.Category); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.ledgerState(1))
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearFilters(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgerState(1))
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.AddCategory(r.Context(), req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.ledgerState(1))
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category index")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.RenameCategory(r.Context(), idx, req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgerState(1))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category index")
		return
	}
	if err := s.svc.DeleteCategory(r.Context(), idx); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgerState(1))
}

// transactionRequest mirrors the entry form. Amount stays a string so the
// service can own parsing and validation.
type transactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Month       string `json:"month"`
}

func (tr transactionRequest) toInput() services.TransactionInput {
	return services.TransactionInput{
		Date:        tr.Date,
		Description: tr.Description,
		Amount:      tr.Amount,
		Type:        tr.Type,
		Category:    tr.Category,
		Month:       tr.Month,
	}
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	txn, err := s.svc.AddTransaction(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Transaction core.Transaction `json:"transaction"`
		State       ledgerResponse   `json:"state"`
	}{Transaction: txn, State: s.ledgerState(1)})
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid transaction index")
		return
	}
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	txn, err := s.svc.EditTransaction(r.Context(), idx, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Transaction core.Transaction `json:"transaction"`
		State       ledgerResponse   `json:"state"`
	}{Transaction: txn, State: s.ledgerState(1)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid transaction index")
		return
	}
	if err := s.svc.DeleteTransaction(r.Context(), idx); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgerState(1))
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Indexes []int `json:"indexes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Indexes) == 0 {
		writeError(w, http.StatusBadRequest, "indexes required")
		return
	}
	if err := s.svc.DeleteTransactions(r.Context(), req.Indexes); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgerState(1))
}

func (s *Server) handleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteAllTransactions(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgerState(1))
}

func (s *Server) handleEntryDefaults(w http.ResponseWriter, r *http.Request) {
	category, month := s.svc.EntryDefaults(r.Context())
	writeJSON(w, http.StatusOK, struct {
		Category string `json:"category"`
		Month    string `json:"month"`
	}{Category: category, Month: month})
}
