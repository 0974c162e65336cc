package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type transactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	OccurredOn  string `json:"occurred_on"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	OccurredOn  string `json:"occurred_on"`
	CreatedAt   string `json:"created_at"`
}

type summaryResponse struct {
	TotalIncome  string `json:"total_income"`
	TotalExpense string `json:"total_expense"`
	Balance      string `json:"balance"`
	Count        int    `json:"count"`
	HasData      bool   `json:"has_data"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	kind := core.Kind(sanitizeInput(r.URL.Query().Get("kind")))
	if kind == "" {
		kind = core.KindAll
	}
	if !kind.ValidFilter() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown kind filter"})
		return
	}

	rows, err := s.ledger.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rows = core.Filter(rows, kind)

	out := make([]transactionResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, struct {
		Transactions []transactionResponse `json:"transactions"`
	}{Transactions: out})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := s.ledger.Add(r.Context(), services.AddTransactionInput{
		Kind:        core.Kind(sanitizeInput(req.Kind)),
		Amount:      sanitizeInput(req.Amount),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		OccurredOn:  sanitizeInput(req.OccurredOn),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing transaction id"})
		return
	}
	if err := s.ledger.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary recomputes the aggregates from a fresh fetch. An empty
// ledger answers zeros with has_data false so the client can tell "no
// rows" apart from "balance happens to be zero".
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	rows, err := s.ledger.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	sum := core.Summarize(rows)
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalIncome:  sum.TotalIncome.Decimal(),
		TotalExpense: sum.TotalExpense.Decimal(),
		Balance:      sum.Balance.Decimal(),
		Count:        sum.Count,
		HasData:      sum.Count > 0,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Income  []string `json:"income"`
		Expense []string `json:"expense"`
	}{
		Income:  core.IncomeCategories,
		Expense: core.ExpenseCategories,
	})
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Amount:      t.Amount.Decimal(),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Description: t.Description,
		OccurredOn:  t.OccurredOn.ISO(),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}
