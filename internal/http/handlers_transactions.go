package http

import (
	"encoding/json"
	"net/http"

	"kannadi/internal/core"
	"kannadi/internal/currency"
)

type expenseRequest struct {
	Date          string      `json:"date"`
	Description   string      `json:"description"`
	Amount        json.Number `json:"amount"`
	CategoryID    string      `json:"categoryId"`
	SubcategoryID string      `json:"subcategoryId"`
}

type incomeRequest struct {
	Date       string      `json:"date"`
	Source     string      `json:"source"`
	Amount     json.Number `json:"amount"`
	CategoryID string      `json:"categoryId"`
}

type categoryRequest struct {
	Name     string            `json:"name"`
	Type     core.CategoryType `json:"type"`
	Icon     string            `json:"icon"`
	Color    string            `json:"color"`
	ParentID string            `json:"parentId"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.Transactions.ListExpenses(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]core.ExpenseRecord, len(list))
	for i, e := range list {
		out[i] = e.Record()
	}
	NewJSONResponse().Payload(out).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.svc.Transactions.CreateExpense(r.Context(), core.Expense{
		Date:          date,
		Description:   sanitizeInput(req.Description),
		Amount:        amount,
		CategoryID:    sanitizeInput(req.CategoryID),
		SubcategoryID: sanitizeInput(req.SubcategoryID),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(saved.Record()).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.Transactions.ListIncomes(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]core.IncomeRecord, len(list))
	for i, in := range list {
		out[i] = in.Record()
	}
	NewJSONResponse().Payload(out).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.svc.Transactions.CreateIncome(r.Context(), core.IncomeEntry{
		Date:       date,
		Source:     sanitizeInput(req.Source),
		Amount:     amount,
		CategoryID: sanitizeInput(req.CategoryID),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(saved.Record()).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.DeleteIncome(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleListCategories returns the flat list, or groups of one bucket
// when ?type= is given.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Transactions.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if t := core.CategoryType(r.URL.Query().Get("type")); t != "" {
		if !t.IsValid() {
			writeError(w, r, badRequest("invalid category type %q", t))
			return
		}
		NewJSONResponse().Payload(core.GroupCategories(cats, t)).Write(w)
		return
	}
	NewJSONResponse().Payload(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Transactions.AddCategory(r.Context(), core.Category{
		Name:     sanitizeInput(req.Name),
		Type:     req.Type,
		Icon:     sanitizeInput(req.Icon),
		Color:    sanitizeInput(req.Color),
		ParentID: sanitizeInput(req.ParentID),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(saved).Write(w)
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(currency.Search(r.URL.Query().Get("q"))).Write(w)
}
