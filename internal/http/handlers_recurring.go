package http

import (
	"encoding/json"
	"net/http"

	"kannadi/internal/core"
)

type recurringRequest struct {
	ID            string               `json:"id"`
	Type          core.TransactionKind `json:"type"`
	Amount        json.Number          `json:"amount"`
	Description   string               `json:"description"`
	Source        string               `json:"source"`
	CategoryID    string               `json:"categoryId"`
	SubcategoryID string               `json:"subcategoryId"`
	Frequency     core.Frequency       `json:"frequency"`
	DayOfMonth    int                  `json:"dayOfMonth"`
	IsActive      *bool                `json:"isActive"`
	StartDate     string               `json:"startDate"`
}

func (req recurringRequest) template() (core.RecurringTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt := core.RecurringTransaction{
		ID:            sanitizeInput(req.ID),
		Kind:          req.Type,
		Amount:        amount,
		Description:   sanitizeInput(req.Description),
		Source:        sanitizeInput(req.Source),
		CategoryID:    sanitizeInput(req.CategoryID),
		SubcategoryID: sanitizeInput(req.SubcategoryID),
		Frequency:     req.Frequency,
		DayOfMonth:    req.DayOfMonth,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if req.StartDate != "" {
		if rt.StartDate, err = parseDate(req.StartDate); err != nil {
			return core.RecurringTransaction{}, err
		}
	}
	return rt, nil
}

func recurringRecords(list []core.RecurringTransaction) []core.RecurringRecord {
	out := make([]core.RecurringRecord, len(list))
	for i, rt := range list {
		out[i] = rt.Record()
	}
	return out
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Recurring.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(recurringRecords(list)).Write(w)
}

// handleSaveRecurring creates a template, or replaces one when the body
// carries an existing id.
func (s *Server) handleSaveRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	rt, err := req.template()
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if rt.ID == "" {
		status = http.StatusCreated
	}
	saved, err := s.svc.Recurring.Save(r.Context(), rt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(status).Payload(saved.Record()).Write(w)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Recurring.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleRecurringSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Recurring.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(sum).Write(w)
}

func (s *Server) handleRecurringPending(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Recurring.Pending(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(recurringRecords(list)).Write(w)
}

// handleRecurringApply materializes every due template now. A partial
// failure still reports how many were written.
func (s *Server) handleRecurringApply(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Recurring.ProcessDue(r.Context(), s.now())
	if err != nil && n == 0 {
		writeError(w, r, err)
		return
	}
	body := map[string]any{"applied": n}
	if err != nil {
		body["error"] = "some templates could not be applied"
	}
	NewJSONResponse().Payload(body).Write(w)
}
