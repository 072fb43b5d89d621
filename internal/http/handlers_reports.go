package http

import (
	"net/http"
	"strings"

	"kannadi/internal/core"
	"kannadi/internal/services"
)

func (s *Server) currentMonth(r *http.Request) (core.Month, error) {
	return parseMonthParam(r.URL.Query(), "month", core.MonthOf(s.now()))
}

// handleSummary serves ?month=YYYY-MM or ?month=YYYY-ALL, defaulting to the
// current month.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		raw = core.MonthOf(s.now()).String()
	}
	p, err := services.ParsePeriod(raw)
	if err != nil {
		writeError(w, r, badRequest("invalid month %q: want YYYY-MM or YYYY-ALL", raw))
		return
	}
	sum, err := s.svc.Reports.Summary(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(sum).Write(w)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	series, err := s.svc.Reports.Trends(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(series).Write(w)
}

func (s *Server) handleRolling(w http.ResponseWriter, r *http.Request) {
	window, err := parseIntParam(r.URL.Query(), "window", 3)
	if err != nil {
		writeError(w, r, err)
		return
	}
	points, err := s.svc.Reports.RollingSavings(r.Context(), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(points).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := s.svc.Reports.Breakdown(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(totals).Write(w)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	current, err := s.currentMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.svc.Reports.Projection(r.Context(), current)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(rep).Write(w)
}

// handleCoverage is the coverage half of the projection report.
func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	current, err := s.currentMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.svc.Reports.Projection(r.Context(), current)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(map[string]any{
		"ready":        rep.Ready,
		"monthsNeeded": rep.Needed,
		"currency":     rep.Currency,
		"coverage":     rep.Coverage,
	}).Write(w)
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := parseFloatParam(q, "target")
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := parseIntParam(q, "months", 12)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := s.currentMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Reports.Goal(r.Context(), target, months, current)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(res).Write(w)
}

func (s *Server) handleJourney(w http.ResponseWriter, r *http.Request) {
	current, err := s.currentMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.svc.Reports.Journey(r.Context(), current)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(rep).Write(w)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	month, err := s.currentMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lines, err := s.svc.Reports.Insights(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Payload(lines).Write(w)
}
